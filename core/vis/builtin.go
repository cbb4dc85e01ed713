package vis

import (
	"fmt"
	"math"

	"VizFM/model"
)

// builtins 内置可视化算法集合。
// 几何形态是装饰性的，契约（Create 分配 / Animate 原地驱动）才是关键。
func builtins() []*Visualizer {
	return []*Visualizer{
		barsVisualizer(),
		waveVisualizer(),
		ringsVisualizer(),
		particlesVisualizer(),
		gridVisualizer(),
		tunnelVisualizer(),
	}
}

// sampleSpectrum 从频率幅度数组取第 i/n 段的平均值，归一化到 [0,1]。
func sampleSpectrum(mags []byte, i, n int) float64 {
	if len(mags) == 0 || n <= 0 {
		return 0
	}
	lo := i * len(mags) / n
	hi := (i + 1) * len(mags) / n
	if hi <= lo {
		hi = lo + 1
	}
	if hi > len(mags) {
		hi = len(mags)
	}
	var sum float64
	for k := lo; k < hi; k++ {
		sum += float64(mags[k])
	}
	return sum / float64(hi-lo) / 255.0
}

// barsVisualizer 频谱柱：一排沿 X 轴的柱体，高度跟随对应频段。
func barsVisualizer() *Visualizer {
	return &Visualizer{
		ID: "bars",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			objs := make([]*Object, p.Count)
			for i := range objs {
				x := (float64(i) - float64(p.Count-1)/2) * 1.2
				objs[i] = &Object{
					ID:       fmt.Sprintf("bars-%d", i),
					Kind:     "bar",
					Position: model.Vec3{X: x, Y: 0, Z: 0},
					Scale:    model.Vec3{X: 1, Y: 0.1, Z: 1},
					Material: Material{Color: p.Color, Opacity: 1},
					Base:     model.Vec3{X: x, Y: 0, Z: 0},
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			for i, o := range objs {
				level := sampleSpectrum(frame.FrequencyMagnitudes, i, len(objs)) * p.Sensitivity
				o.Scale.Y = 0.1 + level*8
				o.Position.Y = o.Scale.Y / 2
				o.Material.Emissive = level
			}
			_ = elapsed
			_ = beat
		},
	}
}

// waveVisualizer 波形线：一串点沿 X 轴摆出时域波形。
func waveVisualizer() *Visualizer {
	return &Visualizer{
		ID: "wave",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			n := p.Count * 2
			objs := make([]*Object, n)
			for i := range objs {
				x := (float64(i)/float64(n-1) - 0.5) * 20
				objs[i] = &Object{
					ID:       fmt.Sprintf("wave-%d", i),
					Kind:     "point",
					Position: model.Vec3{X: x},
					Scale:    model.Vec3{X: 0.15, Y: 0.15, Z: 0.15},
					Material: Material{Color: p.Color, Opacity: 0.9},
					Base:     model.Vec3{X: x},
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			samples := frame.TimeDomainSamples
			for i, o := range objs {
				var v float64
				if len(samples) > 0 {
					v = samples[i*len(samples)/len(objs)]
				}
				o.Position.Y = v * 5 * p.Sensitivity
				o.Material.Emissive = math.Abs(v)
			}
		},
	}
}

// ringsVisualizer 同心环：半径随频段能量呼吸，节拍时整体张开。
func ringsVisualizer() *Visualizer {
	return &Visualizer{
		ID: "rings",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			n := p.Count / 4
			if n < 3 {
				n = 3
			}
			objs := make([]*Object, n)
			for i := range objs {
				objs[i] = &Object{
					ID:       fmt.Sprintf("rings-%d", i),
					Kind:     "ring",
					Scale:    model.Vec3{X: 1, Y: 1, Z: 1},
					Material: Material{Color: p.Color, Opacity: 0.8},
					Seed:     float64(i),
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			kick := 0.0
			if beat != nil && beat.IsBeat {
				kick = 0.6
			}
			for i, o := range objs {
				level := sampleSpectrum(frame.FrequencyMagnitudes, i, len(objs)) * p.Sensitivity
				base := 1.5 + o.Seed*1.2
				r := base + level*2 + kick
				o.Scale = model.Vec3{X: r, Y: r, Z: r}
				o.Rotation.Z = elapsed * (0.2 + o.Seed*0.05)
				o.Material.Emissive = level + kick
			}
		},
	}
}

// particlesVisualizer 粒子云：沿球面均匀分布，半径随整体能量脉动。
func particlesVisualizer() *Visualizer {
	return &Visualizer{
		ID: "particles",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			n := p.Count * 4
			objs := make([]*Object, n)
			for i := range objs {
				// 黄金角球面分布，保证 Create 幂等（无随机性）
				t := float64(i) / float64(n)
				inc := math.Acos(1 - 2*t)
				azi := math.Pi * (1 + math.Sqrt(5)) * float64(i)
				dir := model.Vec3{
					X: math.Sin(inc) * math.Cos(azi),
					Y: math.Sin(inc) * math.Sin(azi),
					Z: math.Cos(inc),
				}
				objs[i] = &Object{
					ID:       fmt.Sprintf("particles-%d", i),
					Kind:     "point",
					Base:     dir,
					Scale:    model.Vec3{X: 0.08, Y: 0.08, Z: 0.08},
					Material: Material{Color: p.Color, Opacity: 0.85},
					Seed:     t,
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			var overall float64
			if beat != nil {
				overall = beat.Strength
			}
			for _, o := range objs {
				r := 4 + overall*3*p.Sensitivity + 0.5*math.Sin(elapsed+o.Seed*math.Pi*2)
				o.Position.X = o.Base.X * r
				o.Position.Y = o.Base.Y * r
				o.Position.Z = o.Base.Z * r
				o.Material.Emissive = overall
			}
		},
	}
}

// gridVisualizer 平面网格：高度场跟随频谱，低频在中心。
func gridVisualizer() *Visualizer {
	return &Visualizer{
		ID: "grid",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			side := int(math.Sqrt(float64(p.Count)))
			if side < 4 {
				side = 4
			}
			objs := make([]*Object, side*side)
			for i := range objs {
				row, col := i/side, i%side
				x := (float64(col) - float64(side-1)/2) * 1.5
				z := (float64(row) - float64(side-1)/2) * 1.5
				objs[i] = &Object{
					ID:       fmt.Sprintf("grid-%d", i),
					Kind:     "cell",
					Position: model.Vec3{X: x, Z: z},
					Base:     model.Vec3{X: x, Z: z},
					Scale:    model.Vec3{X: 1, Y: 0.1, Z: 1},
					Material: Material{Color: p.Color, Opacity: 1},
					Seed:     math.Hypot(x, z),
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			maxDist := 0.0
			for _, o := range objs {
				if o.Seed > maxDist {
					maxDist = o.Seed
				}
			}
			for _, o := range objs {
				band := 0
				if maxDist > 0 {
					band = int(o.Seed / maxDist * 15)
				}
				level := sampleSpectrum(frame.FrequencyMagnitudes, band, 16) * p.Sensitivity
				o.Scale.Y = 0.1 + level*4
				o.Position.Y = o.Scale.Y / 2
				o.Material.Emissive = level
			}
		},
	}
}

// tunnelVisualizer 隧道：一串环沿 Z 轴排开，随时间向镜头推进。
func tunnelVisualizer() *Visualizer {
	return &Visualizer{
		ID: "tunnel",
		Create: func(scene Scene, params Params) []*Object {
			p := params.withDefaults()
			n := p.Count
			objs := make([]*Object, n)
			for i := range objs {
				objs[i] = &Object{
					ID:       fmt.Sprintf("tunnel-%d", i),
					Kind:     "ring",
					Position: model.Vec3{Z: -float64(i) * 2},
					Base:     model.Vec3{Z: -float64(i) * 2},
					Scale:    model.Vec3{X: 3, Y: 3, Z: 1},
					Material: Material{Color: p.Color, Opacity: 0.7},
					Seed:     float64(i) / float64(n),
				}
			}
			return objs
		},
		Animate: func(objs []*Object, frame *model.AudioFrame, elapsed float64, params Params, beat *model.BeatInfo) {
			p := params.withDefaults()
			depth := float64(len(objs)) * 2
			var overall float64
			if beat != nil {
				overall = beat.Strength
			}
			for _, o := range objs {
				z := o.Base.Z + math.Mod(elapsed*4, depth)
				if z > 0 {
					z -= depth
				}
				o.Position.Z = z
				level := sampleSpectrum(frame.FrequencyMagnitudes, int(o.Seed*16), 16) * p.Sensitivity
				r := 3 + level*2 + overall
				o.Scale.X = r
				o.Scale.Y = r
				o.Material.Emissive = level
			}
		},
	}
}
