package scene

import (
	"image"
	"image/color"
	"strconv"
	"sync"

	"VizFM/core/vis"
)

// Surface 渲染表面：一块可调整大小的 RGBA 帧缓冲。
// SceneDirector 独占写入；录制层只通过 Frame() 读取快照。
type Surface struct {
	mu        sync.RWMutex
	img       *image.RGBA
	width     int
	height    int
	unit      float64 // 世界坐标到像素的缩放，随尺寸重算
	destroyed bool
}

// NewSurface 创建渲染表面
func NewSurface(width, height int) *Surface {
	s := &Surface{}
	s.resizeLocked(width, height)
	return s
}

// Width 当前宽度（像素）
func (s *Surface) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width
}

// Height 当前高度（像素）
func (s *Surface) Height() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// Resize 调整表面尺寸。只重算尺寸相关状态，动画相位由 Director 持有，不受影响。
func (s *Surface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || width <= 0 || height <= 0 {
		return
	}
	s.resizeLocked(width, height)
}

func (s *Surface) resizeLocked(width, height int) {
	s.width = width
	s.height = height
	min := width
	if height < min {
		min = height
	}
	s.unit = float64(min) / 24.0
	s.img = image.NewRGBA(image.Rect(0, 0, width, height))
}

// Destroy 标记表面已销毁，之后所有渲染调用都是 no-op。
func (s *Surface) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// Destroyed 表面是否已销毁
func (s *Surface) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

// Frame 返回当前帧像素的拷贝（RGBA，行优先），供录制层编码。
func (s *Surface) Frame() ([]byte, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.destroyed || s.img == nil {
		return nil, 0, 0
	}
	buf := make([]byte, len(s.img.Pix))
	copy(buf, s.img.Pix)
	return buf, s.width, s.height
}

// Render 把一帧对象画进帧缓冲。
// 几何表达刻意保持简单：对象按种类画成矩形/圆点，发光叠加到颜色上。
func (s *Surface) Render(background string, objects []*vis.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || s.img == nil {
		return
	}

	bg := parseColor(background, color.RGBA{R: 6, G: 8, B: 16, A: 255})
	fillRect(s.img, 0, 0, s.width, s.height, bg)

	cx := float64(s.width) / 2
	cy := float64(s.height) / 2

	for _, o := range objects {
		if o == nil {
			continue
		}
		c := parseColor(o.Material.Color, color.RGBA{R: 34, G: 204, B: 255, A: 255})
		c = boost(c, o.Material.Emissive, o.Material.Opacity)

		// 简化投影：Z 只影响大小衰减
		depth := 1.0 / (1.0 + o.Position.Z*o.Position.Z*0.005)
		px := cx + o.Position.X*s.unit
		py := cy - o.Position.Y*s.unit
		w := o.Scale.X * s.unit * 0.5 * depth
		h := o.Scale.Y * s.unit * 0.5 * depth
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		fillRect(s.img, int(px-w/2), int(py-h/2), int(w), int(h), c)
	}
}

// parseColor 解析 "#rrggbb"，失败时退回默认色。
func parseColor(hex string, fallback color.RGBA) color.RGBA {
	if len(hex) != 7 || hex[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}
}

// boost 应用发光与不透明度
func boost(c color.RGBA, emissive, opacity float64) color.RGBA {
	if emissive < 0 {
		emissive = 0
	}
	if emissive > 1 {
		emissive = 1
	}
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	lift := func(v uint8) uint8 {
		f := float64(v) + (255-float64(v))*emissive*0.6
		f *= opacity
		if f > 255 {
			f = 255
		}
		return uint8(f)
	}
	return color.RGBA{R: lift(c.R), G: lift(c.G), B: lift(c.B), A: 255}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	b := img.Bounds()
	x0, y0 := x, y
	x1, y1 := x+w, y+h
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	for yy := y0; yy < y1; yy++ {
		off := img.PixOffset(x0, yy)
		for xx := x0; xx < x1; xx++ {
			img.Pix[off] = c.R
			img.Pix[off+1] = c.G
			img.Pix[off+2] = c.B
			img.Pix[off+3] = c.A
			off += 4
		}
	}
}
