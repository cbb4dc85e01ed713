package scene

import (
	"math"
	"testing"
	"time"

	"VizFM/config"
	"VizFM/core/analysis"
	"VizFM/core/vis"
	"VizFM/model"
)

func newTestDirector() (*Director, *analysis.Engine) {
	cfg := &config.Config{
		SampleRate:     44100,
		FFTSize:        2048,
		PeakDecay:      0.995,
		BeatThreshold:  1.3,
		BeatRefractory: 0.18,
		EnvelopeLength: 43,
	}
	engine := analysis.NewEngine(cfg)
	registry := vis.NewRegistry()
	return NewDirector(engine, registry, NewSurface(320, 240)), engine
}

func TestDirectorVisualizerSwitchLeavesNoLeftovers(t *testing.T) {
	d, _ := newTestDirector()
	defer d.Teardown()

	if d.ActiveVisualizer() != vis.DefaultID {
		t.Fatalf("default visualizer = %q, want %q", d.ActiveVisualizer(), vis.DefaultID)
	}
	if got := d.ObjectCount(); got != 32 {
		t.Fatalf("default bars object count = %d, want 32", got)
	}

	// rings: Count/4 个环
	d.SetVisualizer("rings", vis.Params{Count: 16})
	if got := d.ObjectCount(); got != 4 {
		t.Errorf("after switch to rings: object count = %d, want 4 (no leftovers)", got)
	}

	// 切回 bars，对象数必须精确回到 bars 的数量
	d.SetVisualizer("bars", vis.Params{Count: 8})
	if got := d.ObjectCount(); got != 8 {
		t.Errorf("after switch back to bars: object count = %d, want 8", got)
	}
}

func TestDirectorUnknownVisualizerFallsBack(t *testing.T) {
	d, _ := newTestDirector()
	defer d.Teardown()

	d.SetVisualizer("does-not-exist", vis.Params{})
	if got := d.ActiveVisualizer(); got != vis.DefaultID {
		t.Errorf("active visualizer = %q, want fallback %q", got, vis.DefaultID)
	}
	if d.ObjectCount() == 0 {
		t.Error("fallback visualizer created no objects")
	}
}

func TestDirectorElementLifecycle(t *testing.T) {
	d, _ := newTestDirector()
	defer d.Teardown()

	visCount := d.ObjectCount()

	color := "#ff0000"
	d.UpsertElement(model.VisualElement{
		ID:      "deco-1",
		Type:    model.ElementShape,
		Visible: true,
		Scale:   model.Vec3{X: 1, Y: 1, Z: 1},
		Customization: model.Customization{
			Color: &color,
		},
	})
	if got := d.ObjectCount(); got != visCount+1 {
		t.Fatalf("object count after upsert = %d, want %d", got, visCount+1)
	}

	// merge 语义：只提交 opacity，颜色必须保留
	opacity := 0.5
	if !d.MergeCustomization("deco-1", &model.Customization{Opacity: &opacity}) {
		t.Fatal("MergeCustomization returned false for existing element")
	}
	els := d.Elements()
	if len(els) != 1 {
		t.Fatalf("elements = %d, want 1", len(els))
	}
	if els[0].Customization.Color == nil || *els[0].Customization.Color != "#ff0000" {
		t.Error("merge dropped a field it did not touch (color)")
	}
	if els[0].Customization.Opacity == nil || *els[0].Customization.Opacity != 0.5 {
		t.Error("merge did not apply the patched field (opacity)")
	}

	// 隐藏：描述保留，实时对象释放
	d.SetElementVisible("deco-1", false)
	if got := d.ObjectCount(); got != visCount {
		t.Errorf("object count after hide = %d, want %d", got, visCount)
	}
	if len(d.Elements()) != 1 {
		t.Error("hide removed the element description")
	}

	d.SetElementVisible("deco-1", true)
	if got := d.ObjectCount(); got != visCount+1 {
		t.Errorf("object count after show = %d, want %d", got, visCount+1)
	}

	d.RemoveElement("deco-1")
	if got := d.ObjectCount(); got != visCount {
		t.Errorf("object count after remove = %d, want %d", got, visCount)
	}
	if len(d.Elements()) != 0 {
		t.Error("remove left the element description behind")
	}

	if d.MergeCustomization("deco-1", &model.Customization{}) {
		t.Error("MergeCustomization returned true for removed element")
	}
}

func TestDirectorLightRespondsToAudio(t *testing.T) {
	d, engine := newTestDirector()
	defer d.Teardown()

	intensity := 2.0
	d.UpsertElement(model.VisualElement{
		ID:      "key-light",
		Type:    model.ElementLight,
		Visible: true,
		Customization: model.Customization{
			Intensity: &intensity,
		},
	})

	// 无音源：乘数为 1，强度等于基准
	d.Step(1.0 / 30)
	got, ok := d.LightIntensity("key-light")
	if !ok {
		t.Fatal("light not found")
	}
	if math.Abs(got-2.0) > 1e-9 {
		t.Errorf("silent light intensity = %v, want base 2.0", got)
	}

	// 有声音源：整体能量非零，强度高于基准
	clk := time.Unix(0, 0)
	engine.SetClock(func() time.Time { return clk })
	samples := make([]float64, 44100)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 44100)
	}
	engine.LoadSamples(samples, 44100)
	engine.Play()
	clk = clk.Add(500 * time.Millisecond)

	d.Step(1.0 / 30)
	got, _ = d.LightIntensity("key-light")
	if got <= 2.0 {
		t.Errorf("light intensity with audio = %v, want > base 2.0", got)
	}
}

func TestDirectorResizePreservesPhase(t *testing.T) {
	d, _ := newTestDirector()
	defer d.Teardown()

	d.Step(0.5)
	d.Step(0.5)
	elapsed := d.Elapsed()
	if elapsed != 1.0 {
		t.Fatalf("elapsed = %v, want 1.0", elapsed)
	}

	d.Resize(640, 480)
	if d.Elapsed() != elapsed {
		t.Errorf("resize reset animation phase: %v -> %v", elapsed, d.Elapsed())
	}
	if d.Width() != 640 || d.Height() != 480 {
		t.Errorf("size = %dx%d, want 640x480", d.Width(), d.Height())
	}
}

func TestDirectorStepAfterTeardownIsNoop(t *testing.T) {
	d, _ := newTestDirector()

	d.Step(0.1)
	elapsed := d.Elapsed()
	d.Teardown()
	d.Step(0.1) // 不得 panic，也不得推进
	if d.Elapsed() != elapsed {
		t.Errorf("elapsed advanced after teardown: %v -> %v", elapsed, d.Elapsed())
	}
}

func TestDirectorLastBeatIsIndependentCopy(t *testing.T) {
	d, _ := newTestDirector()
	defer d.Teardown()

	d.Step(1.0 / 30)
	beat := d.LastBeat()
	beat.BandStrengths[model.BandBass] = 99 // 修改拷贝不得影响内部状态

	again := d.LastBeat()
	if again.BandStrengths[model.BandBass] == 99 {
		t.Error("LastBeat returned a shared map")
	}
}
