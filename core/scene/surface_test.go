package scene

import (
	"image/color"
	"testing"

	"VizFM/core/vis"
	"VizFM/model"
)

func TestSurfaceFrameIsCopy(t *testing.T) {
	s := NewSurface(32, 16)
	s.Render("#102030", nil)

	frame, w, h := s.Frame()
	if w != 32 || h != 16 {
		t.Fatalf("frame size = %dx%d, want 32x16", w, h)
	}
	if len(frame) != 32*16*4 {
		t.Fatalf("frame length = %d, want %d", len(frame), 32*16*4)
	}
	if frame[0] != 0x10 || frame[1] != 0x20 || frame[2] != 0x30 {
		t.Errorf("background pixel = %v, want #102030", frame[:4])
	}

	// 拷贝语义：修改返回值不影响后续帧
	frame[0] = 0xff
	again, _, _ := s.Frame()
	if again[0] != 0x10 {
		t.Error("Frame returned a live buffer, want a copy")
	}
}

func TestSurfaceRenderObject(t *testing.T) {
	s := NewSurface(64, 64)
	obj := &vis.Object{
		ID:       "dot",
		Kind:     "point",
		Position: model.Vec3{}, // 画面中心
		Scale:    model.Vec3{X: 4, Y: 4, Z: 1},
		Material: vis.Material{Color: "#ff0000", Opacity: 1},
	}
	s.Render("#000000", []*vis.Object{obj})

	frame, w, _ := s.Frame()
	center := (32*w + 32) * 4
	if frame[center] != 0xff || frame[center+1] != 0 {
		t.Errorf("center pixel = %v, want red", frame[center:center+4])
	}
	if frame[0] != 0 {
		t.Errorf("corner pixel = %v, want background", frame[:4])
	}
}

func TestSurfaceResizeAndDestroy(t *testing.T) {
	s := NewSurface(32, 32)

	s.Resize(0, -1) // 非法尺寸忽略
	if s.Width() != 32 {
		t.Errorf("width after invalid resize = %d, want 32", s.Width())
	}

	s.Resize(100, 50)
	if s.Width() != 100 || s.Height() != 50 {
		t.Errorf("size = %dx%d, want 100x50", s.Width(), s.Height())
	}

	s.Destroy()
	if !s.Destroyed() {
		t.Fatal("Destroyed() = false after Destroy")
	}
	if frame, _, _ := s.Frame(); frame != nil {
		t.Error("Frame returned data after Destroy")
	}
	s.Render("#000000", nil) // no-op，不得 panic
	s.Resize(10, 10)
	if s.Width() != 100 {
		t.Error("resize took effect on a destroyed surface")
	}
}

func TestParseColorFallback(t *testing.T) {
	fb := color.RGBA{R: 1, G: 2, B: 3, A: 255}
	got := parseColor("#336699", fb)
	if got.R != 0x33 || got.G != 0x66 || got.B != 0x99 {
		t.Errorf("parseColor(#336699) = %+v", got)
	}
	for _, bad := range []string{"", "336699", "#33669", "#zzzzzz"} {
		if got := parseColor(bad, fb); got != fb {
			t.Errorf("parseColor(%q) = %+v, want fallback", bad, got)
		}
	}
}
