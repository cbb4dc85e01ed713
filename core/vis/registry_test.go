package vis

import (
	"testing"

	"VizFM/model"
)

type stubScene struct{ w, h int }

func (s stubScene) Width() int  { return s.w }
func (s stubScene) Height() int { return s.h }

func TestLookupFallsBackToDefault(t *testing.T) {
	r := NewRegistry()

	v := r.Lookup("no-such-visualizer")
	if v == nil {
		t.Fatal("Lookup returned nil for unknown id")
	}
	if v.ID != DefaultID {
		t.Errorf("fallback id = %q, want %q", v.ID, DefaultID)
	}

	for _, id := range []string{"bars", "wave", "rings", "particles", "grid", "tunnel"} {
		if got := r.Lookup(id); got == nil || got.ID != id {
			t.Errorf("Lookup(%q) did not return the registered visualizer", id)
		}
	}
}

func TestRegisterRejectsIncomplete(t *testing.T) {
	r := NewRegistry()
	before := len(r.IDs())

	r.Register(nil)
	r.Register(&Visualizer{ID: "broken"}) // 缺 Create/Animate

	if got := len(r.IDs()); got != before {
		t.Errorf("registry size = %d, want %d", got, before)
	}
}

func TestCreateIsIdempotent(t *testing.T) {
	r := NewRegistry()
	scene := stubScene{w: 640, h: 480}
	params := Params{Count: 24, Color: "#123456"}

	for _, id := range r.IDs() {
		v := r.Lookup(id)
		a := v.Create(scene, params)
		b := v.Create(scene, params)
		if len(a) == 0 {
			t.Errorf("%s: Create returned no objects", id)
			continue
		}
		if len(a) != len(b) {
			t.Errorf("%s: Create not idempotent: %d then %d objects", id, len(a), len(b))
			continue
		}
		for i := range a {
			if a[i].ID != b[i].ID || a[i].Position != b[i].Position || a[i].Base != b[i].Base {
				t.Errorf("%s: object %d differs between Create calls", id, i)
				break
			}
		}
	}
}

func TestAnimateMutatesInPlaceOnly(t *testing.T) {
	r := NewRegistry()
	scene := stubScene{w: 640, h: 480}
	params := Params{Count: 16}

	frame := &model.AudioFrame{
		FrequencyMagnitudes: make([]byte, 1024),
		TimeDomainSamples:   make([]float64, 2048),
	}
	for i := range frame.FrequencyMagnitudes {
		frame.FrequencyMagnitudes[i] = byte(i % 200)
	}
	beat := &model.BeatInfo{Strength: 0.7, BandStrengths: map[model.Band]float64{}}

	for _, id := range r.IDs() {
		v := r.Lookup(id)
		objs := v.Create(scene, params)
		ptrs := make([]*Object, len(objs))
		copy(ptrs, objs)

		v.Animate(objs, frame, 1.25, params, beat)

		if len(objs) != len(ptrs) {
			t.Errorf("%s: Animate changed object count", id)
			continue
		}
		for i := range objs {
			if objs[i] != ptrs[i] {
				t.Errorf("%s: Animate replaced object %d instead of mutating it", id, i)
				break
			}
		}
	}
}

func TestParamsDefaults(t *testing.T) {
	p := Params{}.withDefaults()
	if p.Count != 32 || p.Color == "" || p.Sensitivity != 1.0 {
		t.Errorf("withDefaults = %+v", p)
	}

	p = Params{Count: 7, Color: "#ffffff", Sensitivity: 2}.withDefaults()
	if p.Count != 7 || p.Color != "#ffffff" || p.Sensitivity != 2 {
		t.Errorf("withDefaults overwrote explicit values: %+v", p)
	}
}
