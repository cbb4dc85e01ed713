package model

import (
	"encoding/json"
	"testing"
)

func TestCustomizationMergeKeepsUnsetFields(t *testing.T) {
	color := "#aabbcc"
	speed := 2.0
	base := Customization{Color: &color, Speed: &speed}

	opacity := 0.3
	base.Merge(&Customization{Opacity: &opacity})

	if base.Color == nil || *base.Color != "#aabbcc" {
		t.Error("merge cleared an untouched field (color)")
	}
	if base.Speed == nil || *base.Speed != 2.0 {
		t.Error("merge cleared an untouched field (speed)")
	}
	if base.Opacity == nil || *base.Opacity != 0.3 {
		t.Error("merge did not apply the patch (opacity)")
	}

	// nil patch 是 no-op
	base.Merge(nil)
	if *base.Color != "#aabbcc" {
		t.Error("nil patch mutated the customization")
	}
}

func TestCustomizationMergeExtra(t *testing.T) {
	base := Customization{}
	base.Merge(&Customization{Extra: map[string]json.RawMessage{"trail": []byte(`true`)}})
	base.Merge(&Customization{Extra: map[string]json.RawMessage{"spread": []byte(`4`)}})

	if len(base.Extra) != 2 {
		t.Fatalf("extra = %v, want both keys merged", base.Extra)
	}
	if string(base.Extra["trail"]) != "true" {
		t.Errorf("extra[trail] = %s", base.Extra["trail"])
	}
}

func TestResponseChannelDefault(t *testing.T) {
	el := VisualElement{}
	if got := el.ResponseChannelOrDefault(); got != RespondOverall {
		t.Errorf("default channel = %q, want overall", got)
	}

	ch := RespondBass
	el.Customization.ResponseTo = &ch
	if got := el.ResponseChannelOrDefault(); got != RespondBass {
		t.Errorf("channel = %q, want bass", got)
	}
}

func TestBeatInfoBandStrengthNilSafe(t *testing.T) {
	var b *BeatInfo
	if got := b.BandStrength(BandBass); got != 0 {
		t.Errorf("nil BeatInfo strength = %v, want 0", got)
	}

	info := &BeatInfo{BandStrengths: map[Band]float64{BandMid: 0.4}}
	if got := info.BandStrength(BandMid); got != 0.4 {
		t.Errorf("strength = %v, want 0.4", got)
	}
	if got := info.BandStrength(BandTreble); got != 0 {
		t.Errorf("missing band strength = %v, want 0", got)
	}
}
