package analysis

import (
	"testing"

	"VizFM/config"
	"VizFM/model"
)

func detectorConfig() *config.Config {
	return &config.Config{
		SampleRate:     44100,
		FFTSize:        2048,
		PeakDecay:      0.995,
		BeatThreshold:  1.3,
		BeatRefractory: 0.18,
		EnvelopeLength: 43,
	}
}

// flatMags 返回全部 bin 为 v 的幅度数组
func flatMags(v byte, n int) []byte {
	mags := make([]byte, n)
	for i := range mags {
		mags[i] = v
	}
	return mags
}

func TestDetectorBandStrengthsRange(t *testing.T) {
	d := NewDetector(detectorConfig())

	mags := make([]byte, 64)
	for i := range mags {
		mags[i] = byte(i * 4)
	}
	info := d.Process(mags, 0)

	wantBands := []model.Band{
		model.BandBass, model.BandLowMid, model.BandMid,
		model.BandHighMid, model.BandTreble,
	}
	if len(info.BandStrengths) != len(wantBands) {
		t.Fatalf("BandStrengths has %d entries, want %d", len(info.BandStrengths), len(wantBands))
	}
	for _, b := range wantBands {
		v, ok := info.BandStrengths[b]
		if !ok {
			t.Errorf("band %q missing", b)
			continue
		}
		if v < 0 || v > 1 {
			t.Errorf("band %q strength = %v, want in [0,1]", b, v)
		}
	}
	if info.Strength < 0 || info.Strength > 1 {
		t.Errorf("overall Strength = %v, want in [0,1]", info.Strength)
	}
}

func TestDetectorEmptyInput(t *testing.T) {
	d := NewDetector(detectorConfig())
	info := d.Process(nil, 0)
	if info.IsBeat {
		t.Error("empty input produced a beat")
	}
	if info.Strength != 0 {
		t.Errorf("Strength = %v, want 0", info.Strength)
	}
}

func TestDetectorSilenceNeverFires(t *testing.T) {
	d := NewDetector(detectorConfig())
	for i := 0; i < 100; i++ {
		info := d.Process(flatMags(0, 64), float64(i)*0.01)
		if info.IsBeat {
			t.Fatalf("silence fired a beat at tick %d", i)
		}
	}
}

// onsetWarmup 先用一个响帧建立峰值，再用安静帧把包络基线压低，
// 返回最后使用的时间戳。
func onsetWarmup(d *Detector, t0 float64) float64 {
	t := t0
	d.Process(flatMags(200, 64), t)
	for i := 0; i < 20; i++ {
		t += 0.01
		d.Process(flatMags(40, 64), t)
	}
	return t
}

func TestDetectorFiresOnOnset(t *testing.T) {
	d := NewDetector(detectorConfig())
	last := onsetWarmup(d, 0)

	info := d.Process(flatMags(200, 64), last+0.01)
	if !info.IsBeat {
		t.Fatal("loud onset after quiet stretch did not fire a beat")
	}
	if info.Strength <= 0.9 {
		t.Errorf("onset Strength = %v, want near 1", info.Strength)
	}
}

func TestDetectorRefractory(t *testing.T) {
	d := NewDetector(detectorConfig())
	last := onsetWarmup(d, 0)

	beatAt := last + 0.01
	if !d.Process(flatMags(200, 64), beatAt).IsBeat {
		t.Fatal("warmup onset did not fire")
	}

	// 抑制间隔内的等响帧不触发
	if d.Process(flatMags(200, 64), beatAt+0.05).IsBeat {
		t.Error("beat fired inside refractory interval")
	}

	// 间隔过后再次安静+响帧，允许再次触发
	tt := beatAt + 0.05
	for i := 0; i < 20; i++ {
		tt += 0.02
		d.Process(flatMags(40, 64), tt)
	}
	if !d.Process(flatMags(200, 64), tt+0.02).IsBeat {
		t.Error("beat did not fire after refractory interval elapsed")
	}
}

func TestDetectorSeekBackwardUnblocks(t *testing.T) {
	d := NewDetector(detectorConfig())
	last := onsetWarmup(d, 10)

	beatAt := last + 0.01
	if !d.Process(flatMags(200, 64), beatAt).IsBeat {
		t.Fatal("warmup onset did not fire")
	}

	// seek 回到更早的时间：抑制锚点必须跟着回退，否则检测会卡死
	tt := 1.0
	for i := 0; i < 20; i++ {
		tt += 0.02
		d.Process(flatMags(40, 64), tt)
	}
	if !d.Process(flatMags(200, 64), tt+0.02).IsBeat {
		t.Error("beat did not fire after seeking backwards past the last beat")
	}
}

func TestDetectorReset(t *testing.T) {
	d := NewDetector(detectorConfig())
	onsetWarmup(d, 0)
	d.Reset()

	// 重置后第一帧的基线为空，不应触发
	info := d.Process(flatMags(200, 64), 0)
	if info.IsBeat {
		t.Error("beat fired on the first frame after Reset")
	}
}
