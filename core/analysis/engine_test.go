package analysis

import (
	"math"
	"testing"
	"time"
)

// fakeClock 虚拟时钟，测试里手动推进
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestEngine() (*Engine, *fakeClock) {
	e := NewEngine(detectorConfig())
	clk := newFakeClock()
	e.SetClock(clk.now)
	return e, clk
}

// rampSamples 生成 n 个线性递增采样，值可反推出下标
func rampSamples(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i) * 1e-6
	}
	return s
}

func TestEngineTickWithoutSource(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()

	frame, beat := e.Tick()
	if frame.Position != 0 {
		t.Errorf("Position = %v, want 0", frame.Position)
	}
	for i, m := range frame.FrequencyMagnitudes {
		if m != 0 {
			t.Fatalf("FrequencyMagnitudes[%d] = %d, want 0", i, m)
		}
	}
	if beat.IsBeat || beat.Strength != 0 {
		t.Errorf("beat = %+v, want silent", beat)
	}
	if e.Duration() != 0 {
		t.Errorf("Duration = %v, want 0", e.Duration())
	}
}

func TestEnginePositionAdvances(t *testing.T) {
	e, clk := newTestEngine()
	defer e.Close()
	e.LoadSamples(rampSamples(44100*3), 44100)

	if e.Playing() {
		t.Fatal("engine playing right after load")
	}
	e.Play()
	clk.advance(500 * time.Millisecond)
	if got := e.Position(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Position = %v, want 0.5", got)
	}

	// 倍速播放
	e.SetRate(2.0)
	clk.advance(500 * time.Millisecond)
	if got := e.Position(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("Position after 0.5s at 2x = %v, want 1.5", got)
	}

	e.Pause()
	clk.advance(time.Second)
	if got := e.Position(); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("Position advanced while paused: %v", got)
	}
}

func TestEngineStopsAtEndOfTrack(t *testing.T) {
	e, clk := newTestEngine()
	defer e.Close()
	e.LoadSamples(rampSamples(44100), 44100) // 1秒音轨

	e.Play()
	clk.advance(5 * time.Second)
	if got := e.Position(); got != 1.0 {
		t.Errorf("Position = %v, want clamped to 1.0", got)
	}
	if e.Playing() {
		t.Error("engine still playing past end of track")
	}
}

func TestEngineSeekClamps(t *testing.T) {
	e, _ := newTestEngine()
	defer e.Close()
	e.LoadSamples(rampSamples(44100*2), 44100)

	e.Seek(-5)
	if got := e.Position(); got != 0 {
		t.Errorf("Position after Seek(-5) = %v, want 0", got)
	}
	e.Seek(100)
	if got := e.Position(); got != 2.0 {
		t.Errorf("Position after Seek(100) = %v, want 2.0", got)
	}
}

func TestEngineProcessedStreamFollowsPlayback(t *testing.T) {
	e, clk := newTestEngine()
	defer e.Close()
	e.LoadSamples(rampSamples(44100*3), 44100)

	stream := e.ProcessedStream()
	if stream == nil {
		t.Fatal("ProcessedStream = nil after load")
	}
	ch, cancel := stream.Subscribe(8)
	defer cancel()

	e.Play()
	clk.advance(100 * time.Millisecond)
	e.Tick()

	first := <-ch
	if len(first) != 4410 {
		t.Fatalf("first chunk length = %d, want 4410", len(first))
	}
	if first[0] != 0 {
		t.Errorf("first chunk starts at %v, want sample 0", first[0])
	}

	// seek 之后流游标必须对齐新位置，不得推送跳过的区间
	e.Seek(1.0)
	clk.advance(100 * time.Millisecond)
	e.Tick()

	second := <-ch
	want := float64(44100) * 1e-6
	if math.Abs(second[0]-want) > 1e-12 {
		t.Errorf("chunk after seek starts at %v, want %v (sample 44100)", second[0], want)
	}
}

func TestEngineVolumeAndMute(t *testing.T) {
	e, clk := newTestEngine()
	defer e.Close()

	samples := make([]float64, 44100)
	for i := range samples {
		samples[i] = 0.8
	}
	e.LoadSamples(samples, 44100)

	ch, cancel := e.ProcessedStream().Subscribe(8)
	defer cancel()

	e.SetVolume(0.5)
	e.Play()
	clk.advance(50 * time.Millisecond)
	e.Tick()
	chunk := <-ch
	if math.Abs(chunk[0]-0.4) > 1e-9 {
		t.Errorf("sample at volume 0.5 = %v, want 0.4", chunk[0])
	}

	e.SetMuted(true)
	clk.advance(50 * time.Millisecond)
	e.Tick()
	chunk = <-ch
	if chunk[0] != 0 {
		t.Errorf("sample while muted = %v, want 0", chunk[0])
	}
}

func TestEngineSpectrumPeakAtToneBin(t *testing.T) {
	e, clk := newTestEngine()
	defer e.Close()

	const (
		sr      = 44100
		fftSize = 2048
		bin     = 100
	)
	freq := float64(bin) * sr / fftSize
	samples := make([]float64, sr*2)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * freq * float64(i) / sr)
	}
	e.LoadSamples(samples, sr)

	e.Play()
	clk.advance(500 * time.Millisecond)
	frame, _ := e.Tick()

	maxBin, maxVal := 0, byte(0)
	for k, v := range frame.FrequencyMagnitudes {
		if v > maxVal {
			maxBin, maxVal = k, v
		}
	}
	if maxBin < bin-1 || maxBin > bin+1 {
		t.Errorf("spectrum peak at bin %d, want %d±1", maxBin, bin)
	}
	if maxVal < 100 {
		t.Errorf("peak magnitude = %d, want a strong tone response", maxVal)
	}
}

func TestEngineCloseShutsStream(t *testing.T) {
	e, _ := newTestEngine()
	e.LoadSamples(rampSamples(1000), 44100)

	ch, _ := e.ProcessedStream().Subscribe(4)
	e.Close()

	if _, ok := <-ch; ok {
		t.Error("subscriber channel still open after Close")
	}
	if e.ProcessedStream() != nil {
		t.Error("ProcessedStream != nil after Close")
	}
}
