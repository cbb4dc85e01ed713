package capture

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"VizFM/config"
	"VizFM/core/analysis"
	"VizFM/core/scene"
)

// stubEncoder 不起进程的编码器桩：首帧和收尾时各落盘一个分块
type stubEncoder struct {
	opts encoderOptions

	mu         sync.Mutex
	frames     int
	audioBytes int
	failWrite  bool
}

func (e *stubEncoder) WriteFrame(rgba []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failWrite {
		return errors.New("stub write failure")
	}
	e.frames++
	if e.frames == 1 {
		return os.WriteFile(filepath.Join(e.opts.Dir, "chunk_00000.ts"), []byte("first-chunk;"), 0644)
	}
	return nil
}

func (e *stubEncoder) WriteAudio(pcm []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.audioBytes += len(pcm)
	return nil
}

func (e *stubEncoder) Finalize() error {
	return os.WriteFile(filepath.Join(e.opts.Dir, "chunk_00001.ts"), []byte("final-chunk"), 0644)
}

func (e *stubEncoder) frameCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

func (e *stubEncoder) audioByteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.audioBytes
}

func newTestSession(t *testing.T) (*Session, *stubEncoder) {
	t.Helper()
	cfg := &config.Config{
		CaptureDir:       t.TempDir(),
		CaptureFrameRate: 30,
		CaptureChunkSecs: "1",
	}
	s := NewSession(cfg)
	enc := &stubEncoder{}
	s.newEncoder = func(opts encoderOptions) (encoderHandle, error) {
		enc.opts = opts
		return enc, nil
	}
	return s, enc
}

func TestCaptureVideoOnly(t *testing.T) {
	s, enc := newTestSession(t)
	surface := scene.NewSurface(64, 48)

	if err := s.Start(surface, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !s.Recording() {
		t.Fatal("Recording() = false after Start")
	}

	time.Sleep(150 * time.Millisecond)
	artifact, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if artifact.Empty() {
		t.Fatal("video-only capture produced an empty artifact")
	}
	if string(artifact.Blob) != "first-chunk;final-chunk" {
		t.Errorf("blob = %q, want chunks concatenated in order", artifact.Blob)
	}
	if strings.Contains(artifact.MimeType, "aac") {
		t.Errorf("mime = %q, want video-only codecs", artifact.MimeType)
	}
	if !strings.Contains(artifact.MimeType, "MP2T") {
		t.Errorf("mime = %q, want an MP2T container", artifact.MimeType)
	}
	if artifact.DurationHint <= 0 {
		t.Errorf("DurationHint = %v, want > 0", artifact.DurationHint)
	}
	if enc.frameCount() == 0 {
		t.Error("encoder never received a frame")
	}
	if enc.opts.HasAudio {
		t.Error("encoder options claim audio for a video-only capture")
	}
	if s.Recording() {
		t.Error("Recording() = true after Stop")
	}
}

func TestCaptureWithAudioStream(t *testing.T) {
	s, enc := newTestSession(t)
	surface := scene.NewSurface(64, 48)

	engine := analysis.NewEngine(&config.Config{
		SampleRate: 44100, FFTSize: 2048,
		PeakDecay: 0.995, BeatThreshold: 1.3,
		BeatRefractory: 0.18, EnvelopeLength: 43,
	})
	defer engine.Close()
	clk := time.Unix(0, 0)
	engine.SetClock(func() time.Time { return clk })
	engine.LoadSamples(make([]float64, 44100), 44100)

	if err := s.Start(surface, engine.ProcessedStream()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	engine.Play()
	clk = clk.Add(100 * time.Millisecond)
	engine.Tick() // 推送一段已处理音频
	time.Sleep(100 * time.Millisecond)

	artifact, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if !strings.Contains(artifact.MimeType, "aac") {
		t.Errorf("mime = %q, want audio codec present", artifact.MimeType)
	}
	if enc.audioByteCount() == 0 {
		t.Error("encoder never received audio")
	}
	if !enc.opts.HasAudio || enc.opts.SampleRate != 44100 {
		t.Errorf("encoder options = %+v, want audio at 44100", enc.opts)
	}
}

func TestCaptureDoubleStart(t *testing.T) {
	s, _ := newTestSession(t)
	surface := scene.NewSurface(64, 48)

	if err := s.Start(surface, nil); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	// 第二次 Start 被拒绝，且不影响进行中的缓冲
	if err := s.Start(surface, nil); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("second Start error = %v, want ErrAlreadyRecording", err)
	}
	if !s.Recording() {
		t.Fatal("rejected Start interrupted the active recording")
	}

	artifact, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if artifact.Empty() {
		t.Error("artifact empty after rejected double start")
	}
}

func TestCaptureStopWhenIdle(t *testing.T) {
	s, _ := newTestSession(t)

	artifact, err := s.Stop()
	if err != nil {
		t.Fatalf("Stop on idle session returned error: %v", err)
	}
	if !artifact.Empty() {
		t.Errorf("idle Stop artifact = %d bytes, want empty", len(artifact.Blob))
	}
}

func TestCaptureUnavailableSurface(t *testing.T) {
	s, _ := newTestSession(t)

	if err := s.Start(nil, nil); !errors.Is(err, ErrCaptureUnavailable) {
		t.Errorf("Start(nil surface) error = %v, want ErrCaptureUnavailable", err)
	}

	surface := scene.NewSurface(64, 48)
	surface.Destroy()
	if err := s.Start(surface, nil); !errors.Is(err, ErrCaptureUnavailable) {
		t.Errorf("Start(destroyed surface) error = %v, want ErrCaptureUnavailable", err)
	}
}

func TestCaptureEncoderFailureStillReturnsChunks(t *testing.T) {
	s, enc := newTestSession(t)
	surface := scene.NewSurface(64, 48)

	if err := s.Start(surface, nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	enc.mu.Lock()
	enc.failWrite = true
	enc.mu.Unlock()
	time.Sleep(100 * time.Millisecond) // 等下一次供帧触发写入失败

	artifact, err := s.Stop()
	if !errors.Is(err, ErrEncoder) {
		t.Errorf("Stop error = %v, want ErrEncoder", err)
	}
	// 失败前已缓冲的分块仍随产物返回
	if artifact.Empty() {
		t.Error("artifact empty despite buffered chunks before the failure")
	}
}
