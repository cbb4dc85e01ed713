package session

import (
	"testing"

	"VizFM/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		SampleRate:     44100,
		FFTSize:        2048,
		PeakDecay:      0.995,
		BeatThreshold:  1.3,
		BeatRefractory: 0.18,
		EnvelopeLength: 43,
		CaptureDir:     t.TempDir(),
		CaptureFrameRate: 30,
		CaptureChunkSecs: "1",
	}
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(testConfig(t))

	s := m.Create(320, 240)
	if s.ID == "" {
		t.Fatal("session has empty ID")
	}
	if s.Director.Width() != 320 || s.Director.Height() != 240 {
		t.Errorf("surface = %dx%d, want 320x240", s.Director.Width(), s.Director.Height())
	}

	got, err := m.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get(%q) = %v, %v", s.ID, got, err)
	}

	m.Remove(s.ID)
	if _, err := m.Get(s.ID); err == nil {
		t.Error("Get succeeded after Remove")
	}
	// 移除后会话已关闭，重复 Close 是 no-op
	s.Close()
}

func TestManagerDefaultDimensions(t *testing.T) {
	m := NewManager(testConfig(t))
	defer m.CloseAll()

	s := m.Create(0, -10)
	if s.Director.Width() != 1280 || s.Director.Height() != 720 {
		t.Errorf("default surface = %dx%d, want 1280x720", s.Director.Width(), s.Director.Height())
	}
}

func TestSessionStepOnceAdvancesScene(t *testing.T) {
	m := NewManager(testConfig(t))
	defer m.CloseAll()

	s := m.Create(160, 120)
	s.StepOnce(0.25)
	s.StepOnce(0.25)
	if got := s.Director.Elapsed(); got != 0.5 {
		t.Errorf("elapsed after two manual steps = %v, want 0.5", got)
	}
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager(testConfig(t))
	a := m.Create(160, 120)
	b := m.Create(160, 120)

	m.CloseAll()
	if _, err := m.Get(a.ID); err == nil {
		t.Error("session a still registered after CloseAll")
	}
	if _, err := m.Get(b.ID); err == nil {
		t.Error("session b still registered after CloseAll")
	}
	if !a.Director.Surface().Destroyed() {
		t.Error("session surface not destroyed by CloseAll")
	}
}
