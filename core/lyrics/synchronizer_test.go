package lyrics

import (
	"math"
	"testing"

	"VizFM/model"
)

func twoLineDoc() *model.LyricsDocument {
	return &model.LyricsDocument{
		Text: "hello world\nsecond line",
		Segments: []model.LyricsSegment{
			{
				ID: 0, StartTime: 1.0, EndTime: 3.0, Text: "hello world",
				Words: []model.LyricsWord{
					{Word: "hello", StartTime: 1.0, EndTime: 2.0},
					{Word: "world", StartTime: 2.0, EndTime: 3.0},
				},
			},
			{
				ID: 1, StartTime: 4.0, EndTime: 6.0, Text: "second line",
				Words: []model.LyricsWord{
					{Word: "second", StartTime: 4.0, EndTime: 5.0},
					{Word: "line", StartTime: 5.0, EndTime: 6.0},
				},
			},
		},
	}
}

func TestSynchronizerInactiveByDefault(t *testing.T) {
	s := NewSynchronizer()
	state := s.State()
	if state.IsActive || state.CurrentLineIndex != -1 || state.CurrentWordIndex != -1 {
		t.Errorf("initial state = %+v, want inactive with -1 indices", state)
	}
}

func TestSynchronizerTracksLineAndWord(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())

	state := s.Update(1.5)
	if !state.IsActive {
		t.Fatal("state inactive inside first segment")
	}
	if state.CurrentLineIndex != 0 || state.CurrentLine != "hello world" {
		t.Errorf("line = %d %q, want 0 \"hello world\"", state.CurrentLineIndex, state.CurrentLine)
	}
	if state.CurrentWordIndex != 0 {
		t.Errorf("word index = %d, want 0 (hello)", state.CurrentWordIndex)
	}
	if math.Abs(state.Progress-0.25) > 1e-9 {
		t.Errorf("progress = %v, want 0.25", state.Progress)
	}

	state = s.Update(2.5)
	if state.CurrentWordIndex != 1 {
		t.Errorf("word index at 2.5 = %d, want 1 (world)", state.CurrentWordIndex)
	}

	// 段落之间的间隙：无激活行
	state = s.Update(3.5)
	if state.IsActive {
		t.Errorf("state active in the gap between segments: %+v", state)
	}
}

func TestSynchronizerNotifiesOnlyOnChange(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())

	var calls int
	cancel := s.Subscribe(func(model.LyricsState) { calls++ })
	defer cancel()

	s.Update(1.5)
	if calls != 1 {
		t.Fatalf("calls after first update = %d, want 1", calls)
	}

	// 同一行同一词内的重复 update 不触发回调
	s.Update(1.6)
	s.Update(1.7)
	if calls != 1 {
		t.Errorf("calls after same-word updates = %d, want 1", calls)
	}

	s.Update(2.5) // 换词
	if calls != 2 {
		t.Errorf("calls after word change = %d, want 2", calls)
	}

	s.Update(4.5) // 换行
	if calls != 3 {
		t.Errorf("calls after line change = %d, want 3", calls)
	}
}

func TestSynchronizerSeekBackward(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())

	s.Update(5.5)
	state := s.Update(1.2) // 时间回退
	if state.CurrentLineIndex != 0 || state.CurrentWordIndex != 0 {
		t.Errorf("state after backward seek = %+v, want line 0 word 0", state)
	}
}

func TestSynchronizerContextLines(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())
	s.Update(4.5) // 第二行

	up := s.UpcomingLines(3)
	if len(up) != 0 {
		t.Errorf("UpcomingLines on last line = %v, want empty", up)
	}
	prev := s.PreviousLines(3)
	if len(prev) != 1 || prev[0] != "hello world" {
		t.Errorf("PreviousLines = %v, want [hello world]", prev)
	}

	s.Update(1.5) // 回到第一行
	up = s.UpcomingLines(5)
	if len(up) != 1 || up[0] != "second line" {
		t.Errorf("UpcomingLines = %v, want [second line]", up)
	}
}

func TestSynchronizerResetClearsDocument(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())
	s.Update(1.5)
	s.Reset()

	state := s.Update(1.5)
	if state.IsActive {
		t.Errorf("state active after Reset: %+v", state)
	}
	if lines := s.UpcomingLines(3); lines != nil {
		t.Errorf("UpcomingLines after Reset = %v, want nil", lines)
	}
}

func TestUnsubscribeStopsCallbacks(t *testing.T) {
	s := NewSynchronizer()
	s.Load(twoLineDoc())

	var calls int
	cancel := s.Subscribe(func(model.LyricsState) { calls++ })
	s.Update(1.5)
	cancel()
	s.Update(4.5)
	if calls != 1 {
		t.Errorf("calls after unsubscribe = %d, want 1", calls)
	}
}
