package lyrics

import (
	"sync"

	"VizFM/model"
)

// Synchronizer 把播放时间映射为当前行/词状态。
// 只依赖播放时间，与音频分析链完全独立，可以按不同节奏调用。
type Synchronizer struct {
	mu    sync.Mutex
	doc   *model.LyricsDocument
	state model.LyricsState

	subs   map[int]func(model.LyricsState)
	nextID int
}

// NewSynchronizer 创建歌词同步器
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		state: inactiveState(),
		subs:  make(map[int]func(model.LyricsState)),
	}
}

func inactiveState() model.LyricsState {
	return model.LyricsState{
		CurrentLineIndex: -1,
		CurrentWordIndex: -1,
	}
}

// Load 替换当前文档并把状态重置为未激活。
func (s *Synchronizer) Load(doc *model.LyricsDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.state = inactiveState()
}

// Reset 清空文档与状态（当前音轨没有歌词时调用）。
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = nil
	s.state = inactiveState()
}

// State 当前状态快照
func (s *Synchronizer) State() model.LyricsState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe 注册状态变化回调，返回取消函数。
// 回调在 Update 内同步触发，只在行/词索引变化时调用。
func (s *Synchronizer) Subscribe(fn func(model.LyricsState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Update 按播放时间重新计算状态。
// 每次都从头查找段落，天然容忍时间回退（seek），不假设时间单调。
func (s *Synchronizer) Update(currentTime float64) model.LyricsState {
	s.mu.Lock()

	next := inactiveState()
	if s.doc != nil {
		segIdx := -1
		for i := range s.doc.Segments {
			seg := &s.doc.Segments[i]
			if currentTime >= seg.StartTime && currentTime < seg.EndTime {
				segIdx = i
				break
			}
		}

		if segIdx >= 0 {
			seg := &s.doc.Segments[segIdx]
			next.IsActive = true
			next.CurrentLineIndex = segIdx
			next.CurrentLine = seg.Text
			if span := seg.EndTime - seg.StartTime; span > 0 {
				next.Progress = (currentTime - seg.StartTime) / span
			}
			for i := range seg.Words {
				w := &seg.Words[i]
				if currentTime >= w.StartTime && currentTime < w.EndTime {
					next.CurrentWordIndex = i
					break
				}
			}
		}
	}

	changed := next.CurrentLineIndex != s.state.CurrentLineIndex ||
		next.CurrentWordIndex != s.state.CurrentWordIndex
	s.state = next

	var fns []func(model.LyricsState)
	if changed {
		fns = make([]func(model.LyricsState), 0, len(s.subs))
		for _, fn := range s.subs {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	// 锁外同步通知，避免回调里再进同步器时死锁
	for _, fn := range fns {
		fn(next)
	}
	return next
}

// UpcomingLines 相对当前段落返回接下来 n 行文本，越界自动截断。
func (s *Synchronizer) UpcomingLines(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesAround(s.state.CurrentLineIndex+1, n, +1)
}

// PreviousLines 相对当前段落返回之前 n 行文本（由近及远），越界自动截断。
func (s *Synchronizer) PreviousLines(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesAround(s.state.CurrentLineIndex-1, n, -1)
}

func (s *Synchronizer) linesAround(start, n, step int) []string {
	if s.doc == nil || n <= 0 {
		return nil
	}
	var out []string
	for i := start; len(out) < n && i >= 0 && i < len(s.doc.Segments); i += step {
		out = append(out, s.doc.Segments[i].Text)
	}
	return out
}
