package session

import (
	"fmt"
	"sync"

	"VizFM/config"
	"VizFM/core/analysis"
	"VizFM/core/capture"
	"VizFM/core/lyrics"
	"VizFM/core/scene"
	"VizFM/core/vis"
	"VizFM/logger"
	"VizFM/model"

	"github.com/google/uuid"
)

// Session 一次可视化会话：一条音轨、一个场景、可选歌词和至多一个进行中的录制。
// 所有部件显式构造、显式持有，Close 按依赖逆序拆除；没有环境单例，
// 多个会话（以及测试）可以并行存在。
type Session struct {
	ID string

	Engine    *analysis.Engine
	Registry  *vis.Registry
	Director  *scene.Director
	Lyrics    *lyrics.Synchronizer
	Capture   *capture.Session
	Scheduler *scene.Scheduler

	mu     sync.Mutex
	closed bool
}

// New 构造一个会话及其全部部件
func New(cfg *config.Config, width, height int) *Session {
	engine := analysis.NewEngine(cfg)
	registry := vis.NewRegistry()
	director := scene.NewDirector(engine, registry, scene.NewSurface(width, height))

	return &Session{
		ID:        uuid.NewString(),
		Engine:    engine,
		Registry:  registry,
		Director:  director,
		Lyrics:    lyrics.NewSynchronizer(),
		Capture:   capture.NewSession(cfg),
		Scheduler: scene.NewScheduler(cfg.CaptureFrameRate),
	}
}

// step 单帧推进：分析 tick 严格先于场景消费（Director.Step 内部保证），
// 歌词只依赖播放时间，仅在播放中更新。
func (s *Session) step(dt float64) {
	s.Director.Step(dt)
	if s.Engine.Playing() {
		s.Lyrics.Update(s.Engine.Position())
	}
}

// StartLoop 启动帧循环
func (s *Session) StartLoop() {
	s.Scheduler.Start(s.step)
}

// StopLoop 停止帧循环。最后渲染的一帧保持可见。
func (s *Session) StopLoop() {
	s.Scheduler.Stop()
}

// StepOnce 手动推进一帧，供离线渲染和测试使用。
func (s *Session) StepOnce(dt float64) {
	s.step(dt)
}

// StartCapture 开始录制当前渲染表面和已处理音频流。
func (s *Session) StartCapture() error {
	return s.Capture.Start(s.Director.Surface(), s.Engine.ProcessedStream())
}

// StopCapture 结束录制并返回产物
func (s *Session) StopCapture() (*model.CaptureArtifact, error) {
	return s.Capture.Stop()
}

// Close 拆除会话：停循环、结束录制、关引擎、销毁场景。
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Scheduler.Stop()
	if s.Capture.Recording() {
		if _, err := s.Capture.Stop(); err != nil {
			logger.Warn("关闭会话时结束录制失败", logger.ErrorField(err))
		}
	}
	s.Engine.Close()
	s.Director.Teardown()
	s.Lyrics.Reset()
}

// Manager 会话管理器
type Manager struct {
	cfg *config.Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager 创建会话管理器
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Create 创建一个新会话并登记
func (m *Manager) Create(width, height int) *Session {
	if width <= 0 {
		width = 1280
	}
	if height <= 0 {
		height = 720
	}
	s := New(m.cfg, width, height)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	logger.Info("会话已创建",
		logger.String("sessionId", s.ID),
		logger.Int("width", width),
		logger.Int("height", height))
	return s
}

// Get 按 ID 查找会话
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return s, nil
}

// Remove 关闭并移除会话
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// CloseAll 关闭全部会话（进程退出时调用）
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}
