package scene

import (
	"sync"
	"time"

	"VizFM/logger"
)

// Scheduler 帧调度器：把宿主的逐帧回调抽象成显式的 Start/Stop。
// 生产环境按固定帧率用 ticker 驱动，测试直接调用回调按 tick 推进。
type Scheduler struct {
	mu       sync.Mutex
	running  bool
	stop     chan struct{}
	interval time.Duration
}

// NewScheduler 创建调度器，fps <= 0 时按 30 帧处理。
func NewScheduler(fps int) *Scheduler {
	if fps <= 0 {
		fps = 30
	}
	return &Scheduler{interval: time.Second / time.Duration(fps)}
}

// Start 启动调度循环，step 以帧间隔（秒）为参数被循环调用。
// 已在运行时是 no-op。
func (s *Scheduler) Start(step func(dt float64)) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	stopCh := s.stop
	s.mu.Unlock()

	logger.Debug("帧调度器启动", logger.Duration("interval", s.interval))

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-stopCh:
				return
			case now := <-ticker.C:
				step(now.Sub(last).Seconds())
				last = now
			}
		}
	}()
}

// Stop 停止调度。最后一帧保持可见：只是不再调用 step，不清空任何状态。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
}

// Running 是否在运行
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
