package analysis

import (
	"sync"

	"VizFM/logger"
)

// PCMStream 可被录制层 tap 的已处理音频流。
// 引擎在每个 tick 把"当前可听见"的采样（已应用音量/静音）推入流中，
// 订阅者通过带缓冲的 channel 接收，消费过慢时丢弃最旧数据而不是阻塞分析链。
type PCMStream struct {
	SampleRate int

	mu     sync.Mutex
	subs   map[int]chan []float64
	nextID int
	closed bool
}

// newPCMStream 创建处理流
func newPCMStream(sampleRate int) *PCMStream {
	return &PCMStream{
		SampleRate: sampleRate,
		subs:       make(map[int]chan []float64),
	}
}

// Subscribe 注册一个订阅者，返回接收 channel 和取消函数。
func (s *PCMStream) Subscribe(buffer int) (<-chan []float64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan []float64, buffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// publish 向所有订阅者推送一段采样。订阅者 channel 满时丢最旧的一段。
func (s *PCMStream) publish(samples []float64) {
	if len(samples) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	for id, ch := range s.subs {
		// 每个订阅者拿到独立副本，流缓冲会被引擎复用
		chunk := make([]float64, len(samples))
		copy(chunk, samples)

		select {
		case ch <- chunk:
		default:
			// 背压：丢弃最旧的分块，为新数据腾位
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- chunk:
			default:
				logger.Debug("PCM订阅者缓冲已满，丢弃分块", logger.Int("subscriber", id))
			}
		}
	}
}

// close 关闭流并通知所有订阅者
func (s *PCMStream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}
