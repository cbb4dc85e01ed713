package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"VizFM/config"
	"VizFM/core/analysis"
	"VizFM/core/scene"
	"VizFM/logger"
	"VizFM/model"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

var (
	// ErrCaptureUnavailable 渲染表面缺失/已销毁，无法开始录制
	ErrCaptureUnavailable = errors.New("capture unavailable: render surface missing")
	// ErrAlreadyRecording 已在录制中，重复 Start 被拒绝且不影响进行中的缓冲
	ErrAlreadyRecording = errors.New("already recording")
	// ErrEncoder 编码过程出错，已缓冲的分块仍会随产物返回
	ErrEncoder = errors.New("encoder failure")
)

// chunk 一个已落盘的编码分块
type chunk struct {
	name string
	data []byte
}

// Session 录制会话：并发捕获渲染表面与已处理音频流，
// 编码为分块后在 Stop 时按到达顺序拼接成单个媒体产物。
//
// 分块经由 fsnotify 监听编码器落盘事件异步收集（队列消费模型），
// Stop 是"通知收尾，等队列排空并关闭"，不是同步拼接。
type Session struct {
	cfg        *config.Config
	newEncoder encoderFactory

	mu        sync.Mutex
	recording bool
	startedAt time.Time
	hasAudio  bool
	tempDir   string
	enc       encoderHandle
	chunks    []chunk
	processed map[string]bool

	stopFeed    chan struct{}
	feedDone    chan struct{}
	watcherDone chan struct{}
	audioCancel func()
	watcher     *fsnotify.Watcher
	encErr      error
}

// NewSession 创建录制会话
func NewSession(cfg *config.Config) *Session {
	return &Session{
		cfg:        cfg,
		newEncoder: newFFmpegEncoder,
	}
}

// Start 开始录制。
// 表面缺失返回 ErrCaptureUnavailable；重复调用返回 ErrAlreadyRecording，
// 进行中的缓冲不受影响；stream 为 nil 时仅录视频，不算错误。
func (s *Session) Start(surface *scene.Surface, stream *analysis.PCMStream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if surface == nil || surface.Destroyed() {
		return ErrCaptureUnavailable
	}
	if s.recording {
		return ErrAlreadyRecording
	}

	width := surface.Width()
	height := surface.Height()
	if width <= 0 || height <= 0 {
		return ErrCaptureUnavailable
	}

	tempDir := filepath.Join(s.cfg.CaptureDir, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return fmt.Errorf("创建分块目录失败: %w", err)
	}

	hasAudio := stream != nil
	sampleRate := 0
	if hasAudio {
		sampleRate = stream.SampleRate
	}

	enc, err := s.newEncoder(encoderOptions{
		FFmpegPath: s.cfg.FFmpegPath,
		Dir:        tempDir,
		Width:      width,
		Height:     height,
		FrameRate:  s.cfg.CaptureFrameRate,
		ChunkSecs:  s.cfg.CaptureChunkSecs,
		SampleRate: sampleRate,
		HasAudio:   hasAudio,
	})
	if err != nil {
		os.RemoveAll(tempDir)
		return fmt.Errorf("%w: %v", ErrEncoder, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		enc.Finalize()
		os.RemoveAll(tempDir)
		return fmt.Errorf("创建分块监听器失败: %w", err)
	}
	if err := watcher.Add(tempDir); err != nil {
		watcher.Close()
		enc.Finalize()
		os.RemoveAll(tempDir)
		return fmt.Errorf("监听分块目录失败: %w", err)
	}

	s.recording = true
	s.startedAt = time.Now()
	s.hasAudio = hasAudio
	s.tempDir = tempDir
	s.enc = enc
	s.chunks = nil
	s.processed = make(map[string]bool)
	s.encErr = nil
	s.watcher = watcher
	s.stopFeed = make(chan struct{})
	s.feedDone = make(chan struct{})
	s.watcherDone = make(chan struct{})

	go s.watchChunks(watcher, s.watcherDone)
	go s.feedFrames(surface, enc, s.stopFeed, s.feedDone)

	if hasAudio {
		ch, cancel := stream.Subscribe(256)
		s.audioCancel = cancel
		go s.feedAudio(enc, ch)
	}

	logger.Info("录制开始",
		logger.String("dir", tempDir),
		logger.Bool("hasAudio", hasAudio))

	return nil
}

// Recording 是否在录制中
func (s *Session) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// ChunkCount 已收集的分块数
func (s *Session) ChunkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

// feedFrames 按帧率从表面抓帧写给编码器。
// 首帧立即写入，之后按 ticker 节奏；表面中途销毁时提前收手，
// 已缓冲的分块仍会在 Stop 时返回。
func (s *Session) feedFrames(surface *scene.Surface, enc encoderHandle, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := time.Second / time.Duration(s.cfg.CaptureFrameRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	write := func() bool {
		frame, _, _ := surface.Frame()
		if frame == nil {
			// 表面已销毁：安全失败，停止供帧
			s.mu.Lock()
			if s.encErr == nil {
				s.encErr = ErrCaptureUnavailable
			}
			s.mu.Unlock()
			return false
		}
		if err := enc.WriteFrame(frame); err != nil {
			s.mu.Lock()
			if s.encErr == nil {
				s.encErr = fmt.Errorf("%w: %v", ErrEncoder, err)
			}
			s.mu.Unlock()
			return false
		}
		return true
	}

	if !write() {
		return
	}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !write() {
				return
			}
		}
	}
}

// feedAudio 把处理流的 PCM 转成 s16le 写给编码器。
func (s *Session) feedAudio(enc encoderHandle, ch <-chan []float64) {
	buf := make([]byte, 0, 8192)
	for samples := range ch {
		buf = buf[:0]
		for _, v := range samples {
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			i := int16(v * 32767)
			buf = append(buf, byte(i), byte(i>>8))
		}
		if err := enc.WriteAudio(buf); err != nil {
			s.mu.Lock()
			if s.encErr == nil {
				s.encErr = fmt.Errorf("%w: %v", ErrEncoder, err)
			}
			s.mu.Unlock()
			return
		}
	}
}

// watchChunks 监听编码器落盘的分块文件。
// 文件在短暂稳定（大小不再变化）后按到达顺序收进缓冲。
func (s *Session) watchChunks(watcher *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)

	pending := make(map[string]time.Time)
	checkTicker := time.NewTicker(50 * time.Millisecond)
	defer checkTicker.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && strings.HasSuffix(event.Name, ".ts") {
				pending[event.Name] = time.Now()
			}

		case <-checkTicker.C:
			now := time.Now()
			for path, last := range pending {
				if now.Sub(last) < 100*time.Millisecond {
					continue // 可能还在写入
				}
				delete(pending, path)
				s.collectChunk(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("分块监听错误", logger.ErrorField(err))
		}
	}
}

// collectChunk 读取一个分块文件并追加到缓冲（去重）。
func (s *Session) collectChunk(path string) {
	name := filepath.Base(path)

	s.mu.Lock()
	if s.processed[name] {
		s.mu.Unlock()
		return
	}
	s.processed[name] = true
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		s.mu.Lock()
		delete(s.processed, name)
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.chunks = append(s.chunks, chunk{name: name, data: data})
	s.mu.Unlock()

	logger.Debug("收集到编码分块",
		logger.String("chunk", name),
		logger.Int("size", len(data)))
}

// Stop 结束录制：通知编码器收尾，排空分块队列，按序拼接返回产物。
// 未在录制时是 no-op，返回空产物；编码出错时仍返回已缓冲的分块。
func (s *Session) Stop() (*model.CaptureArtifact, error) {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return &model.CaptureArtifact{}, nil
	}
	s.recording = false
	stopFeed := s.stopFeed
	feedDone := s.feedDone
	watcherDone := s.watcherDone
	watcher := s.watcher
	audioCancel := s.audioCancel
	enc := s.enc
	tempDir := s.tempDir
	startedAt := s.startedAt
	hasAudio := s.hasAudio
	s.mu.Unlock()

	// 停止供帧/供音，关闭编码器输入并等待收尾
	close(stopFeed)
	<-feedDone
	if audioCancel != nil {
		audioCancel()
	}
	finalizeErr := enc.Finalize()

	// 给监听器一点时间处理最后的落盘事件，再做最终扫描兜底
	time.Sleep(200 * time.Millisecond)
	watcher.Close()
	<-watcherDone
	s.collectRemaining(tempDir)

	s.mu.Lock()
	// 按分块序号拼接（编码器按序命名，扫描兜底可能乱序加入）
	sort.Slice(s.chunks, func(i, j int) bool { return s.chunks[i].name < s.chunks[j].name })
	var total int
	for _, c := range s.chunks {
		total += len(c.data)
	}
	blob := make([]byte, 0, total)
	for _, c := range s.chunks {
		blob = append(blob, c.data...)
	}
	encErr := s.encErr
	s.chunks = nil
	s.processed = nil
	s.enc = nil
	s.audioCancel = nil
	s.mu.Unlock()

	os.RemoveAll(tempDir)

	mime := `video/MP2T;codecs="h264"`
	if hasAudio {
		mime = `video/MP2T;codecs="h264,aac"`
	}
	artifact := &model.CaptureArtifact{
		Blob:         blob,
		MimeType:     mime,
		DurationHint: time.Since(startedAt).Seconds(),
	}

	var err error
	switch {
	case encErr != nil:
		err = encErr
	case finalizeErr != nil:
		err = fmt.Errorf("%w: %v", ErrEncoder, finalizeErr)
	}

	logger.Info("录制结束",
		logger.Int("bytes", len(blob)),
		logger.Float64("duration", artifact.DurationHint),
		logger.Bool("hasAudio", hasAudio))

	return artifact, err
}

// collectRemaining 最终扫描目录，兜底收集监听器可能遗漏的分块。
func (s *Session) collectRemaining(dir string) {
	files, err := filepath.Glob(filepath.Join(dir, "*.ts"))
	if err != nil {
		return
	}
	sort.Strings(files)
	for _, f := range files {
		s.collectChunk(f)
	}
}
