package analysis

import (
	"context"
	"math"
	"sync"
	"time"

	"VizFM/config"
	"VizFM/logger"
	"VizFM/model"

	"github.com/mjibson/go-dsp/fft"
)

// Engine 音频分析引擎。
// 持有当前音频源，负责播放进度推进，并在每个 tick 产出
// AudioFrame/BeatInfo 快照和可供录制 tap 的已处理 PCM 流。
//
// AudioFrame/BeatInfo 是单写多读快照：引擎每个 tick 原地覆盖，
// 消费者不得跨 tick 持有引用（需要时调用 Copy）。
type Engine struct {
	cfg *config.Config

	mu       sync.Mutex
	src      *TrackSource
	detector *Detector
	stream   *PCMStream

	playing    bool
	rate       float64
	volume     float64
	muted      bool
	anchorPos  float64   // anchorTime 时刻的播放位置（秒）
	anchorTime time.Time

	streamCursor int // 已推送到处理流的采样下标

	// tick 复用缓冲，避免每帧分配
	frame   model.AudioFrame
	beat    model.BeatInfo
	fftBuf  []float64
	window  []float64 // 预计算 Hann 窗

	// 可注入时钟，测试里用虚拟时间驱动
	now func() time.Time
}

// NewEngine 创建分析引擎
func NewEngine(cfg *config.Config) *Engine {
	e := &Engine{
		cfg:      cfg,
		detector: NewDetector(cfg),
		rate:     1.0,
		volume:   1.0,
		fftBuf:   make([]float64, cfg.FFTSize),
		window:   make([]float64, cfg.FFTSize),
		now:      time.Now,
	}
	for i := range e.window {
		e.window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(cfg.FFTSize-1)))
	}
	e.frame.FrequencyMagnitudes = make([]byte, cfg.FFTSize/2)
	e.frame.TimeDomainSamples = make([]float64, cfg.FFTSize)
	e.beat.BandStrengths = make(map[model.Band]float64)
	return e
}

// SetClock 替换引擎时钟，仅用于测试按虚拟时间驱动 tick。
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// LoadSource 加载并解码音频源。失败返回 false，引擎保持原状态。
func (e *Engine) LoadSource(ctx context.Context, url string) bool {
	src, err := decodeSource(ctx, e.cfg.FFmpegPath, url, e.cfg.SampleRate)
	if err != nil {
		logger.Error("加载音频源失败",
			logger.String("url", url),
			logger.ErrorField(err))
		return false
	}
	e.loadDecoded(src)
	return true
}

// loadDecoded 安装一条已解码音轨（测试可直接注入合成采样）
func (e *Engine) loadDecoded(src *TrackSource) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stream != nil {
		e.stream.close()
	}
	e.src = src
	e.stream = newPCMStream(src.SampleRate)
	e.playing = false
	e.anchorPos = 0
	e.anchorTime = e.now()
	e.streamCursor = 0
	e.detector.Reset()
}

// LoadSamples 直接安装合成 PCM 采样，绕过 ffmpeg 解码。
func (e *Engine) LoadSamples(samples []float64, sampleRate int) {
	e.loadDecoded(&TrackSource{SampleRate: sampleRate, Samples: samples})
}

// Play 开始/恢复播放
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil || e.playing {
		return
	}
	e.anchorPos = e.positionLocked()
	e.anchorTime = e.now()
	e.playing = true
}

// Pause 暂停播放
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.anchorPos = e.positionLocked()
	e.anchorTime = e.now()
	e.playing = false
}

// Seek 跳转到指定位置（秒）。
// 下一个 tick 反映新位置的音频，处理流游标一并对齐，不会推送旧缓冲。
func (e *Engine) Seek(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return
	}
	if t < 0 {
		t = 0
	}
	if max := e.src.Duration(); t > max {
		t = max
	}
	e.anchorPos = t
	e.anchorTime = e.now()
	e.streamCursor = int(t * float64(e.src.SampleRate))
}

// SetRate 设置播放速率
func (e *Engine) SetRate(rate float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rate <= 0 {
		return
	}
	e.anchorPos = e.positionLocked()
	e.anchorTime = e.now()
	e.rate = rate
}

// SetVolume 设置音量 [0,1]，作用于处理流。
func (e *Engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.volume = v
}

// SetMuted 静音开关
func (e *Engine) SetMuted(m bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.muted = m
}

// Playing 返回是否正在播放
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Position 当前播放位置（秒）
func (e *Engine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Duration 当前音轨时长，无音轨时为 0。
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.Duration()
}

// ProcessedStream 返回可 tap 的已处理音频流句柄，未加载音源时为 nil。
// 录制层拿到 nil 时按"仅视频"处理。
func (e *Engine) ProcessedStream() *PCMStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stream
}

// positionLocked 按锚点和时钟推算当前位置，到末尾自动停住。
func (e *Engine) positionLocked() float64 {
	if e.src == nil {
		return 0
	}
	pos := e.anchorPos
	if e.playing {
		pos += e.now().Sub(e.anchorTime).Seconds() * e.rate
	}
	if max := e.src.Duration(); pos >= max {
		pos = max
		if e.playing {
			e.playing = false
			e.anchorPos = max
			e.anchorTime = e.now()
		}
	}
	return pos
}

// Tick 产出当前位置的分析快照，由帧调度器每帧调用一次。
// 除检测器内部平滑状态外无副作用；无音源时返回空帧。
func (e *Engine) Tick() (*model.AudioFrame, *model.BeatInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.src == nil {
		clearFrame(&e.frame)
		e.beat.IsBeat = false
		e.beat.Strength = 0
		for k := range e.beat.BandStrengths {
			e.beat.BandStrengths[k] = 0
		}
		return &e.frame, &e.beat
	}

	pos := e.positionLocked()
	sr := float64(e.src.SampleRate)
	end := int(pos * sr)
	e.frame.Position = pos

	// 取窗口末端对齐当前位置的 FFTSize 个采样，前端不足补零
	fftSize := e.cfg.FFTSize
	for i := 0; i < fftSize; i++ {
		idx := end - fftSize + i
		var v float64
		if idx >= 0 && idx < len(e.src.Samples) {
			v = e.src.Samples[idx]
		}
		e.frame.TimeDomainSamples[i] = v
		e.fftBuf[i] = v * e.window[i]
	}

	spectrum := fft.FFTReal(e.fftBuf)
	for k := 0; k < fftSize/2; k++ {
		re := real(spectrum[k])
		im := imag(spectrum[k])
		amp := math.Sqrt(re*re+im*im) * 2 / float64(fftSize)
		v := amp * 512
		if v > 255 {
			v = 255
		}
		e.frame.FrequencyMagnitudes[k] = byte(v)
	}

	beat := e.detector.Process(e.frame.FrequencyMagnitudes, pos)
	e.beat.IsBeat = beat.IsBeat
	e.beat.Strength = beat.Strength
	for k, v := range beat.BandStrengths {
		e.beat.BandStrengths[k] = v
	}

	e.publishProcessed(end)

	return &e.frame, &e.beat
}

// publishProcessed 把自上个 tick 以来播放过的采样推入处理流（已应用音量/静音）。
func (e *Engine) publishProcessed(end int) {
	if e.stream == nil {
		return
	}
	if end > len(e.src.Samples) {
		end = len(e.src.Samples)
	}
	if end <= e.streamCursor {
		return
	}

	gain := e.volume
	if e.muted {
		gain = 0
	}
	chunk := make([]float64, end-e.streamCursor)
	for i := range chunk {
		chunk[i] = e.src.Samples[e.streamCursor+i] * gain
	}
	e.streamCursor = end
	e.stream.publish(chunk)
}

// Close 释放引擎资源，关闭处理流。
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	if e.stream != nil {
		e.stream.close()
		e.stream = nil
	}
	e.src = nil
}

func clearFrame(f *model.AudioFrame) {
	for i := range f.FrequencyMagnitudes {
		f.FrequencyMagnitudes[i] = 0
	}
	for i := range f.TimeDomainSamples {
		f.TimeDomainSamples[i] = 0
	}
	f.Position = 0
}
