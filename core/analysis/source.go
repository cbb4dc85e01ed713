package analysis

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"

	"VizFM/logger"
)

// TrackSource 一条已解码音轨的 PCM 数据。
// 解码一次后只读，播放/分析/录制共享同一份采样。
type TrackSource struct {
	URL        string
	SampleRate int
	Samples    []float64 // 单声道归一化采样，-1.0 ~ 1.0
}

// Duration 音轨时长（秒）
func (s *TrackSource) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// decodeSource 通过 ffmpeg 将音频 URL 解码为单声道 f32le PCM。
// ffmpeg 自行处理 http/本地文件输入，解码失败返回错误由调用方降级。
func decodeSource(ctx context.Context, ffmpegPath, url string, sampleRate int) (*TrackSource, error) {
	args := []string{
		"-v", "error",
		"-i", url,
		"-f", "f32le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	logger.Debug("开始解码音频源",
		logger.String("url", url),
		logger.Int("sampleRate", sampleRate))

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed for %s: %w\nFFmpeg Error: %s", url, err, stderr.String())
	}

	raw := out.Bytes()
	n := len(raw) / 4
	if n == 0 {
		return nil, fmt.Errorf("no audio data decoded from %s", url)
	}

	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		v := float64(math.Float32frombits(bits))
		// 防御异常解码值，避免 NaN 进入分析链
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		samples[i] = v
	}

	src := &TrackSource{
		URL:        url,
		SampleRate: sampleRate,
		Samples:    samples,
	}

	logger.Info("音频源解码完成",
		logger.String("url", url),
		logger.Int("samples", n),
		logger.Float64("duration", src.Duration()))

	return src, nil
}
