package analysis

import (
	"VizFM/config"
	"VizFM/model"
)

// bandSplit 按 bin 比例划分的频段边界。
// 具体比例属于经验调参，形状（五段连续划分）是契约。
type bandSplit struct {
	name model.Band
	lo   float64 // 起始 bin 比例 [0,1)
	hi   float64 // 结束 bin 比例 (0,1]
}

var defaultBands = []bandSplit{
	{model.BandBass, 0.00, 0.08},
	{model.BandLowMid, 0.08, 0.22},
	{model.BandMid, 0.22, 0.45},
	{model.BandHighMid, 0.45, 0.70},
	{model.BandTreble, 0.70, 1.00},
}

// Detector 在平滑归一化的能量包络上做上升沿检测。
// 每个频段维持一个带衰减的运行峰值用于自适应归一化；
// 整体能量超过短期均值的阈值倍数时触发节拍，之后在抑制间隔内不再触发。
type Detector struct {
	peakDecay  float64
	threshold  float64
	refractory float64 // 秒（音频时间）
	envLen     int

	peaks      map[model.Band]float64
	envelope   []float64 // 整体能量的短期历史环形缓冲
	envPos     int
	envFilled  int
	lastBeatAt float64
	hasBeat    bool
}

// NewDetector 按配置创建节拍检测器
func NewDetector(cfg *config.Config) *Detector {
	envLen := cfg.EnvelopeLength
	if envLen <= 0 {
		envLen = 43
	}
	return &Detector{
		peakDecay:  cfg.PeakDecay,
		threshold:  cfg.BeatThreshold,
		refractory: cfg.BeatRefractory,
		envLen:     envLen,
		peaks:      make(map[model.Band]float64),
		envelope:   make([]float64, envLen),
	}
}

// Process 处理一个 tick 的频率幅度数组，返回当前节拍信息。
// t 为音频时间（秒），seek 回退时抑制窗口随之回退，不会卡死检测。
func (d *Detector) Process(mags []byte, t float64) *model.BeatInfo {
	info := &model.BeatInfo{
		BandStrengths: make(map[model.Band]float64, len(defaultBands)),
	}
	if len(mags) == 0 {
		return info
	}

	// 按 bin 比例分段求均值，再用带衰减的运行峰值归一化到 [0,1]
	var overall float64
	for _, b := range defaultBands {
		lo := int(b.lo * float64(len(mags)))
		hi := int(b.hi * float64(len(mags)))
		if hi <= lo {
			hi = lo + 1
		}
		if hi > len(mags) {
			hi = len(mags)
		}

		var sum float64
		for i := lo; i < hi; i++ {
			sum += float64(mags[i])
		}
		mean := sum / float64(hi-lo)

		peak := d.peaks[b.name] * d.peakDecay
		if mean > peak {
			peak = mean
		}
		if peak < 1 {
			peak = 1 // 静音底噪，避免除零放大
		}
		d.peaks[b.name] = peak

		strength := mean / peak
		if strength > 1 {
			strength = 1
		}
		info.BandStrengths[b.name] = strength
		overall += strength
	}
	overall /= float64(len(defaultBands))
	info.Strength = overall

	// 短期均值作为包络基线
	avg := d.envelopeAverage()
	d.pushEnvelope(overall)

	// seek 回退时把抑制锚点拉回来
	if d.hasBeat && t < d.lastBeatAt {
		d.lastBeatAt = t - d.refractory
	}

	refractoryOver := !d.hasBeat || t-d.lastBeatAt >= d.refractory
	if refractoryOver && avg > 0 && overall > avg*d.threshold && overall > 0.15 {
		info.IsBeat = true
		d.lastBeatAt = t
		d.hasBeat = true
	}

	return info
}

// Reset 清空平滑状态（换曲时调用）
func (d *Detector) Reset() {
	d.peaks = make(map[model.Band]float64)
	d.envelope = make([]float64, d.envLen)
	d.envPos = 0
	d.envFilled = 0
	d.hasBeat = false
	d.lastBeatAt = 0
}

func (d *Detector) pushEnvelope(v float64) {
	d.envelope[d.envPos] = v
	d.envPos = (d.envPos + 1) % d.envLen
	if d.envFilled < d.envLen {
		d.envFilled++
	}
}

func (d *Detector) envelopeAverage() float64 {
	if d.envFilled == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < d.envFilled; i++ {
		sum += d.envelope[i]
	}
	return sum / float64(d.envFilled)
}
