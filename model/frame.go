package model

// Band 频段名称
type Band string

const (
	BandBass    Band = "bass"
	BandLowMid  Band = "lowMid"
	BandMid     Band = "mid"
	BandHighMid Band = "highMid"
	BandTreble  Band = "treble"
)

// AudioFrame 一次分析 tick 的音频快照。
// 引擎每个 tick 原地覆盖同一份缓冲，跨 tick 持有数据的消费者必须自行拷贝。
type AudioFrame struct {
	FrequencyMagnitudes []byte    `json:"-"` // 每个频率 bin 的幅度，0-255
	TimeDomainSamples   []float64 `json:"-"` // 归一化波形采样，-1.0 ~ 1.0
	Position            float64   `json:"position"` // 对应的播放位置（秒）
}

// Copy 返回独立副本，供需要跨 tick 持有快照的消费者使用。
func (f *AudioFrame) Copy() *AudioFrame {
	c := &AudioFrame{
		FrequencyMagnitudes: make([]byte, len(f.FrequencyMagnitudes)),
		TimeDomainSamples:   make([]float64, len(f.TimeDomainSamples)),
		Position:            f.Position,
	}
	copy(c.FrequencyMagnitudes, f.FrequencyMagnitudes)
	copy(c.TimeDomainSamples, f.TimeDomainSamples)
	return c
}

// BeatInfo 当前 tick 的节拍检测结果
type BeatInfo struct {
	IsBeat        bool             `json:"isBeat"`   // 瞬态起始标志，仅在触发 tick 为 true
	Strength      float64          `json:"strength"` // 整体归一化能量 [0,1]
	BandStrengths map[Band]float64 `json:"bandStrengths"`
}

// BandStrength 读取一个频段的归一化能量，缺失时返回 0。
func (b *BeatInfo) BandStrength(band Band) float64 {
	if b == nil || b.BandStrengths == nil {
		return 0
	}
	return b.BandStrengths[band]
}
