package model

// LyricsWord 单词级时间戳
type LyricsWord struct {
	Word       string  `json:"word"`
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Confidence float64 `json:"confidence,omitempty"`
}

// LyricsSegment 歌词行（段落）级时间戳，按时间递增且互不重叠。
type LyricsSegment struct {
	ID        int          `json:"id"`
	StartTime float64      `json:"startTime"`
	EndTime   float64      `json:"endTime"`
	Text      string       `json:"text"`
	Words     []LyricsWord `json:"words,omitempty"`
}

// LyricsDocument 一条音轨的完整歌词数据，加载后不可变，换曲时整体替换。
type LyricsDocument struct {
	Text     string          `json:"text"`
	Words    []LyricsWord    `json:"words"`
	Segments []LyricsSegment `json:"segments"`
}

// LyricsState 由播放时间推导出的当前行/词状态，每次 update 重新计算，不持久化。
type LyricsState struct {
	CurrentLineIndex int     `json:"currentLineIndex"`
	CurrentWordIndex int     `json:"currentWordIndex"`
	CurrentLine      string  `json:"currentLine"`
	Progress         float64 `json:"progress"`
	IsActive         bool    `json:"isActive"`
}
