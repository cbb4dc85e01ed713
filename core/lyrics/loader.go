package lyrics

import (
	"encoding/json"
	"fmt"
	"sort"

	"VizFM/logger"
	"VizFM/model"
)

// Decode 把三份并行负载（完整文本、词时间戳、段落时间戳）解码为歌词文档。
// 解码失败返回错误，调用方保持"未加载文档"状态即可，绝不让失败打断播放。
func Decode(text string, wordsJSON, segmentsJSON []byte) (*model.LyricsDocument, error) {
	doc := &model.LyricsDocument{Text: text}

	if len(wordsJSON) > 0 {
		if err := json.Unmarshal(wordsJSON, &doc.Words); err != nil {
			return nil, fmt.Errorf("解析词时间戳失败: %w", err)
		}
	}
	if len(segmentsJSON) > 0 {
		if err := json.Unmarshal(segmentsJSON, &doc.Segments); err != nil {
			return nil, fmt.Errorf("解析段落时间戳失败: %w", err)
		}
	}

	// 段落按时间递增排序，同步器依赖该顺序
	sort.Slice(doc.Segments, func(i, j int) bool {
		return doc.Segments[i].StartTime < doc.Segments[j].StartTime
	})
	for i := range doc.Segments {
		seg := &doc.Segments[i]
		sort.Slice(seg.Words, func(a, b int) bool {
			return seg.Words[a].StartTime < seg.Words[b].StartTime
		})
	}

	logger.Debug("歌词文档解码完成",
		logger.Int("segments", len(doc.Segments)),
		logger.Int("words", len(doc.Words)))

	return doc, nil
}
