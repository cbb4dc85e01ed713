package server

import (
	"encoding/json"
	"net/http"
	"time"

	"VizFM/cache"
	"VizFM/core/lyrics"
	"VizFM/logger"
)

// LoadLyricsHandler 加载歌词并挂到会话的同步器上。
// 带 trackUrl 时先查 Redis 缓存，解码结果回填缓存；缓存层任何错误都降级为重新解码。
func (h *APIHandler) LoadLyricsHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		TrackURL string          `json:"trackUrl"`
		Text     string          `json:"text"`
		Words    json.RawMessage `json:"words"`
		Segments json.RawMessage `json:"segments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.TrackURL != "" {
		if doc, err := cache.GetLyricsCache(req.TrackURL); err == nil && doc != nil {
			s.Lyrics.Load(doc)
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"lines":  len(doc.Segments),
				"cached": true,
			})
			return
		}
	}

	doc, err := lyrics.Decode(req.Text, req.Words, req.Segments)
	if err != nil {
		// 解码失败不影响已加载的歌词
		logger.Warn("歌词解码失败", logger.String("sessionId", s.ID), logger.ErrorField(err))
		respondError(w, http.StatusUnprocessableEntity, "failed to decode lyrics")
		return
	}

	s.Lyrics.Load(doc)
	if req.TrackURL != "" {
		if err := cache.SetLyricsCache(req.TrackURL, doc, 24*time.Hour); err != nil {
			logger.Warn("写入歌词缓存失败", logger.ErrorField(err))
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"lines":  len(doc.Segments),
		"cached": false,
	})
}

// ClearLyricsHandler 卸载当前歌词
func (h *APIHandler) ClearLyricsHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}
	s.Lyrics.Reset()
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// LyricsStateHandler 返回当前歌词状态和前后文行
func (h *APIHandler) LyricsStateHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":    s.Lyrics.State(),
		"upcoming": s.Lyrics.UpcomingLines(3),
		"previous": s.Lyrics.PreviousLines(3),
	})
}
