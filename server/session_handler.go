package server

import (
	"encoding/json"
	"net/http"

	"VizFM/core/session"
	"VizFM/core/vis"
	"VizFM/logger"

	"github.com/gorilla/mux"
)

// sessionFromRequest 解析路径中的会话 ID 并查找会话；找不到时直接写 404
func (h *APIHandler) sessionFromRequest(w http.ResponseWriter, r *http.Request) *session.Session {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session not found")
		return nil
	}
	return s
}

// CreateSessionHandler 创建一个新的可视化会话并启动帧循环
func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	// 空请求体允许，使用默认尺寸
	_ = json.NewDecoder(r.Body).Decode(&req)

	s := h.sessions.Create(req.Width, req.Height)
	s.StartLoop()

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId":  s.ID,
		"width":      s.Director.Width(),
		"height":     s.Director.Height(),
		"visualizer": s.Director.ActiveVisualizer(),
	})
}

// DeleteSessionHandler 关闭并移除会话
func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.sessions.Remove(id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// LoadSourceHandler 加载并解码一条音轨
func (h *APIHandler) LoadSourceHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	if !s.Engine.LoadSource(r.Context(), req.URL) {
		// 解码失败不是致命错误，引擎保持上一条音轨
		respondError(w, http.StatusUnprocessableEntity, "failed to decode source")
		return
	}

	logger.Info("音轨已加载",
		logger.String("sessionId", s.ID),
		logger.String("url", req.URL),
		logger.Float64("duration", s.Engine.Duration()))
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"duration": s.Engine.Duration(),
	})
}

// PlaybackHandler 播放控制：play/pause/seek/rate/volume/mute 在一个端点上多路复用
func (h *APIHandler) PlaybackHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		Action string   `json:"action"`
		Time   *float64 `json:"time,omitempty"`
		Rate   *float64 `json:"rate,omitempty"`
		Volume *float64 `json:"volume,omitempty"`
		Muted  *bool    `json:"muted,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch req.Action {
	case "play":
		s.Engine.Play()
	case "pause":
		s.Engine.Pause()
	case "seek":
		if req.Time == nil {
			respondError(w, http.StatusBadRequest, "seek requires time")
			return
		}
		s.Engine.Seek(*req.Time)
	case "rate":
		if req.Rate == nil {
			respondError(w, http.StatusBadRequest, "rate requires rate")
			return
		}
		s.Engine.SetRate(*req.Rate)
	case "volume":
		if req.Volume == nil {
			respondError(w, http.StatusBadRequest, "volume requires volume")
			return
		}
		s.Engine.SetVolume(*req.Volume)
	case "mute":
		if req.Muted == nil {
			respondError(w, http.StatusBadRequest, "mute requires muted")
			return
		}
		s.Engine.SetMuted(*req.Muted)
	default:
		respondError(w, http.StatusBadRequest, "unknown action")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"playing":  s.Engine.Playing(),
		"position": s.Engine.Position(),
		"duration": s.Engine.Duration(),
	})
}

// SetVisualizerHandler 切换当前可视化器
func (h *APIHandler) SetVisualizerHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		ID          string   `json:"id"`
		Count       int      `json:"count"`
		Color       string   `json:"color"`
		Sensitivity *float64 `json:"sensitivity,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	params := vis.Params{Count: req.Count, Color: req.Color}
	if req.Sensitivity != nil {
		params.Sensitivity = *req.Sensitivity
	}
	s.Director.SetVisualizer(req.ID, params)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"visualizer": s.Director.ActiveVisualizer(),
	})
}

// ResizeHandler 调整渲染表面尺寸
func (h *APIHandler) ResizeHandler(w http.ResponseWriter, r *http.Request) {
	s := h.sessionFromRequest(w, r)
	if s == nil {
		return
	}

	var req struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Width <= 0 || req.Height <= 0 {
		respondError(w, http.StatusBadRequest, "width and height must be positive")
		return
	}

	s.Director.Resize(req.Width, req.Height)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"width":  s.Director.Width(),
		"height": s.Director.Height(),
	})
}
