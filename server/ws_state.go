package server

import (
	"net/http"
	"time"

	"VizFM/logger"
	"VizFM/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// stateMessage WebSocket 推送的会话状态帧
type stateMessage struct {
	Type     string            `json:"type"` // "state" 或 "lyrics"
	Playing  bool              `json:"playing"`
	Position float64           `json:"position"`
	Beat     *model.BeatInfo   `json:"beat,omitempty"`
	Lyrics   *model.LyricsState `json:"lyrics,omitempty"`
}

// SessionStateWS 向客户端持续推送会话状态：
// 固定频率的节拍/播放快照，叠加歌词行切换的即时事件。
// 只读取 Director 维护的快照，绝不触碰分析 tick 本身。
func (h *APIHandler) SessionStateWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s, err := h.sessions.Get(id)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", logger.ErrorField(err))
		return
	}
	defer conn.Close()

	// 写由单个 goroutine 串行执行，歌词事件经通道汇入
	lyricsEvents := make(chan model.LyricsState, 8)
	cancel := s.Lyrics.Subscribe(func(state model.LyricsState) {
		select {
		case lyricsEvents <- state:
		default: // 客户端跟不上就丢事件，状态帧会补上
		}
	})
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case state := <-lyricsEvents:
			msg := stateMessage{
				Type:     "lyrics",
				Playing:  s.Engine.Playing(),
				Position: s.Engine.Position(),
				Lyrics:   &state,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			beat := s.Director.LastBeat()
			msg := stateMessage{
				Type:     "state",
				Playing:  s.Engine.Playing(),
				Position: s.Engine.Position(),
				Beat:     &beat,
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
