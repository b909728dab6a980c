package server

import (
	"encoding/json"
	"net/http"
)

// roomConfig 可热更新的房间规则；指针字段表示"未携带则不修改"
type roomConfig struct {
	MaxMovesPerTick *int64 `json:"maxMovesPerTick,omitempty"`
	EchoToSender    *bool  `json:"echoToSender,omitempty"`
}

func (m *RoomManager) roomFromQuery(r *http.Request) *Room {
	roomID := r.URL.Query().Get("room")
	if roomID == "" {
		roomID = "default"
	}
	return m.GetOrCreateRoom(roomID)
}

// HandleAdminConfig 提供房间配置的读取与更新
// GET /admin/config?room=default  返回当前配置
// POST /admin/config?room=default 以 JSON 载荷更新部分字段
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	room := m.roomFromQuery(r)

	switch r.Method {
	case http.MethodGet:
		maxMoves := room.maxMovesPerTick.Load()
		echo := room.echoToSender.Load()
		writeJSON(w, roomConfig{MaxMovesPerTick: &maxMoves, EchoToSender: &echo})
	case http.MethodPost:
		var body roomConfig
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if body.MaxMovesPerTick != nil {
			if *body.MaxMovesPerTick < 1 {
				http.Error(w, "maxMovesPerTick must be >= 1", http.StatusBadRequest)
				return
			}
			room.maxMovesPerTick.Store(*body.MaxMovesPerTick)
		}
		if body.EchoToSender != nil {
			room.echoToSender.Store(*body.EchoToSender)
		}
		writeJSON(w, map[string]any{"ok": true})
		m.log.Infof("config updated: room=%s maxMovesPerTick=%d echoToSender=%t",
			room.ID, room.maxMovesPerTick.Load(), room.echoToSender.Load())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=default
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room := m.roomFromQuery(r)
	writeJSON(w, map[string]any{
		"room":    room.ID,
		"tick":    room.tickSeq.Load(),
		"metrics": room.metrics.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
