package server

import (
	"sync/atomic"
)

// RoomMetrics 记录房间运行期的关键指标（用于监控与调试）
type RoomMetrics struct {
	TickCount         int64 // 统计的 Tick 次数
	Joins             int64 // 加入次数
	Leaves            int64 // 离开次数
	MovesAccepted     int64 // 被接受的 move 数
	RateLimited       int64 // 因同帧限流被拒绝的 move 数
	ChanFullDiscarded int64 // 因通道满被丢弃的 move 数
	ProfileUpdates    int64 // 资料更新次数
	Interactions      int64 // 物体交互次数
	MalformedFrames   int64 // 无法解析的入站帧
	TotalTickNs       int64 // Tick 累计耗时（纳秒）
}

func (m *RoomMetrics) IncJoins()             { atomic.AddInt64(&m.Joins, 1) }
func (m *RoomMetrics) IncLeaves()            { atomic.AddInt64(&m.Leaves, 1) }
func (m *RoomMetrics) IncAccepted()          { atomic.AddInt64(&m.MovesAccepted, 1) }
func (m *RoomMetrics) IncRateLimited()       { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncChanFullDiscarded() { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncProfileUpdates()    { atomic.AddInt64(&m.ProfileUpdates, 1) }
func (m *RoomMetrics) IncInteractions()      { atomic.AddInt64(&m.Interactions, 1) }
func (m *RoomMetrics) IncMalformed()         { atomic.AddInt64(&m.MalformedFrames, 1) }
func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":          tick,
		"joins":               atomic.LoadInt64(&m.Joins),
		"leaves":              atomic.LoadInt64(&m.Leaves),
		"moves_accepted":      atomic.LoadInt64(&m.MovesAccepted),
		"rate_limited":        atomic.LoadInt64(&m.RateLimited),
		"chan_full_discarded": atomic.LoadInt64(&m.ChanFullDiscarded),
		"profile_updates":     atomic.LoadInt64(&m.ProfileUpdates),
		"interactions":        atomic.LoadInt64(&m.Interactions),
		"malformed_frames":    atomic.LoadInt64(&m.MalformedFrames),
		"avg_tick_ms":         avgMs,
	}
}
