package client

import (
	"time"

	"roomsync/proto"
)

// sender 出站通道的最小接口（link 满足它）
type sender interface {
	Send(typ string, payload any) error
}

// Broadcaster 本地角色状态的限频发送
// 不排队、不合并：未到间隔的 Tick 直接跳过，下一个合格的 Tick 发送当时的状态
type Broadcaster struct {
	interval time.Duration
	lastSend time.Time

	sent    uint64
	skipped uint64
}

// NewBroadcaster 以给定间隔创建（默认 50ms ≈ 20Hz）
func NewBroadcaster(interval time.Duration) *Broadcaster {
	return &Broadcaster{interval: interval}
}

// Tick 尝试发送一次 move；out 为空表示当前未连接，本次 Tick 仍计入节流
// 返回是否真的写入了发送队列
func (b *Broadcaster) Tick(now time.Time, local LocalActor, out sender) bool {
	if !b.lastSend.IsZero() && now.Sub(b.lastSend) < b.interval {
		b.skipped++
		return false
	}
	b.lastSend = now
	if out == nil {
		return false
	}
	err := out.Send(proto.TypeMove, proto.Move{
		X:         local.Position.X,
		Y:         local.Position.Y,
		Direction: local.Direction,
		IsMoving:  local.IsMoving,
	})
	if err != nil {
		return false
	}
	b.sent++
	return true
}

// Stats 已发送与被节流跳过的次数
func (b *Broadcaster) Stats() (sent, skipped uint64) {
	return b.sent, b.skipped
}

// sendProfile 资料变更立即发送，不经过节流
func sendProfile(out sender, p Profile) error {
	if out == nil {
		return ErrNotConnected
	}
	return out.Send(proto.TypeUpdateProfile, p)
}

// sendInteract 透传物体交互
func sendInteract(out sender, objectID, action string) error {
	if out == nil {
		return ErrNotConnected
	}
	return out.Send(proto.TypeInteract, proto.Interact{ObjectID: objectID, Action: action})
}
