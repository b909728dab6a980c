package server

import "roomsync/proto"

// PlayerID 表示玩家唯一标识
type PlayerID string

// 新加入玩家的默认出生点（客户端随后用 move 上报真实位置）
const (
	spawnX = 800
	spawnY = 600
)

// Player 房间内的玩家（relay 只记录最近一次上报，不做权威校验）
type Player struct {
	ID      PlayerID
	Name    string
	Image   string
	X       float64
	Y       float64
	Dir     proto.Direction
	Moving  bool
	Profile *proto.Profile

	Conn *ClientConn // 网络连接的发送端（写协程）

	dirty     bool // 本 Tick 内位置有变化，待广播
	movesThis int  // 本 Tick 已接受的 move 数
}

// Data 转换为线上 PlayerData
func (p *Player) Data() proto.PlayerData {
	return proto.PlayerData{
		ID:        string(p.ID),
		Name:      p.Name,
		Image:     p.Image,
		X:         p.X,
		Y:         p.Y,
		Direction: p.Dir,
		IsMoving:  p.Moving,
		Profile:   p.Profile,
	}
}
