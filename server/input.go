package server

import "roomsync/proto"

// InputKind 入站意图类型
type InputKind int

const (
	InputJoin InputKind = iota
	InputMove
	InputProfile
	InputInteract
	InputLeave
)

// Input 读协程投递给房间 Tick 的意图；同一连接的意图走同一通道，保持顺序
type Input struct {
	Kind     InputKind
	PlayerID PlayerID
	Conn     *ClientConn

	Join     *proto.JoinRoom
	Move     *proto.Move
	Profile  *proto.Profile
	Interact *proto.Interact
}
