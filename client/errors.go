package client

import "errors"

var (
	// ErrConnectionTimeout 握手在 ConnectTimeout 内未完成
	ErrConnectionTimeout = errors.New("roomsync: connection timeout")
	// ErrConnectionError 握手前的传输层失败
	ErrConnectionError = errors.New("roomsync: connection error")
	// ErrMalformedMessage 载荷缺少必填字段或无法解析；只记录日志，不上抛
	ErrMalformedMessage = errors.New("roomsync: malformed message")
	// ErrNotConnected 连接未建立或已关闭
	ErrNotConnected = errors.New("roomsync: not connected")
	// ErrAlreadyConnected 会话已在连接中或已连接
	ErrAlreadyConnected = errors.New("roomsync: already connected")
	// ErrSendQueueFull 发送队列已满，本帧被丢弃
	ErrSendQueueFull = errors.New("roomsync: send queue full")
)

// ProtocolError 服务端发来的 error 信封；仅记录，会话不受影响
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "roomsync: server error: " + e.Message
}
