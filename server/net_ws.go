package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomsync/proto"
)

const (
	writeWait    = 5 * time.Second
	readWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	joinWait     = 10 * time.Second
	maxFrameSize = 1 << 20 // 1MB
)

// ClientConn 负责发送（写）数据到客户端的轻量包装
type ClientConn struct {
	ws        *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ws:     ws,
		send:   make(chan []byte, 64),
		closed: make(chan struct{}),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case <-c.closed:
	case c.send <- b:
	default:
		// 为了实时性，丢弃新消息（防止阻塞 Tick）
	}
}

// Send 编码后入队
func (c *ClientConn) Send(typ string, payload any) {
	b, err := proto.Encode(typ, payload)
	if err != nil {
		return
	}
	c.Enqueue(b)
}

// Close 关闭底层连接；send 通道不关闭，写协程通过 closed 退出
func (c *ClientConn) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS，并定期 ping
func (c *ClientConn) writePump() {
	ping := time.NewTicker(pingInterval)
	defer func() {
		ping.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ping.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 读取客户端意图，转换为 Input 注入房间
func (c *ClientConn) readPump(room *Room, playerID PlayerID) {
	defer c.Close()
	// 读泵退出时，通知房间在 Tick 线程中移除该玩家
	defer room.RequestLeave(playerID, c)
	c.ws.SetReadLimit(maxFrameSize)
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(readWait)) })

	for {
		_, frame, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		c.ws.SetReadDeadline(time.Now().Add(readWait))
		in, err := parseInput(frame)
		if err != nil {
			room.metrics.IncMalformed()
			room.log.Warnf("drop frame from %s: %v", playerID, err)
			c.Send(proto.TypeError, proto.Error{Message: err.Error()})
			continue
		}
		in.PlayerID, in.Conn = playerID, c
		room.OnInput(in)
	}
}

// parseInput 把一帧解析为房间意图；joinRoom 只能作为首帧出现
func parseInput(frame []byte) (Input, error) {
	var env proto.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Input{}, fmt.Errorf("bad envelope: %w", err)
	}
	switch env.Type {
	case proto.TypeMove:
		var m proto.Move
		if err := decodePayload(env.Payload, &m, "x", "y"); err != nil {
			return Input{}, err
		}
		if _, err := proto.ParseDirection(string(m.Direction)); err != nil {
			return Input{}, err
		}
		return Input{Kind: InputMove, Move: &m}, nil
	case proto.TypeUpdateProfile:
		var p proto.Profile
		if err := decodePayload(env.Payload, &p, "username"); err != nil {
			return Input{}, err
		}
		return Input{Kind: InputProfile, Profile: &p}, nil
	case proto.TypeInteract:
		var it proto.Interact
		if err := decodePayload(env.Payload, &it, "objectId", "action"); err != nil {
			return Input{}, err
		}
		return Input{Kind: InputInteract, Interact: &it}, nil
	default:
		return Input{}, fmt.Errorf("unexpected event %q", env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any, required ...string) error {
	if err := proto.RequireFields(raw, required...); err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// readJoin 读取并校验首帧 joinRoom
func readJoin(ws *websocket.Conn) (*proto.JoinRoom, error) {
	ws.SetReadLimit(maxFrameSize)
	ws.SetReadDeadline(time.Now().Add(joinWait))
	_, frame, err := ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	var env proto.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("bad envelope: %w", err)
	}
	if env.Type != proto.TypeJoinRoom {
		return nil, fmt.Errorf("first event must be %s, got %q", proto.TypeJoinRoom, env.Type)
	}
	var req proto.JoinRoom
	if err := decodePayload(env.Payload, &req, "roomId", "userId"); err != nil {
		return nil, err
	}
	if req.RoomID == "" || req.UserID == "" {
		return nil, fmt.Errorf("roomId and userId must be non-empty")
	}
	return &req, nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 开发环境：允许所有来源
		return true
	},
}

// HandleWS WebSocket 接入：房间与身份由首帧 joinRoom 决定
func (m *RoomManager) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.Warnf("upgrade error: %v", err)
		return
	}
	req, err := readJoin(ws)
	if err != nil {
		m.log.Warnf("reject connection from %s: %v", r.RemoteAddr, err)
		if b, encErr := proto.Encode(proto.TypeError, proto.Error{Message: err.Error()}); encErr == nil {
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.TextMessage, b)
		}
		_ = ws.Close()
		return
	}

	room := m.GetOrCreateRoom(req.RoomID)
	client := NewClientConn(ws)
	pid := PlayerID(req.UserID)
	room.OnInput(Input{Kind: InputJoin, PlayerID: pid, Conn: client, Join: req})

	go client.writePump()
	go client.readPump(room, pid)
}
