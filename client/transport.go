package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"roomsync/proto"
)

// link 一条已建立的双向通道；会话只依赖这个接口，测试可替换
type link interface {
	// Send 非阻塞发送；队列满或已关闭时返回错误，调用方不等待
	Send(typ string, payload any) error
	// Inbox 入站信封，由会话所在的执行上下文消费
	Inbox() <-chan proto.Envelope
	// Done 读循环结束后关闭
	Done() <-chan struct{}
	// Err 读循环结束原因（Done 关闭后有效）
	Err() error
	// Close 关闭通道，可重复调用
	Close()
}

// dialFunc 建立 link；ctx 已带上连接超时
type dialFunc func(ctx context.Context, cfg Config) (link, error)

// dial 建立连接：握手完成即视为收到 connected 确认
// 超时返回 ErrConnectionTimeout，其余失败返回 ErrConnectionError
func dial(ctx context.Context, cfg Config, fn dialFunc) (link, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	l, err := fn(ctx, cfg)
	if err == nil {
		return l, nil
	}
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return nil, fmt.Errorf("%w after %s", ErrConnectionTimeout, cfg.ConnectTimeout)
	}
	return nil, fmt.Errorf("%w: %w", ErrConnectionError, err)
}

// wsLink 基于 gorilla/websocket 的 link 实现
type wsLink struct {
	ws    *websocket.Conn
	send  chan []byte
	inbox chan proto.Envelope
	log   *zap.SugaredLogger

	writeTimeout time.Duration

	closed    chan struct{}
	closeOnce sync.Once
	done      chan struct{}
	err       error

	dropped atomic.Int64
}

// dialWebSocket 默认的 dialFunc
func dialWebSocket(ctx context.Context, cfg Config) (link, error) {
	// 超时由 ctx 控制
	dialer := websocket.Dialer{
		Proxy:           http.ProxyFromEnvironment,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	ws, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, err
	}
	l := newWSLink(ws, cfg)
	go l.writePump()
	go l.readPump()
	return l, nil
}

func newWSLink(ws *websocket.Conn, cfg Config) *wsLink {
	return &wsLink{
		ws:           ws,
		send:         make(chan []byte, cfg.SendQueueSize),
		inbox:        make(chan proto.Envelope, cfg.InboxSize),
		log:          cfg.Logger,
		writeTimeout: cfg.WriteTimeout,
		closed:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (l *wsLink) Send(typ string, payload any) error {
	select {
	case <-l.closed:
		return ErrNotConnected
	default:
	}
	b, err := proto.Encode(typ, payload)
	if err != nil {
		return err
	}
	select {
	case l.send <- b:
		return nil
	default:
		// 为了实时性直接丢弃，不阻塞模拟 Tick
		l.dropped.Add(1)
		return ErrSendQueueFull
	}
}

func (l *wsLink) Inbox() <-chan proto.Envelope { return l.inbox }

func (l *wsLink) Done() <-chan struct{} { return l.done }

func (l *wsLink) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Close 关闭底层连接；发送队列不关闭，写协程通过 closed 退出
func (l *wsLink) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = l.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = l.ws.Close()
	})
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (l *wsLink) writePump() {
	for {
		select {
		case <-l.closed:
			return
		case msg := <-l.send:
			_ = l.ws.SetWriteDeadline(time.Now().Add(l.writeTimeout))
			if err := l.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				l.log.Debugf("write failed: %v", err)
				l.Close()
				return
			}
		}
	}
}

// readPump 读取服务端信封放入 inbox；inbox 满时阻塞，保证事件不丢、不乱序
func (l *wsLink) readPump() {
	defer close(l.done)
	l.ws.SetReadLimit(1 << 20) // 1MB
	for {
		_, payload, err := l.ws.ReadMessage()
		if err != nil {
			l.err = err
			l.Close()
			return
		}
		var env proto.Envelope
		if err := json.Unmarshal(payload, &env); err != nil || env.Type == "" {
			l.log.Warnf("dropping undecodable frame (%d bytes): %v", len(payload), err)
			continue
		}
		select {
		case l.inbox <- env:
		case <-l.closed:
			l.err = ErrNotConnected
			return
		}
	}
}
