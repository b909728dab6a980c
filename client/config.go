package client

import (
	"time"

	"go.uber.org/zap"
)

// Config 会话配置
type Config struct {
	// URL WebSocket 地址，如 ws://localhost:8080/ws
	URL string
	// RoomID 要加入的房间
	RoomID string

	// 时序
	ConnectTimeout    time.Duration
	WriteTimeout      time.Duration
	BroadcastInterval time.Duration

	// 插值：每 Tick 缩短剩余距离的比例，以及直接吸附的阈值
	LerpFactor    float64
	SnapThreshold float64

	// 缓冲
	InboxSize     int
	SendQueueSize int

	Logger *zap.SugaredLogger
	// Bus 通知出口（在线人数、资料展示等）；为空则丢弃
	Bus Bus
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		URL:               "ws://localhost:8080/ws",
		RoomID:            "default",
		ConnectTimeout:    10 * time.Second,
		WriteTimeout:      5 * time.Second,
		BroadcastInterval: 50 * time.Millisecond, // ≈20Hz
		LerpFactor:        0.15,
		SnapThreshold:     1,
		InboxSize:         256,
		SendQueueSize:     64,
	}
}

// normalize 用默认值补齐零值字段
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.URL == "" {
		c.URL = def.URL
	}
	if c.RoomID == "" {
		c.RoomID = def.RoomID
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.BroadcastInterval <= 0 {
		c.BroadcastInterval = def.BroadcastInterval
	}
	if c.LerpFactor <= 0 || c.LerpFactor > 1 {
		c.LerpFactor = def.LerpFactor
	}
	if c.SnapThreshold <= 0 {
		c.SnapThreshold = def.SnapThreshold
	}
	if c.InboxSize <= 0 {
		c.InboxSize = def.InboxSize
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = def.SendQueueSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop().Sugar()
	}
	if c.Bus == nil {
		c.Bus = discardBus{}
	}
	return c
}
