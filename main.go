package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap/zapcore"

	"roomsync/logging"
	"roomsync/server"
)

// 开发用中继入口：HTTP + WebSocket，按房间转发在场状态
func main() {
	var (
		addr    string
		logFile string
		debug   bool
	)
	flag.StringVar(&addr, "addr", ":8080", "server listen address, e.g. :8080")
	flag.StringVar(&logFile, "log", "relay.log", "log file path (rotated); empty disables file logging")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	log, err := logging.New(logging.Options{File: logFile, Stderr: true, Level: level})
	if err != nil {
		panic(err)
	}
	defer logging.Sync(log)

	rm := server.NewRoomManager(log)
	// 先预创建默认房间，便于快速试跑
	_ = rm.GetOrCreateRoom("default")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", rm.HandleWS)
	// 管理与监控接口
	mux.HandleFunc("/admin/config", rm.HandleAdminConfig)
	mux.HandleFunc("/metrics", rm.HandleMetrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Infof("relay listening on %s; websocket endpoint ws://localhost%s/ws", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	// 优雅退出（Ctrl+C）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("shutdown: %v", err)
	}
	rm.Close()
}
