// presence-client 终端里的在场演示客户端：方向键移动，实时看到房间里其他人
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"roomsync/client"
	"roomsync/logging"
)

const (
	frameInterval = 16 * time.Millisecond
	// 世界坐标到终端格子的缩放
	cellW    = 16.0
	cellH    = 32.0
	stepSize = 16.0
	// 超过该时长没有按键视为停止移动
	idleAfter = 200 * time.Millisecond
)

var errQuit = errors.New("quit")

func main() {
	var (
		url     string
		room    string
		user    string
		name    string
		logFile string
	)
	flag.StringVar(&url, "url", "ws://localhost:8080/ws", "relay websocket url")
	flag.StringVar(&room, "room", "default", "room to join")
	flag.StringVar(&user, "user", "", "user id (guest id when empty)")
	flag.StringVar(&name, "name", "", "display name")
	flag.StringVar(&logFile, "log", "presence-client.log", "log file path")
	flag.Parse()

	// 终端被 tcell 接管，日志只写文件
	log, err := logging.New(logging.Options{File: logFile, Level: zapcore.DebugLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync(log)

	if err := run(url, room, client.Identity{UserID: user, DisplayName: name}, log); err != nil && !errors.Is(err, errQuit) {
		fmt.Fprintf(os.Stderr, "presence-client: %v\n", err)
		os.Exit(1)
	}
}

func run(url, room string, id client.Identity, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	v := &view{}
	bus := client.NewListeners()
	bus.Subscribe(v.onNotification)

	cfg := client.DefaultConfig()
	cfg.URL = url
	cfg.RoomID = room
	cfg.Logger = log
	cfg.Bus = bus

	sess := client.NewSession(cfg, id)
	if err := sess.Connect(ctx); err != nil {
		return err
	}
	defer sess.Disconnect()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	v.screen = screen

	w, h := screen.Size()
	sess.SetLocal(client.Vec2{X: float64(w/2) * cellW, Y: float64(h/2) * cellH}, client.DirDown, false)

	keys := make(chan *tcell.EventKey, 16)
	g, ctx := errgroup.WithContext(ctx)

	// 输入协程：只把按键交给帧循环，会话只在帧循环中访问
	g.Go(func() error {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				select {
				case keys <- ev:
				case <-ctx.Done():
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}
		}
	})

	// 帧循环
	g.Go(func() error {
		defer screen.Fini() // 让 PollEvent 返回 nil
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		var lastKey time.Time
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-keys:
				if err := handleKey(sess, v, ev); err != nil {
					return err
				}
				lastKey = time.Now()
			case now := <-ticker.C:
				local := sess.Local()
				if local.IsMoving && now.Sub(lastKey) > idleAfter {
					sess.SetLocal(local.Position, local.Direction, false)
				}
				frame := sess.Tick(now)
				v.draw(sess.Local(), frame, sess.Online(), sess.State())
				if sess.State() == client.StateFailed {
					return fmt.Errorf("connection lost")
				}
			}
		}
	})

	return g.Wait()
}

func handleKey(sess *client.Session, v *view, ev *tcell.EventKey) error {
	local := sess.Local()
	pos := local.Position
	var dir client.Direction
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return errQuit
	case tcell.KeyUp:
		dir, pos.Y = client.DirUp, pos.Y-stepSize
	case tcell.KeyDown:
		dir, pos.Y = client.DirDown, pos.Y+stepSize
	case tcell.KeyLeft:
		dir, pos.X = client.DirLeft, pos.X-stepSize
	case tcell.KeyRight:
		dir, pos.X = client.DirRight, pos.X+stepSize
	case tcell.KeyTab:
		// 轮流查看其他人的资料
		actors := sess.Actors()
		if len(actors) > 0 {
			v.cursor = (v.cursor + 1) % len(actors)
			sess.ShowProfile(actors[v.cursor].ID)
		}
		return nil
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return errQuit
		case 'i':
			if err := sess.Interact("terminal", "poke"); err != nil {
				v.detail = "interact: " + err.Error()
			}
		}
		return nil
	default:
		return nil
	}
	sess.SetLocal(pos, dir, true)
	return nil
}
