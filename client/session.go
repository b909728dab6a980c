package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roomsync/proto"
)

// State 会话连接状态
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateJoined
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// NewGuestID 身份协作方未提供 userId 时使用的访客 id
func NewGuestID() string {
	return "guest-" + uuid.NewString()
}

// Session 一个房间会话：独占注册表与本地角色
//
// 除 Connect 外所有方法都不阻塞。会话不是并发安全的：Connect、Tick、
// Disconnect 及其余方法必须在同一个执行上下文（通常是帧循环）中调用；
// 网络读协程只把信封放进 inbox，真正的状态变更发生在 Tick 里。
type Session struct {
	cfg    Config
	log    *zap.SugaredLogger
	bus    Bus
	dialer dialFunc

	local  LocalActor
	reg    *Registry
	interp Interpolator
	bc     *Broadcaster
	join   joinResolver

	link   link
	state  State
	online int
}

// NewSession 创建会话；不发起连接
func NewSession(cfg Config, id Identity) *Session {
	cfg = cfg.normalize()
	if id.UserID == "" {
		id.UserID = NewGuestID()
	}
	if id.DisplayName == "" {
		id.DisplayName = "Guest"
	}
	s := &Session{
		cfg:    cfg,
		log:    cfg.Logger.Named("session"),
		bus:    cfg.Bus,
		dialer: dialWebSocket,
		local: LocalActor{
			ID:          id.UserID,
			DisplayName: id.DisplayName,
			AvatarRef:   id.AvatarRef,
			Profile:     cloneProfile(id.Profile),
			Direction:   DirDown,
		},
		reg:    NewRegistry(id.UserID),
		interp: NewInterpolator(cfg),
		bc:     NewBroadcaster(cfg.BroadcastInterval),
		state:  StateDisconnected,
		online: 1,
	}
	return s
}

// Connect 建立连接并发送 joinRoom；阻塞直到握手完成或失败
// 加入快照在之后的 Tick 中处理
func (s *Session) Connect(ctx context.Context) error {
	switch s.state {
	case StateConnecting, StateConnected, StateJoined:
		return ErrAlreadyConnected
	}
	s.setState(StateConnecting)

	l, err := dial(ctx, s.cfg, s.dialer)
	if err != nil {
		s.log.Errorf("connect failed: room=%s url=%s err=%v", s.cfg.RoomID, s.cfg.URL, err)
		s.setState(StateFailed)
		return err
	}
	s.link = l
	s.setState(StateConnected)

	s.join.arm()
	if err := l.Send(proto.TypeJoinRoom, joinRequest(s.cfg.RoomID, s.local)); err != nil {
		s.drop()
		s.setState(StateFailed)
		return fmt.Errorf("%w: send joinRoom: %w", ErrConnectionError, err)
	}
	s.log.Infof("connected: room=%s user=%s", s.cfg.RoomID, s.local.ID)
	return nil
}

// Disconnect 拆除会话：停止接收入站事件、清空远端角色、取消未完成的加入流程
// 可重复调用
func (s *Session) Disconnect() {
	if s.link == nil && s.state == StateDisconnected {
		return
	}
	s.drop()
	s.setState(StateDisconnected)
	s.log.Infof("disconnected: room=%s", s.cfg.RoomID)
}

// drop 关闭并丢弃当前 link（连同其中未处理的入站信封），清空注册表
func (s *Session) drop() {
	if s.link != nil {
		s.link.Close()
		s.link = nil
	}
	s.join.disarm()
	if s.reg.Clear() > 0 {
		s.publishOnline()
	}
}

// Tick 每帧调用一次：处理入站信封 → 插值 → 限频广播本地状态
// 返回远端角色的渲染状态
func (s *Session) Tick(now time.Time) []RenderState {
	s.pump()
	frames := s.interp.Step(s.reg)
	s.bc.Tick(now, s.local, s.out())
	return frames
}

// pump 非阻塞地取完当前 inbox
func (s *Session) pump() {
	l := s.link
	if l == nil {
		return
	}
	h := sessionHandler{s: s}
	for {
		select {
		case env := <-l.Inbox():
			kind, err := Route(env, h)
			if err != nil {
				s.log.Warnf("dropping message: %v", err)
			} else if kind == KindUnknown {
				s.log.Debugf("ignoring unknown event %q", env.Type)
			}
			// 监听者可能在分发中同步调用了 Disconnect：旧 link 剩余的信封一并丢弃
			if s.link != l {
				return
			}
		default:
			select {
			case <-l.Done():
				if s.link == l {
					s.lost(l.Err())
				}
			default:
			}
			return
		}
	}
}

// lost 通道意外断开：进入 failed，远端角色全部移除
func (s *Session) lost(err error) {
	s.log.Warnf("connection lost: room=%s err=%v", s.cfg.RoomID, err)
	s.drop()
	s.setState(StateFailed)
}

// out 当前可用的出站通道；未连接时为 nil
func (s *Session) out() sender {
	if s.link == nil {
		return nil
	}
	if s.state != StateConnected && s.state != StateJoined {
		return nil
	}
	return s.link
}

// SetLocal 本地模拟写入本帧的位置与动作
func (s *Session) SetLocal(pos Vec2, dir Direction, moving bool) {
	s.local.Position = pos
	if dir != "" {
		s.local.Direction = dir
	}
	s.local.IsMoving = moving
}

// UpdateProfile 本地编辑资料：立即发送，不节流
func (s *Session) UpdateProfile(p Profile) error {
	s.local.Profile = cloneProfile(&p)
	if p.Username != "" {
		s.local.DisplayName = p.Username
	}
	if err := sendProfile(s.out(), p); err != nil {
		s.log.Debugf("updateProfile not sent: %v", err)
		return err
	}
	return nil
}

// Interact 透传物体交互
func (s *Session) Interact(objectID, action string) error {
	return sendInteract(s.out(), objectID, action)
}

// ShowProfile 请求 UI 展示某个远端玩家的资料
func (s *Session) ShowProfile(actorID string) bool {
	a, ok := s.reg.Get(actorID)
	if !ok {
		return false
	}
	s.bus.Publish(ShowProfile{ActorID: a.ID, Profile: a.ProfileOrFallback()})
	return true
}

// Local 本地角色状态副本
func (s *Session) Local() LocalActor {
	l := s.local
	l.Profile = cloneProfile(s.local.Profile)
	return l
}

// Actor 按 id 查询远端角色
func (s *Session) Actor(id string) (RemoteActor, bool) {
	return s.reg.Get(id)
}

// Actors 全部远端角色（按 id 排序）
func (s *Session) Actors() []RemoteActor {
	return s.reg.Snapshot()
}

// Online 在线人数（含自己）
func (s *Session) Online() int {
	return s.reg.Count() + 1
}

// State 当前连接状态
func (s *Session) State() State {
	return s.state
}

// BroadcastStats 本地状态广播的发送/跳过计数
func (s *Session) BroadcastStats() (sent, skipped uint64) {
	return s.bc.Stats()
}

func (s *Session) setState(to State) {
	if s.state == to {
		return
	}
	from := s.state
	s.state = to
	s.bus.Publish(StateChanged{From: from, To: to})
}

func (s *Session) publishOnline() {
	online := s.Online()
	if online == s.online {
		return
	}
	s.online = online
	s.bus.Publish(OnlineCountChanged{Online: online})
}

func (s *Session) upsert(u ActorUpdate) {
	switch s.reg.Upsert(u) {
	case UpsertCreated:
		s.log.Infof("player joined: id=%s name=%s", u.ID, u.Name)
		s.publishOnline()
	case UpsertIgnored:
		s.log.Debugf("ignoring echo for local id=%s", u.ID)
	}
}

// sessionHandler 路由的下游；不导出，外部只能通过会话的公开方法改变状态
type sessionHandler struct {
	s *Session
}

// JoinSnapshot 加入快照：先做一次性资料覆盖，再逐个走 upsert
func (h sessionHandler) JoinSnapshot(snap JoinSnapshot) {
	s := h.s
	override, first := s.join.resolve(snap)
	if override != nil {
		s.local.Profile = override
		if override.Username != "" {
			s.local.DisplayName = override.Username
		}
		s.log.Infof("authoritative profile applied: user=%s", s.local.ID)
		s.bus.Publish(SelfProfileChanged{Profile: *override, Authoritative: true})
	}
	for _, p := range snap.Players {
		s.upsert(p)
	}
	if first && s.state == StateConnected {
		s.setState(StateJoined)
		s.log.Infof("joined room=%s existing=%d", s.cfg.RoomID, len(snap.Players))
	}
}

func (h sessionHandler) ActorJoin(u ActorUpdate) {
	h.s.upsert(u)
}

func (h sessionHandler) ActorUpdate(u ActorUpdate) {
	h.s.upsert(u)
}

func (h sessionHandler) ActorLeave(id string) {
	if h.s.reg.Remove(id) {
		h.s.log.Infof("player left: id=%s", id)
		h.s.publishOnline()
	}
}

func (h sessionHandler) ObjectInteraction(i Interaction) {
	h.s.bus.Publish(ObjectInteraction{PlayerID: i.PlayerID, ObjectID: i.ObjectID, Action: i.Action})
}

func (h sessionHandler) ProtocolError(e *ProtocolError) {
	h.s.log.Warnf("server error: %s", e.Message)
}
