package server

import (
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"roomsync/proto"
)

// Room 房间：玩家表只在 Tick 协程中读写
type Room struct {
	ID string

	Players  map[PlayerID]*Player
	inputs   chan Input
	done     chan struct{}
	stopOnce sync.Once
	profiles *ProfileStore
	metrics  *RoomMetrics
	log      *zap.SugaredLogger

	// 运行期可热更新的配置（admin 接口写，Tick 读）
	maxMovesPerTick atomic.Int64
	echoToSender    atomic.Bool

	tickSeq       atomic.Int64
	tickerStarted bool
}

// NewRoom 创建房间，初始化数据结构
func NewRoom(id string, profiles *ProfileStore, log *zap.SugaredLogger) *Room {
	if profiles == nil {
		profiles = NewProfileStore()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Room{
		ID:       id,
		Players:  make(map[PlayerID]*Player),
		inputs:   make(chan Input, 256), // 足够缓冲，避免网络读阻塞影响 Tick
		done:     make(chan struct{}),
		profiles: profiles,
		metrics:  &RoomMetrics{},
		log:      log.With("room", id),
	}
	r.maxMovesPerTick.Store(4)
	return r
}

// OnInput 入站意图，等下一次 Tick 处理
// move 拥塞时直接丢弃保证 Tick 准时；加入/离开/资料必须送达，阻塞等待
func (r *Room) OnInput(in Input) {
	if in.Kind == InputMove {
		select {
		case r.inputs <- in:
		default:
			r.metrics.IncChanFullDiscarded()
		}
		return
	}
	select {
	case r.inputs <- in:
	case <-r.done:
	}
}

// RequestLeave 请求在 Tick 线程中移除玩家；只移除仍绑定在该连接上的玩家
func (r *Room) RequestLeave(pid PlayerID, conn *ClientConn) {
	r.OnInput(Input{Kind: InputLeave, PlayerID: pid, Conn: conn})
}

// BeginTick 重置帧内计数
func (r *Room) BeginTick() {
	r.tickSeq.Add(1)
	for _, p := range r.Players {
		p.movesThis = 0
	}
}

// ProcessInputs 处理当前帧的所有输入意图（非阻塞 drain）
func (r *Room) ProcessInputs() {
	for {
		select {
		case in := <-r.inputs:
			r.apply(in)
		default:
			return
		}
	}
}

func (r *Room) apply(in Input) {
	switch in.Kind {
	case InputJoin:
		r.join(in)
	case InputLeave:
		r.leave(in)
	case InputMove:
		p, ok := r.Players[in.PlayerID]
		if !ok || p.Conn != in.Conn {
			return
		}
		if int64(p.movesThis) >= r.maxMovesPerTick.Load() {
			r.metrics.IncRateLimited()
			return
		}
		p.movesThis++
		p.X, p.Y = in.Move.X, in.Move.Y
		if in.Move.Direction != "" {
			p.Dir = in.Move.Direction
		}
		p.Moving = in.Move.IsMoving
		p.dirty = true
		r.metrics.IncAccepted()
	case InputProfile:
		p, ok := r.Players[in.PlayerID]
		if !ok || p.Conn != in.Conn {
			return
		}
		prof := *in.Profile
		r.profiles.Put(string(p.ID), prof)
		p.Profile = &prof
		if prof.Username != "" {
			p.Name = prof.Username
		}
		r.metrics.IncProfileUpdates()
		r.broadcast(p.ID, proto.TypePlayerProfileUpdated, proto.PlayerProfileUpdated{
			ID:      string(p.ID),
			Profile: prof,
			Name:    p.Name,
		})
	case InputInteract:
		if p, ok := r.Players[in.PlayerID]; !ok || p.Conn != in.Conn {
			return
		}
		r.metrics.IncInteractions()
		r.broadcast(in.PlayerID, proto.TypePlayerInteracted, proto.PlayerInteracted{
			PlayerID: string(in.PlayerID),
			ObjectID: in.Interact.ObjectID,
			Action:   in.Interact.Action,
		})
	}
}

// join 将玩家加入房间：回复 joinedRoom 快照，并通知其他人
func (r *Room) join(in Input) {
	req := in.Join
	if old, ok := r.Players[in.PlayerID]; ok && old.Conn != in.Conn {
		// 同一用户重复连接：旧连接下线，不广播离开
		if old.Conn != nil {
			old.Conn.Close()
		}
		delete(r.Players, in.PlayerID)
	}

	profile := r.profiles.Resolve(string(in.PlayerID), req.UserProfile)
	p := &Player{
		ID:      in.PlayerID,
		Name:    req.UserName,
		Image:   req.UserImage,
		X:       spawnX,
		Y:       spawnY,
		Dir:     proto.DirDown,
		Profile: profile,
		Conn:    in.Conn,
	}
	if profile != nil && profile.Username != "" {
		p.Name = profile.Username
	}

	others := r.snapshot()
	r.Players[p.ID] = p
	r.metrics.IncJoins()

	p.Conn.Send(proto.TypeJoinedRoom, proto.JoinedRoom{Players: others, MyProfile: profile})
	r.broadcast(p.ID, proto.TypePlayerJoined, p.Data())
	r.log.Infof("player joined: id=%s name=%s online=%d", p.ID, p.Name, len(r.Players))
}

// leave 将玩家移出房间
func (r *Room) leave(in Input) {
	p, ok := r.Players[in.PlayerID]
	if !ok || p.Conn != in.Conn {
		return
	}
	if p.Conn != nil {
		p.Conn.Close()
	}
	delete(r.Players, in.PlayerID)
	r.metrics.IncLeaves()
	r.broadcast(in.PlayerID, proto.TypePlayerLeft, proto.PlayerLeft{ID: string(in.PlayerID)})
	r.log.Infof("player left: id=%s online=%d", in.PlayerID, len(r.Players))
}

// BroadcastDelta 只广播本 Tick 位置有变化的玩家
func (r *Room) BroadcastDelta() {
	for _, id := range r.ids() {
		p := r.Players[id]
		if !p.dirty {
			continue
		}
		p.dirty = false
		r.broadcast(p.ID, proto.TypePlayerMoved, proto.PlayerMoved{
			ID:        string(p.ID),
			X:         p.X,
			Y:         p.Y,
			Direction: p.Dir,
			IsMoving:  p.Moving,
		})
	}
}

// broadcast 发给除 origin 以外的所有人；echoToSender 打开时也回显给 origin
func (r *Room) broadcast(origin PlayerID, typ string, payload any) {
	b, err := proto.Encode(typ, payload)
	if err != nil {
		r.log.Errorf("encode %s: %v", typ, err)
		return
	}
	echo := r.echoToSender.Load()
	for _, p := range r.Players {
		if p.ID == origin && !echo {
			continue
		}
		if p.Conn != nil {
			p.Conn.Enqueue(b)
		}
	}
}

func (r *Room) snapshot() []proto.PlayerData {
	out := make([]proto.PlayerData, 0, len(r.Players))
	for _, id := range r.ids() {
		out = append(out, r.Players[id].Data())
	}
	return out
}

func (r *Room) ids() []PlayerID {
	ids := make([]PlayerID, 0, len(r.Players))
	for id := range r.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
