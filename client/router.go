package client

import (
	"encoding/json"
	"fmt"

	"roomsync/proto"
)

// Kind 入站信封的分类
type Kind string

const (
	KindUnknown           Kind = ""
	KindJoinSnapshot      Kind = "join-snapshot"
	KindActorJoin         Kind = "actor-join"
	KindActorUpdate       Kind = "actor-update"
	KindActorLeave        Kind = "actor-leave"
	KindObjectInteraction Kind = "object-interaction"
	KindProtocolError     Kind = "protocol-error"
)

// JoinSnapshot joinedRoom 的解码结果；Override 即 self-profile-override
type JoinSnapshot struct {
	Players  []ActorUpdate
	Override *Profile
}

// Interaction 其他玩家与物体的交互
type Interaction struct {
	PlayerID string
	ObjectID string
	Action   string
}

// Handler 路由的下游；会话实现它
type Handler interface {
	JoinSnapshot(JoinSnapshot)
	ActorJoin(ActorUpdate)
	ActorUpdate(ActorUpdate)
	ActorLeave(id string)
	ObjectInteraction(Interaction)
	ProtocolError(*ProtocolError)
}

// Classify 事件名 → 分类；未知事件返回 KindUnknown
func Classify(typ string) Kind {
	switch typ {
	case proto.TypeJoinedRoom:
		return KindJoinSnapshot
	case proto.TypePlayerJoined:
		return KindActorJoin
	case proto.TypePlayerMoved, proto.TypePlayerProfileUpdated:
		return KindActorUpdate
	case proto.TypePlayerLeft:
		return KindActorLeave
	case proto.TypePlayerInteracted:
		return KindObjectInteraction
	case proto.TypeError:
		return KindProtocolError
	default:
		return KindUnknown
	}
}

// Route 解码并分发一个信封；只做分类与校验，不含业务逻辑
// 载荷不合法时返回包裹 ErrMalformedMessage 的错误，且不调用 h
func Route(env proto.Envelope, h Handler) (Kind, error) {
	kind := Classify(env.Type)
	switch env.Type {
	case proto.TypeJoinedRoom:
		snap, err := decodeJoinedRoom(env.Payload)
		if err != nil {
			return kind, malformed(env.Type, err)
		}
		h.JoinSnapshot(snap)
	case proto.TypePlayerJoined:
		u, err := decodePlayer(env.Payload)
		if err != nil {
			return kind, malformed(env.Type, err)
		}
		h.ActorJoin(u)
	case proto.TypePlayerMoved:
		u, err := decodeMoved(env.Payload)
		if err != nil {
			return kind, malformed(env.Type, err)
		}
		h.ActorUpdate(u)
	case proto.TypePlayerProfileUpdated:
		u, err := decodeProfileUpdated(env.Payload)
		if err != nil {
			return kind, malformed(env.Type, err)
		}
		h.ActorUpdate(u)
	case proto.TypePlayerLeft:
		var m proto.PlayerLeft
		if err := decodeStrict(env.Payload, &m, "id"); err != nil {
			return kind, malformed(env.Type, err)
		}
		if m.ID == "" {
			return kind, malformed(env.Type, fmt.Errorf("empty id"))
		}
		h.ActorLeave(m.ID)
	case proto.TypePlayerInteracted:
		var m proto.PlayerInteracted
		if err := decodeStrict(env.Payload, &m, "playerId", "objectId", "action"); err != nil {
			return kind, malformed(env.Type, err)
		}
		h.ObjectInteraction(Interaction{PlayerID: m.PlayerID, ObjectID: m.ObjectID, Action: m.Action})
	case proto.TypeError:
		var m proto.Error
		if err := decodeStrict(env.Payload, &m, "message"); err != nil {
			return kind, malformed(env.Type, err)
		}
		h.ProtocolError(&ProtocolError{Message: m.Message})
	}
	return kind, nil
}

func malformed(typ string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedMessage, typ, err)
}

func decodeStrict(raw json.RawMessage, v any, required ...string) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty payload")
	}
	if err := proto.RequireFields(raw, required...); err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func decodeJoinedRoom(raw json.RawMessage) (JoinSnapshot, error) {
	var m struct {
		Players   []json.RawMessage `json:"players"`
		MyProfile *proto.Profile    `json:"myProfile"`
	}
	// players 缺失或为 null 视为空房间
	if err := decodeStrict(raw, &m); err != nil {
		return JoinSnapshot{}, err
	}
	snap := JoinSnapshot{Override: m.MyProfile}
	for i, p := range m.Players {
		u, err := decodePlayer(p)
		if err != nil {
			return JoinSnapshot{}, fmt.Errorf("players[%d]: %w", i, err)
		}
		snap.Players = append(snap.Players, u)
	}
	return snap, nil
}

func decodePlayer(raw json.RawMessage) (ActorUpdate, error) {
	var m proto.PlayerData
	if err := decodeStrict(raw, &m, "id", "name", "x", "y", "direction", "isMoving"); err != nil {
		return ActorUpdate{}, err
	}
	if m.ID == "" {
		return ActorUpdate{}, fmt.Errorf("empty id")
	}
	dir, err := proto.ParseDirection(string(m.Direction))
	if err != nil {
		return ActorUpdate{}, err
	}
	moving := m.IsMoving
	return ActorUpdate{
		ID:        m.ID,
		Name:      m.Name,
		Image:     m.Image,
		Position:  &Vec2{X: m.X, Y: m.Y},
		Direction: dir,
		IsMoving:  &moving,
		Profile:   m.Profile,
	}, nil
}

func decodeMoved(raw json.RawMessage) (ActorUpdate, error) {
	var m proto.PlayerMoved
	if err := decodeStrict(raw, &m, "id", "x", "y", "direction", "isMoving"); err != nil {
		return ActorUpdate{}, err
	}
	if m.ID == "" {
		return ActorUpdate{}, fmt.Errorf("empty id")
	}
	dir, err := proto.ParseDirection(string(m.Direction))
	if err != nil {
		return ActorUpdate{}, err
	}
	moving := m.IsMoving
	return ActorUpdate{
		ID:        m.ID,
		Position:  &Vec2{X: m.X, Y: m.Y},
		Direction: dir,
		IsMoving:  &moving,
	}, nil
}

// decodeProfileUpdated 资料更新折叠为不带坐标的 actor-update
func decodeProfileUpdated(raw json.RawMessage) (ActorUpdate, error) {
	var m proto.PlayerProfileUpdated
	if err := decodeStrict(raw, &m, "id", "profile"); err != nil {
		return ActorUpdate{}, err
	}
	if m.ID == "" {
		return ActorUpdate{}, fmt.Errorf("empty id")
	}
	profile := m.Profile
	return ActorUpdate{
		ID:      m.ID,
		Name:    m.Name,
		Profile: &profile,
	}, nil
}
