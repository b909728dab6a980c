package proto

import (
	"encoding/json"
	"fmt"
)

// 客户端 → 服务端事件名
const (
	TypeJoinRoom      = "joinRoom"
	TypeMove          = "move"
	TypeUpdateProfile = "updateProfile"
	TypeInteract      = "interact"
)

// 服务端 → 客户端事件名
const (
	TypeJoinedRoom           = "joinedRoom"
	TypePlayerJoined         = "playerJoined"
	TypePlayerMoved          = "playerMoved"
	TypePlayerProfileUpdated = "playerProfileUpdated"
	TypePlayerLeft           = "playerLeft"
	TypePlayerInteracted     = "playerInteracted"
	TypeError                = "error"
)

// Envelope 线上统一信封：{"type": ..., "payload": {...}}
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Encode 将事件名与载荷编码为一帧文本消息
func Encode(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw})
}

// Direction 朝向
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ParseDirection 解析方向字符串；空串返回 ("", nil) 表示未携带
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirUp, DirDown, DirLeft, DirRight:
		return d, nil
	case "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// Profile 玩家资料；可选字段为空表示未填写
type Profile struct {
	Username  string `json:"username" jsonschema:"required"`
	About     string `json:"about" jsonschema:"required"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

// PlayerData 房间内某个玩家的完整状态（快照与加入事件共用）
type PlayerData struct {
	ID        string    `json:"id" jsonschema:"required"`
	Name      string    `json:"name" jsonschema:"required"`
	Image     string    `json:"image,omitempty"`
	X         float64   `json:"x" jsonschema:"required"`
	Y         float64   `json:"y" jsonschema:"required"`
	Direction Direction `json:"direction" jsonschema:"required,enum=up,enum=down,enum=left,enum=right"`
	IsMoving  bool      `json:"isMoving" jsonschema:"required"`
	Profile   *Profile  `json:"profile,omitempty"`
}

// JoinRoom 加入房间请求
type JoinRoom struct {
	RoomID      string   `json:"roomId" jsonschema:"required"`
	UserID      string   `json:"userId" jsonschema:"required"`
	UserName    string   `json:"userName" jsonschema:"required"`
	UserImage   string   `json:"userImage,omitempty"`
	UserProfile *Profile `json:"userProfile,omitempty"`
}

// JoinedRoom 加入成功后的一次性快照；MyProfile 为服务端权威资料
type JoinedRoom struct {
	Players   []PlayerData `json:"players" jsonschema:"required"`
	MyProfile *Profile     `json:"myProfile,omitempty"`
}

// PlayerMoved 远端玩家移动
type PlayerMoved struct {
	ID        string    `json:"id" jsonschema:"required"`
	X         float64   `json:"x" jsonschema:"required"`
	Y         float64   `json:"y" jsonschema:"required"`
	Direction Direction `json:"direction" jsonschema:"required,enum=up,enum=down,enum=left,enum=right"`
	IsMoving  bool      `json:"isMoving" jsonschema:"required"`
}

// PlayerProfileUpdated 远端玩家资料变更
type PlayerProfileUpdated struct {
	ID      string  `json:"id" jsonschema:"required"`
	Profile Profile `json:"profile" jsonschema:"required"`
	Name    string  `json:"name"`
}

// PlayerLeft 远端玩家离开
type PlayerLeft struct {
	ID string `json:"id" jsonschema:"required"`
}

// Move 本地玩家状态（限频约 20Hz）
type Move struct {
	X         float64   `json:"x" jsonschema:"required"`
	Y         float64   `json:"y" jsonschema:"required"`
	Direction Direction `json:"direction" jsonschema:"required,enum=up,enum=down,enum=left,enum=right"`
	IsMoving  bool      `json:"isMoving" jsonschema:"required"`
}

// Interact 对场景物体的交互（透传）
type Interact struct {
	ObjectID string `json:"objectId" jsonschema:"required"`
	Action   string `json:"action" jsonschema:"required"`
}

// PlayerInteracted 其他玩家的交互广播
type PlayerInteracted struct {
	PlayerID string `json:"playerId" jsonschema:"required"`
	ObjectID string `json:"objectId" jsonschema:"required"`
	Action   string `json:"action" jsonschema:"required"`
}

// Error 服务端错误通知（非致命）
type Error struct {
	Message string `json:"message" jsonschema:"required"`
}

// RequireFields 检查原始 JSON 对象中必填键是否存在
func RequireFields(raw json.RawMessage, keys ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("payload is not an object: %w", err)
	}
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || string(v) == "null" {
			return fmt.Errorf("missing field %q", k)
		}
	}
	return nil
}
