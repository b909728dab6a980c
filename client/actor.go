package client

import "roomsync/proto"

type (
	Direction = proto.Direction
	Profile   = proto.Profile
)

const (
	DirUp    = proto.DirUp
	DirDown  = proto.DirDown
	DirLeft  = proto.DirLeft
	DirRight = proto.DirRight
)

// Vec2 世界坐标
type Vec2 struct {
	X float64
	Y float64
}

// Identity 由会话/身份协作方在构造时提供
type Identity struct {
	UserID      string
	DisplayName string
	AvatarRef   string
	Profile     *Profile
}

// LocalActor 本地角色状态，每个会话恰好一个，仅由本地模拟修改
type LocalActor struct {
	ID          string
	DisplayName string
	AvatarRef   string
	Profile     *Profile
	Position    Vec2
	Direction   Direction
	IsMoving    bool
}

// RemoteActor 远端角色在本地的镜像
type RemoteActor struct {
	ID          string
	DisplayName string
	Image       string

	// Target 最近一次收到的权威坐标；Render 为当前显示坐标，向 Target 收敛
	Target Vec2
	Render Vec2

	Direction Direction
	IsMoving  bool
	Profile   *Profile
}

// ProfileOrFallback 返回展示用资料：无资料时以显示名兜底
func (a RemoteActor) ProfileOrFallback() Profile {
	if a.Profile != nil {
		return *a.Profile
	}
	return Profile{Username: a.DisplayName}
}

// ActorUpdate 进入注册表的统一变更（加入、移动、资料更新都走这里）
// 指针/空值字段表示该事件未携带此项
type ActorUpdate struct {
	ID        string
	Name      string
	Image     string
	Position  *Vec2
	Direction Direction
	IsMoving  *bool
	Profile   *Profile
}

// RenderState 交给渲染协作方的逻辑表示
type RenderState struct {
	ID        string
	Name      string
	X         float64
	Y         float64
	Direction Direction
	IsMoving  bool
}

func cloneProfile(p *Profile) *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
