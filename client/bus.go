package client

// Notification 会话向 UI 等协作方发布的通知
type Notification interface {
	notification()
}

// OnlineCountChanged 在线人数变化（含自己）
type OnlineCountChanged struct {
	Online int
}

// ShowProfile 请求展示某个远端玩家的资料
type ShowProfile struct {
	ActorID string
	Profile Profile
}

// SelfProfileChanged 本地资料被改写；Authoritative 表示来自加入时的服务端覆盖
type SelfProfileChanged struct {
	Profile       Profile
	Authoritative bool
}

// ObjectInteraction 其他玩家与场景物体交互（透传给外部协作方）
type ObjectInteraction struct {
	PlayerID string
	ObjectID string
	Action   string
}

// StateChanged 连接状态迁移
type StateChanged struct {
	From State
	To   State
}

func (OnlineCountChanged) notification() {}
func (ShowProfile) notification()        {}
func (SelfProfileChanged) notification() {}
func (ObjectInteraction) notification()  {}
func (StateChanged) notification()       {}

// Bus 在构造时注入的发布出口
type Bus interface {
	Publish(Notification)
}

type discardBus struct{}

func (discardBus) Publish(Notification) {}

// Listeners 同步分发的简单发布/订阅实现
// 与会话运行在同一个执行上下文中，不做加锁
type Listeners struct {
	subs []func(Notification)
}

// NewListeners 创建空的订阅表
func NewListeners() *Listeners {
	return &Listeners{}
}

// Subscribe 注册监听函数，按注册顺序调用
func (l *Listeners) Subscribe(fn func(Notification)) {
	if fn != nil {
		l.subs = append(l.subs, fn)
	}
}

// Publish 依次通知所有监听者
func (l *Listeners) Publish(n Notification) {
	for _, fn := range l.subs {
		fn(n)
	}
}
