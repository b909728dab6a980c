package client

import "sort"

// UpsertResult Upsert 的结果
type UpsertResult int

const (
	// UpsertIgnored 自身回显被抑制
	UpsertIgnored UpsertResult = iota
	UpsertCreated
	UpsertUpdated
)

// Registry 远端角色注册表：每个 id 至多一个条目，且不含本地 id
// 只在会话所在的执行上下文中访问，不加锁
type Registry struct {
	localID string
	actors  map[string]*RemoteActor
}

// NewRegistry 创建注册表；localID 的事件一律忽略
func NewRegistry(localID string) *Registry {
	return &Registry{
		localID: localID,
		actors:  make(map[string]*RemoteActor),
	}
}

// Upsert 加入、移动、资料更新的唯一入口
//   - 本地 id：忽略（服务端可能把广播回显给发送方）
//   - 未知 id：新建，Target 与 Render 同为初始坐标，避免出生时跳变
//   - 已知 id：只更新 Target/Direction/IsMoving/Profile，Render 交给插值收敛
func (r *Registry) Upsert(u ActorUpdate) UpsertResult {
	if u.ID == "" || u.ID == r.localID {
		return UpsertIgnored
	}

	a, ok := r.actors[u.ID]
	if !ok {
		a = &RemoteActor{
			ID:          u.ID,
			DisplayName: u.Name,
			Image:       u.Image,
			Direction:   DirDown,
		}
		if u.Position != nil {
			a.Target = *u.Position
			a.Render = *u.Position
		}
		if u.Direction != "" {
			a.Direction = u.Direction
		}
		if u.IsMoving != nil {
			a.IsMoving = *u.IsMoving
		}
		a.Profile = cloneProfile(u.Profile)
		if a.Profile != nil && a.Profile.Username != "" {
			a.DisplayName = a.Profile.Username
		}
		r.actors[u.ID] = a
		return UpsertCreated
	}

	if u.Position != nil {
		a.Target = *u.Position
	}
	if u.Direction != "" {
		a.Direction = u.Direction
	}
	if u.IsMoving != nil {
		a.IsMoving = *u.IsMoving
	}
	if u.Image != "" {
		a.Image = u.Image
	}
	if u.Profile != nil {
		a.Profile = cloneProfile(u.Profile)
		if u.Profile.Username != "" {
			a.DisplayName = u.Profile.Username
		} else if u.Name != "" {
			a.DisplayName = u.Name
		}
	}
	return UpsertUpdated
}

// Remove 删除条目；不存在时什么也不做
func (r *Registry) Remove(id string) bool {
	if _, ok := r.actors[id]; !ok {
		return false
	}
	delete(r.actors, id)
	return true
}

// Clear 清空全部条目，返回清掉的数量
func (r *Registry) Clear() int {
	n := len(r.actors)
	clear(r.actors)
	return n
}

// Count 远端角色数量；对外展示的在线人数为 Count()+1
func (r *Registry) Count() int {
	return len(r.actors)
}

// Get 返回条目副本
func (r *Registry) Get(id string) (RemoteActor, bool) {
	a, ok := r.actors[id]
	if !ok {
		return RemoteActor{}, false
	}
	cp := *a
	cp.Profile = cloneProfile(a.Profile)
	return cp, true
}

// Snapshot 按 id 排序的副本列表
func (r *Registry) Snapshot() []RemoteActor {
	out := make([]RemoteActor, 0, len(r.actors))
	for _, id := range r.ids() {
		a, _ := r.Get(id)
		out = append(out, a)
	}
	return out
}

func (r *Registry) ids() []string {
	ids := make([]string, 0, len(r.actors))
	for id := range r.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
