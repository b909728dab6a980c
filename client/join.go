package client

import "roomsync/proto"

// joinRequest 根据本地状态构造 joinRoom 载荷
func joinRequest(roomID string, local LocalActor) proto.JoinRoom {
	return proto.JoinRoom{
		RoomID:      roomID,
		UserID:      local.ID,
		UserName:    local.DisplayName,
		UserImage:   local.AvatarRef,
		UserProfile: cloneProfile(local.Profile),
	}
}

// joinResolver 加入快照的一次性冲突解决：服务端资料只在此刻覆盖本地资料
// 每次 Connect 重新装填，处理完第一份快照或 Disconnect 后失效
type joinResolver struct {
	armed bool
}

func (j *joinResolver) arm()    { j.armed = true }
func (j *joinResolver) disarm() { j.armed = false }

// resolve 返回应当生效的权威资料；未装填或快照未携带时返回 nil
// 第二次及以后的调用一律返回 nil（之后以客户端为准）
func (j *joinResolver) resolve(snap JoinSnapshot) (override *Profile, first bool) {
	if !j.armed {
		return nil, false
	}
	j.armed = false
	return cloneProfile(snap.Override), true
}
