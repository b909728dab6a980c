package server

import (
	"sync"

	"go.uber.org/zap"

	"roomsync/proto"
)

// RoomManager 管理多个房间的生命周期
type RoomManager struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	profiles *ProfileStore
	log      *zap.SugaredLogger
}

// NewRoomManager 创建房间管理器；所有房间共享同一份资料存储
func NewRoomManager(log *zap.SugaredLogger) *RoomManager {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RoomManager{
		rooms:    make(map[string]*Room),
		profiles: NewProfileStore(),
		log:      log,
	}
}

// GetOrCreateRoom 获取或创建房间，并确保开始 Tick
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.profiles, m.log)
		m.rooms[id] = r
		r.StartTicker()
		m.log.Infof("room created: %s", id)
	}
	return r
}

// Room 查询已存在的房间
func (m *RoomManager) Room(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// Close 停止所有房间
func (m *RoomManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.rooms {
		r.Stop()
		delete(m.rooms, id)
	}
}

// ProfileStore 进程内的资料存储，是 joinedRoom.myProfile 的来源
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]proto.Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[string]proto.Profile)}
}

// Resolve 已存资料优先；否则记录客户端带来的资料
func (s *ProfileStore) Resolve(userID string, offered *proto.Profile) *proto.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return &p
	}
	if offered == nil {
		return nil
	}
	s.profiles[userID] = *offered
	p := *offered
	return &p
}

// Put 覆盖保存
func (s *ProfileStore) Put(userID string, p proto.Profile) {
	s.mu.Lock()
	s.profiles[userID] = p
	s.mu.Unlock()
}
