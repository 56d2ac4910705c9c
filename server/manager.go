package server

import (
	"sync"

	"syncarena/config"
)

// RoomManager 管理多个房间的生命周期；每个房间是独立的竞技场
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   *config.Config
}

var (
	defaultManager *RoomManager
	once           sync.Once
)

// InitRoomManager 进程启动时注入配置（重复调用只生效一次）
func InitRoomManager(cfg *config.Config) *RoomManager {
	once.Do(func() {
		defaultManager = &RoomManager{
			rooms: make(map[string]*Room),
			cfg:   cfg,
		}
	})
	return defaultManager
}

// GetRoomManager 单例房间管理器；必须先 InitRoomManager
func GetRoomManager() *RoomManager {
	return defaultManager
}

// GetOrCreateRoom 获取或创建房间，并确保事件循环已启动
func (m *RoomManager) GetOrCreateRoom(id string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		r = NewRoom(id, m.cfg)
		m.rooms[id] = r
		r.StartTicker()
		Log.Infof("room=%s created", id)
	}
	return r
}

// Rooms 当前所有房间 ID（监控用）
func (m *RoomManager) Rooms() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		out = append(out, id)
	}
	return out
}
