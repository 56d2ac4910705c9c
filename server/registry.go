package server

// Conn 房间对网络连接的最小依赖，便于测试用假连接替换
type Conn interface {
	Enqueue(b []byte)
	Close()
}

// Registry 连接到玩家身份的映射，仅在房间循环内访问
type Registry struct {
	world  *World
	byConn map[Conn]*Player
}

func NewRegistry(world *World) *Registry {
	return &Registry{
		world:  world,
		byConn: make(map[Conn]*Player),
	}
}

// Register 为连接创建玩家并建立映射
func (r *Registry) Register(conn Conn) *Player {
	p := r.world.AddPlayer(conn)
	r.byConn[conn] = p
	return p
}

// Unregister 解除映射并移除玩家；重复解除是 no-op，返回是否真的移除了
func (r *Registry) Unregister(conn Conn) bool {
	p, ok := r.byConn[conn]
	if !ok {
		return false
	}
	delete(r.byConn, conn)
	r.world.RemovePlayer(p.ID)
	return true
}

// Find 查连接对应的玩家；投递延迟消息时用来做存活检查
func (r *Registry) Find(conn Conn) (*Player, bool) {
	p, ok := r.byConn[conn]
	return p, ok
}

func (r *Registry) Count() int {
	return len(r.byConn)
}
