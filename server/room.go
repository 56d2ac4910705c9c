package server

import (
	"sync/atomic"
	"time"

	"syncarena/config"
	"syncarena/lag"
	"syncarena/protocol"
)

// RoomConfig 房间循环持有的可热更新参数；管理接口通过原子指针读快照
type RoomConfig struct {
	LagMs           int     `json:"lagMs"`
	Speed           float64 `json:"speed"`
	SpawnIntervalMs int     `json:"spawnIntervalMs"`
	MaxCoins        int     `json:"maxCoins"`
}

// Room 一个独立的竞技场：权威世界 + 单协程事件循环
// 所有世界变更（输入生效、进出、Tick、金币生成）都在 Run 协程内串行执行
type Room struct {
	ID string

	world   *World
	reg     *Registry
	metrics *RoomMetrics

	joinChan  chan joinReq
	leaveChan chan Conn
	inputChan chan inputEvent
	cfgChan   chan ConfigPatch
	quit      chan struct{}

	// 双向共用一条延迟队列：入站输入与出站广播都经过固定人工延迟
	delays     *lag.Queue[delivery]
	delayTimer *time.Timer

	cfg atomic.Pointer[RoomConfig]

	tickInterval time.Duration
	maxTickDelta time.Duration
	lastTick     time.Time

	started bool
}

// NewRoom 创建房间，初始化数据结构；循环由 StartTicker 启动
func NewRoom(id string, cfg *config.Config) *Room {
	r := &Room{
		ID:      id,
		metrics: &RoomMetrics{},

		joinChan:  make(chan joinReq, 16),
		leaveChan: make(chan Conn, 64),
		inputChan: make(chan inputEvent, 256), // 足够缓冲，避免读协程阻塞影响 Tick
		cfgChan:   make(chan ConfigPatch, 8),
		quit:      make(chan struct{}),

		delays:     lag.NewQueue[delivery](),
		delayTimer: time.NewTimer(time.Hour),

		tickInterval: time.Second / time.Duration(cfg.TickRate),
		maxTickDelta: time.Duration(cfg.MaxTickDeltaMs) * time.Millisecond,
	}
	r.delayTimer.Stop()
	r.world = NewWorld(cfg)
	r.reg = NewRegistry(r.world)
	r.cfg.Store(&RoomConfig{
		LagMs:           cfg.LagMs,
		Speed:           cfg.PlayerSpeed,
		SpawnIntervalMs: cfg.SpawnIntervalMs,
		MaxCoins:        cfg.MaxCoins,
	})
	return r
}

// Config 当前热更新参数快照（任意协程可读）
func (r *Room) Config() RoomConfig {
	return *r.cfg.Load()
}

func (r *Room) Metrics() *RoomMetrics {
	return r.metrics
}

// Join 接入连接并返回分配的玩家 ID（阻塞到房间循环处理完）
func (r *Room) Join(conn Conn) int {
	reply := make(chan int, 1)
	r.joinChan <- joinReq{conn: conn, reply: reply}
	return <-reply
}

// RequestLeave 请求在房间循环里移除连接；通道有容量，不会死锁
func (r *Room) RequestLeave(conn Conn) {
	r.leaveChan <- conn
}

// OnInput 入站输入意图；拥塞时丢弃，保证 Tick 准时
func (r *Room) OnInput(conn Conn, in protocol.Input) {
	select {
	case r.inputChan <- inputEvent{conn: conn, input: in}:
	default:
		r.metrics.IncChanFull()
	}
}

// ApplyConfig 管理接口的热更新入口
func (r *Room) ApplyConfig(patch ConfigPatch) {
	r.cfgChan <- patch
}

func (r *Room) Stop() {
	close(r.quit)
}

func (r *Room) lagDuration() time.Duration {
	return time.Duration(r.cfg.Load().LagMs) * time.Millisecond
}

// handleJoin 注册玩家、下发 init、广播人数
func (r *Room) handleJoin(j joinReq) {
	p := r.reg.Register(j.conn)
	cfg := r.Config()
	b, err := protocol.Encode(protocol.Init{
		Type:   protocol.MsgInit,
		YourID: p.ID,
		World:  protocol.WorldSize{Width: r.world.Width, Height: r.world.Height},
		LagMs:  cfg.LagMs,
	})
	if err == nil {
		r.schedule(delivery{conn: j.conn, data: b})
	}
	r.broadcastCount()
	Log.Infof("room=%s player=%d joined, online=%d", r.ID, p.ID, r.reg.Count())
	j.reply <- p.ID
}

// handleLeave 幂等移除；在途的延迟消息留在队列里，投递时做存活检查后丢弃
func (r *Room) handleLeave(conn Conn) {
	p, ok := r.reg.Find(conn)
	if !r.reg.Unregister(conn) {
		return
	}
	conn.Close()
	r.broadcastCount()
	if ok {
		Log.Infof("room=%s player=%d left, online=%d", r.ID, p.ID, r.reg.Count())
	}
}

// schedule 把消息压入延迟队列并重设唤醒定时器
func (r *Room) schedule(d delivery) {
	r.delays.Push(time.Now().Add(r.lagDuration()), d)
	r.armDelayTimer()
}

// broadcastCount 人数通知，同样走人工延迟
func (r *Room) broadcastCount() {
	b, err := protocol.Encode(protocol.PlayerCount{Type: protocol.MsgPlayerCount, Count: r.reg.Count()})
	if err != nil {
		return
	}
	due := time.Now().Add(r.lagDuration())
	for _, p := range r.world.Players() {
		if p.Conn == nil {
			continue
		}
		r.delays.Push(due, delivery{conn: p.Conn, data: b})
	}
	r.armDelayTimer()
}

// broadcastState 构建本 Tick 的全量快照，给每个连接安排一份延迟投递
// 同一批次投递时刻相同，队列保证批内按入队序送达
func (r *Room) broadcastState(now time.Time) {
	if r.world.PlayerCount() == 0 {
		return
	}
	st := protocol.State{
		Type:       protocol.MsgState,
		ServerTime: now.UnixMilli(),
		Players:    make([]protocol.PlayerState, 0, r.world.PlayerCount()),
		Coins:      make([]protocol.CoinState, 0, r.world.CoinCount()),
	}
	for _, p := range r.world.Players() {
		st.Players = append(st.Players, protocol.PlayerState{
			ID: p.ID, X: p.Pos.X(), Y: p.Pos.Y(), Score: p.Score,
		})
	}
	for _, c := range r.world.Coins() {
		st.Coins = append(st.Coins, protocol.CoinState{ID: c.ID, X: c.Pos.X(), Y: c.Pos.Y()})
	}
	b, err := protocol.Encode(st)
	if err != nil {
		Log.Warnf("room=%s encode state: %v", r.ID, err)
		return
	}
	due := now.Add(r.lagDuration())
	for _, p := range r.world.Players() {
		if p.Conn == nil {
			continue
		}
		r.delays.Push(due, delivery{conn: p.Conn, data: b})
	}
	r.metrics.AddSnapshots(r.world.PlayerCount())
	r.armDelayTimer()
}

// flushDue 投递所有到点的消息；目的地已断开则静默跳过（不算错误）
func (r *Room) flushDue(now time.Time) {
	for _, d := range r.delays.PopDue(now) {
		if d.input != nil {
			// 入站：延迟结束后才写入玩家意图；玩家已离开则丢弃
			if p, ok := r.reg.Find(d.conn); ok {
				p.Input = InputState{
					Up:    d.input.Up,
					Down:  d.input.Down,
					Left:  d.input.Left,
					Right: d.input.Right,
				}
			}
			continue
		}
		if _, ok := r.reg.Find(d.conn); !ok {
			r.metrics.IncSkippedClosed()
			continue
		}
		d.conn.Enqueue(d.data)
	}
}

// applyPatch 在循环内生效热更新，避免与 Tick 竞争
func (r *Room) applyPatch(patch ConfigPatch, spawn *time.Ticker) {
	cur := r.Config()
	if patch.LagMs != nil {
		cur.LagMs = *patch.LagMs
	}
	if patch.Speed != nil {
		cur.Speed = *patch.Speed
		r.world.Speed = *patch.Speed
	}
	if patch.SpawnIntervalMs != nil && *patch.SpawnIntervalMs > 0 {
		cur.SpawnIntervalMs = *patch.SpawnIntervalMs
		spawn.Reset(time.Duration(*patch.SpawnIntervalMs) * time.Millisecond)
	}
	if patch.MaxCoins != nil {
		cur.MaxCoins = *patch.MaxCoins
	}
	r.cfg.Store(&cur)
	Log.Infof("room=%s config updated: lag=%dms speed=%.1f spawn=%dms maxCoins=%d",
		r.ID, cur.LagMs, cur.Speed, cur.SpawnIntervalMs, cur.MaxCoins)
}
