package client

import (
	"sort"

	"github.com/paulmach/orb"

	"syncarena/protocol"
)

// RenderedPlayer 一帧里某个玩家的重建结果
type RenderedPlayer struct {
	ID    int
	Pos   orb.Point
	Score int
}

// WorldView 客户端侧的世界镜像：每个远端玩家一个快照缓冲，
// 外加时钟偏移估计与最新一帧的金币/人数。只允许 Runner 循环访问。
type WorldView struct {
	bufferCap   int
	renderDelay float64 // 毫秒

	skew    SkewEstimator
	buffers map[int]*Buffer

	myID        int
	world       protocol.WorldSize
	lagMs       int
	playerCount int
	coins       []protocol.CoinState
}

func NewWorldView(bufferCap, renderDelayMs int) *WorldView {
	return &WorldView{
		bufferCap:   bufferCap,
		renderDelay: float64(renderDelayMs),
		buffers:     make(map[int]*Buffer),
	}
}

// ApplyInit 记录服务端分配的身份与世界参数
func (v *WorldView) ApplyInit(msg protocol.Init) {
	v.myID = msg.YourID
	v.world = msg.World
	v.lagMs = msg.LagMs
}

func (v *WorldView) ApplyPlayerCount(msg protocol.PlayerCount) {
	v.playerCount = msg.Count
}

// ApplyState 消化一个快照：更新偏移估计、追加各玩家样本、
// 丢掉不在最新快照里的玩家缓冲（离开的玩家没有显式移除消息）
func (v *WorldView) ApplyState(st protocol.State, localNow int64) {
	v.skew.Observe(st.ServerTime, localNow)

	seen := make(map[int]struct{}, len(st.Players))
	for _, p := range st.Players {
		seen[p.ID] = struct{}{}
		buf, ok := v.buffers[p.ID]
		if !ok {
			// 新玩家或重连：从零开始攒样本
			buf = NewBuffer(v.bufferCap)
			v.buffers[p.ID] = buf
		}
		buf.Append(Sample{
			Time:  st.ServerTime,
			Pos:   orb.Point{p.X, p.Y},
			Score: p.Score,
		})
	}
	for id := range v.buffers {
		if _, ok := seen[id]; !ok {
			delete(v.buffers, id)
		}
	}
	v.coins = st.Coins
}

// RenderTime 本帧应当展示的服务端时刻：估计的服务端当前时间再回看 renderDelay
func (v *WorldView) RenderTime(localNow int64) float64 {
	return v.skew.ServerNow(localNow) - v.renderDelay
}

// Frame 为一帧重建所有玩家的位置（按 ID 升序，输出稳定）
func (v *WorldView) Frame(localNow int64) []RenderedPlayer {
	t := v.RenderTime(localNow)
	out := make([]RenderedPlayer, 0, len(v.buffers))
	for id, buf := range v.buffers {
		s, ok := buf.SampleAt(t)
		if !ok {
			continue
		}
		out = append(out, RenderedPlayer{ID: id, Pos: s.Pos, Score: s.Score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v *WorldView) Skew() float64 {
	return v.skew.Skew()
}

func (v *WorldView) MyID() int {
	return v.myID
}

func (v *WorldView) World() protocol.WorldSize {
	return v.world
}

func (v *WorldView) PlayerCount() int {
	return v.playerCount
}

// LagMs 服务端宣告的单向人工延迟（毫秒）
func (v *WorldView) LagMs() int {
	return v.lagMs
}

// Coins 最新快照里的金币；金币不动，不做插值
func (v *WorldView) Coins() []protocol.CoinState {
	return v.coins
}

// TrackedPlayers 当前持有缓冲的玩家数（测试与监控用）
func (v *WorldView) TrackedPlayers() int {
	return len(v.buffers)
}
