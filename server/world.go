package server

import (
	"math/rand"
	"time"

	"github.com/paulmach/orb"

	"syncarena/config"
)

// World 权威世界状态：玩家与金币均按插入序保存
// 只允许房间循环单协程访问，无需加锁；碰撞的先到先得语义依赖插入序
type World struct {
	Width  float64
	Height float64

	PlayerRadius float64
	CoinRadius   float64
	Speed        float64 // 像素/秒，可被管理接口热更新

	players    []*Player
	playerByID map[int]*Player
	coins      []*Coin

	nextPlayerID int
	nextCoinID   int

	rng *rand.Rand
}

func NewWorld(cfg *config.Config) *World {
	return &World{
		Width:        cfg.WorldWidth,
		Height:       cfg.WorldHeight,
		PlayerRadius: cfg.PlayerRadius,
		CoinRadius:   cfg.CoinRadius,
		Speed:        cfg.PlayerSpeed,
		playerByID:   make(map[int]*Player),
		nextPlayerID: 1,
		nextCoinID:   1,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// AddPlayer 以随机合法位置、零分创建玩家；ID 单调分配，永不复用
func (w *World) AddPlayer(conn Conn) *Player {
	p := &Player{
		ID:   w.nextPlayerID,
		Pos:  w.randomPos(w.PlayerRadius),
		Conn: conn,
	}
	w.nextPlayerID++
	w.players = append(w.players, p)
	w.playerByID[p.ID] = p
	return p
}

// RemovePlayer 移除玩家，保持剩余玩家的插入序
func (w *World) RemovePlayer(id int) {
	if _, ok := w.playerByID[id]; !ok {
		return
	}
	delete(w.playerByID, id)
	for i, p := range w.players {
		if p.ID == id {
			w.players = append(w.players[:i], w.players[i+1:]...)
			return
		}
	}
}

func (w *World) PlayerByID(id int) (*Player, bool) {
	p, ok := w.playerByID[id]
	return p, ok
}

// Players 插入序的玩家列表，调用方不得修改
func (w *World) Players() []*Player {
	return w.players
}

func (w *World) PlayerCount() int {
	return len(w.players)
}

// SpawnCoin 在安全边距内随机落一枚金币
func (w *World) SpawnCoin() *Coin {
	c := &Coin{
		ID:  w.nextCoinID,
		Pos: w.randomPos(w.PlayerRadius + w.CoinRadius),
	}
	w.nextCoinID++
	w.coins = append(w.coins, c)
	return c
}

func (w *World) Coins() []*Coin {
	return w.coins
}

func (w *World) CoinCount() int {
	return len(w.coins)
}

// randomPos 均匀分布在 [margin, dim-margin] 的矩形内
func (w *World) randomPos(margin float64) orb.Point {
	return orb.Point{
		margin + w.rng.Float64()*(w.Width-2*margin),
		margin + w.rng.Float64()*(w.Height-2*margin),
	}
}
