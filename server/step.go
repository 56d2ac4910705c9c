package server

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Step 推进世界 dt 秒：积分位移 → 边界裁剪 → 结算金币碰撞
// 返回本次被拾取的金币数
func (w *World) Step(dt float64) int {
	for _, p := range w.players {
		w.movePlayer(p, dt)
	}
	return w.resolvePickups()
}

// movePlayer 由输入意图推导速度并积分
// 非零方向先归一化，斜向速度与轴向一致而不是 √2 倍
func (w *World) movePlayer(p *Player, dt float64) {
	dx := btof(p.Input.Right) - btof(p.Input.Left)
	dy := btof(p.Input.Down) - btof(p.Input.Up)
	if dx == 0 && dy == 0 {
		return
	}
	mag := math.Hypot(dx, dy)
	dx, dy = dx/mag, dy/mag

	x := p.Pos.X() + dx*w.Speed*dt
	y := p.Pos.Y() + dy*w.Speed*dt
	// 两轴各自硬裁剪，贴墙滑动时另一轴不受影响
	p.Pos = orb.Point{
		clamp(x, w.PlayerRadius, w.Width-w.PlayerRadius),
		clamp(y, w.PlayerRadius, w.Height-w.PlayerRadius),
	}
}

// resolvePickups 全员移动完成后结算碰撞
// 按玩家插入序扫描，一枚金币只会被本 Tick 里最先处理到的玩家拾取
func (w *World) resolvePickups() int {
	collected := 0
	reach := w.PlayerRadius + w.CoinRadius
	for _, p := range w.players {
		kept := w.coins[:0]
		for _, c := range w.coins {
			if planar.Distance(p.Pos, c.Pos) <= reach { // 含边界
				p.Score++
				collected++
				continue
			}
			kept = append(kept, c)
		}
		w.coins = kept
	}
	return collected
}

func btof(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
