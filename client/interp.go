package client

import "github.com/paulmach/orb"

// SampleAt 在渲染时刻 t（服务端时间毫秒）重建位置：
//   - 缓冲为空：ok 为 false，本帧不画这个玩家
//   - t 在最早样本之前：钳到最早样本，不向后外推
//   - t 在最新样本之后：钳到最新样本，不向前外推（网络停顿时宁可停住）
//   - 否则在跨越 t 的相邻两样本之间线性插值；分数取后一个样本，跳变不渐变
func (b *Buffer) SampleAt(t float64) (Sample, bool) {
	n := len(b.samples)
	if n == 0 {
		return Sample{}, false
	}
	if t <= float64(b.samples[0].Time) {
		return b.samples[0], true
	}
	last := b.samples[n-1]
	if t >= float64(last.Time) {
		return last, true
	}
	// 从新到旧找跨越点：渲染时刻通常贴近缓冲尾部
	for i := n - 1; i > 0; i-- {
		a, bb := b.samples[i-1], b.samples[i]
		if float64(a.Time) <= t && t <= float64(bb.Time) {
			return lerp(a, bb, t), true
		}
	}
	// 不可达：上面的边界钳位已覆盖两端
	return last, true
}

func lerp(a, b Sample, t float64) Sample {
	span := float64(b.Time - a.Time)
	if span <= 0 {
		return b
	}
	f := (t - float64(a.Time)) / span
	return Sample{
		Time: int64(t),
		Pos: orb.Point{
			a.Pos.X() + (b.Pos.X()-a.Pos.X())*f,
			a.Pos.Y() + (b.Pos.Y()-a.Pos.Y())*f,
		},
		Score: b.Score,
	}
}
