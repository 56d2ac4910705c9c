package client

// SkewEstimator 维护服务端逻辑时间与本地时钟的平滑偏移估计
// 每收到一个快照做一次指数平滑：skew = 0.9*skew + 0.1*样本偏移，初值 0
type SkewEstimator struct {
	skew float64
}

// Observe 用一个快照的 (serverTime, localNow) 更新估计
func (e *SkewEstimator) Observe(serverTime, localNow int64) {
	offset := float64(serverTime - localNow)
	e.skew = 0.9*e.skew + 0.1*offset
}

// Skew 当前偏移估计（毫秒，可为负）
func (e *SkewEstimator) Skew() float64 {
	return e.skew
}

// ServerNow 把本地时刻换算成估计的服务端当前时间
func (e *SkewEstimator) ServerNow(localNow int64) float64 {
	return float64(localNow) + e.skew
}
