package server

import (
	"sync/atomic"
)

// RoomMetrics 房间运行期指标（监控与调试用），原子计数可跨协程读
type RoomMetrics struct {
	TickCount          int64 // Tick 次数
	TotalTickNs        int64 // Tick 累计耗时（纳秒）
	InputsAccepted     int64 // 被接受进入延迟队列的输入数
	RateLimited        int64 // 因限速被拒绝的输入数
	MalformedDropped   int64 // JSON 解析失败被丢弃的消息数
	UnknownIgnored     int64 // 未知 type 被忽略的消息数
	ChanFullDiscarded  int64 // 因通道满被丢弃的输入数
	SnapshotsSent      int64 // 实际写出的快照数
	SendsSkippedClosed int64 // 投递时连接已断开而被跳过的消息数
	CoinsSpawned       int64
	CoinsCollected     int64
}

func (m *RoomMetrics) IncAccepted()      { atomic.AddInt64(&m.InputsAccepted, 1) }
func (m *RoomMetrics) IncRateLimited()   { atomic.AddInt64(&m.RateLimited, 1) }
func (m *RoomMetrics) IncMalformed()     { atomic.AddInt64(&m.MalformedDropped, 1) }
func (m *RoomMetrics) IncUnknown()       { atomic.AddInt64(&m.UnknownIgnored, 1) }
func (m *RoomMetrics) IncChanFull()      { atomic.AddInt64(&m.ChanFullDiscarded, 1) }
func (m *RoomMetrics) IncSkippedClosed() { atomic.AddInt64(&m.SendsSkippedClosed, 1) }

func (m *RoomMetrics) AddSnapshots(n int)      { atomic.AddInt64(&m.SnapshotsSent, int64(n)) }
func (m *RoomMetrics) AddCoinsSpawned(n int)   { atomic.AddInt64(&m.CoinsSpawned, int64(n)) }
func (m *RoomMetrics) AddCoinsCollected(n int) { atomic.AddInt64(&m.CoinsCollected, int64(n)) }

func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

// Snapshot 只读副本，供 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":           tick,
		"avg_tick_ms":          avgMs,
		"inputs_accepted":      atomic.LoadInt64(&m.InputsAccepted),
		"rate_limited":         atomic.LoadInt64(&m.RateLimited),
		"malformed_dropped":    atomic.LoadInt64(&m.MalformedDropped),
		"unknown_ignored":      atomic.LoadInt64(&m.UnknownIgnored),
		"chan_full_discarded":  atomic.LoadInt64(&m.ChanFullDiscarded),
		"snapshots_sent":       atomic.LoadInt64(&m.SnapshotsSent),
		"sends_skipped_closed": atomic.LoadInt64(&m.SendsSkippedClosed),
		"coins_spawned":        atomic.LoadInt64(&m.CoinsSpawned),
		"coins_collected":      atomic.LoadInt64(&m.CoinsCollected),
	}
}
