// Package client 实现客户端侧的状态重建：快照缓冲、时钟偏移估计与
// 延迟插值渲染，以及一个无头 Runner（机器人）驱动完整的客户端链路。
package client

import "github.com/paulmach/orb"

// Sample 一个远端玩家在某个服务端时刻的采样
type Sample struct {
	Time  int64 // 服务端时间（毫秒 epoch）
	Pos   orb.Point
	Score int
}

// Buffer 单个远端玩家的快照环：按时间升序，超容量淘汰最旧
// 快照按服务端生成序到达（固定延迟），追加天然保持升序
type Buffer struct {
	capacity int
	samples  []Sample
}

func NewBuffer(capacity int) *Buffer {
	if capacity < 2 {
		capacity = 2 // 少于两个样本无法插值
	}
	return &Buffer{capacity: capacity}
}

// Append 追加样本，容量满时淘汰最旧的一个
func (b *Buffer) Append(s Sample) {
	if len(b.samples) == b.capacity {
		copy(b.samples, b.samples[1:])
		b.samples = b.samples[:len(b.samples)-1]
	}
	b.samples = append(b.samples, s)
}

func (b *Buffer) Len() int {
	return len(b.samples)
}

// Oldest 最早的样本；空缓冲时 ok 为 false
func (b *Buffer) Oldest() (Sample, bool) {
	if len(b.samples) == 0 {
		return Sample{}, false
	}
	return b.samples[0], true
}

// Latest 最新的样本
func (b *Buffer) Latest() (Sample, bool) {
	if len(b.samples) == 0 {
		return Sample{}, false
	}
	return b.samples[len(b.samples)-1], true
}
