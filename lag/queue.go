// Package lag 实现人工网络延迟：所有跨网络边界的消息先进入延迟队列，
// 到点后才真正投递。服务端房间循环与客户端 Runner 各持有自己的实例。
package lag

import "time"

type entry[T any] struct {
	at  time.Time
	seq uint64 // 入队序号，同一时刻保持 FIFO
	v   T
}

// Queue 按投递时刻排序的延迟队列（小顶堆）
// 不自带定时器：由持有它的事件循环对 NextDue 设置唤醒，避免每条消息一个 timer
type Queue[T any] struct {
	heap    []entry[T]
	nextSeq uint64
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

// Push 安排 v 在 at 时刻投递，内容原样保留
func (q *Queue[T]) Push(at time.Time, v T) {
	q.heap = append(q.heap, entry[T]{at: at, seq: q.nextSeq, v: v})
	q.nextSeq++
	q.siftUp(len(q.heap) - 1)
}

// PopDue 取出所有投递时刻 <= now 的消息，按 (时刻, 入队序) 升序
// 同一目的地、固定延迟下等价于发送序，即保证 per-destination FIFO
func (q *Queue[T]) PopDue(now time.Time) []T {
	var due []T
	for len(q.heap) > 0 && !q.heap[0].at.After(now) {
		due = append(due, q.heap[0].v)
		q.popMin()
	}
	return due
}

// NextDue 下一条消息的投递时刻；队列为空时 ok 为 false
func (q *Queue[T]) NextDue() (time.Time, bool) {
	if len(q.heap) == 0 {
		return time.Time{}, false
	}
	return q.heap[0].at, true
}

func (q *Queue[T]) Len() int {
	return len(q.heap)
}

func (q *Queue[T]) less(i, j int) bool {
	if !q.heap[i].at.Equal(q.heap[j].at) {
		return q.heap[i].at.Before(q.heap[j].at)
	}
	return q.heap[i].seq < q.heap[j].seq
}

func (q *Queue[T]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !q.less(i, parent) {
			return
		}
		q.heap[i], q.heap[parent] = q.heap[parent], q.heap[i]
		i = parent
	}
}

func (q *Queue[T]) popMin() {
	last := len(q.heap) - 1
	q.heap[0] = q.heap[last]
	q.heap[last] = entry[T]{} // 释放引用
	q.heap = q.heap[:last]
	q.siftDown(0)
}

func (q *Queue[T]) siftDown(i int) {
	n := len(q.heap)
	for {
		left, right := 2*i+1, 2*i+2
		smallest := i
		if left < n && q.less(left, smallest) {
			smallest = left
		}
		if right < n && q.less(right, smallest) {
			smallest = right
		}
		if smallest == i {
			return
		}
		q.heap[i], q.heap[smallest] = q.heap[smallest], q.heap[i]
		i = smallest
	}
}
