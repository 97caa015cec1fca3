// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// defaultQueueCapacity is the per-ring bound used when NewSerialQueue
// is given a non-positive capacity. 256 absorbs a burst of immediate
// posts between consumer wakeups without growing past two pages.
const defaultQueueCapacity = 256

// task is one queue entry: the work, its group tag, and the group's
// cancellation mark captured at post time.
type task struct {
	group Group
	snap  uint32
	fn    func()
}

// SerialQueue is a bounded, ordered, single-consumer task queue — the
// package implementation of [TaskQueue]. Transport is two lock-free
// SPSC rings from lfq: a head ring PostToHead feeds and a tail ring
// Post feeds. The consumer drains the head ring first, so head posts
// run before every resident tail task; multiple head posts run in
// their own post order.
//
// At most one goroutine may produce and one may consume at a time
// (the same goroutine may do both). Producer operations never block
// except past a full ring, where the Try variants return
// [iox.ErrWouldBlock] instead.
//
// slot stages the task being enqueued; reusing it keeps producer
// calls allocation-free, which the single-producer contract makes
// safe.
type SerialQueue struct {
	head lfq.SPSC[task]
	tail lfq.SPSC[task]

	// stop counts stop requests; taken counts requests consumed by
	// ended serve cycles. Only the consumer advances taken.
	stop  atomix.Uint32
	taken uint32

	slot task
}

// NewSerialQueue creates a queue bounded to capacity tasks per ring,
// rounded up to a power of two no smaller than 2. Non-positive
// capacity selects the default.
func NewSerialQueue(capacity int) *SerialQueue {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	q := &SerialQueue{}
	q.head.Init(ceilPow2(capacity))
	q.tail.Init(ceilPow2(capacity))
	return q
}

// ceilPow2 rounds n up to the next power of two, floored at 2, the
// smallest ring capacity lfq accepts.
func ceilPow2(n int) int {
	c := 2
	for c < n {
		c <<= 1
	}
	return c
}

// TryPost appends fn to the queue tail, tagged with g. Non-blocking:
// returns [iox.ErrWouldBlock] when the tail ring is full.
func (q *SerialQueue) TryPost(g Group, fn func()) error {
	q.slot = task{group: g, snap: g.snapshot(), fn: fn}
	return q.tail.Enqueue(&q.slot)
}

// Post appends fn to the queue tail, tagged with g, waiting past a
// full ring with adaptive backoff.
func (q *SerialQueue) Post(g Group, fn func()) {
	q.slot = task{group: g, snap: g.snapshot(), fn: fn}
	enqueueWait(&q.tail, &q.slot)
}

// TryPostToHead inserts fn ahead of all resident tail tasks, tagged
// with g. Non-blocking: returns [iox.ErrWouldBlock] when the head
// ring is full.
func (q *SerialQueue) TryPostToHead(g Group, fn func()) error {
	q.slot = task{group: g, snap: g.snapshot(), fn: fn}
	return q.head.Enqueue(&q.slot)
}

// PostToHead inserts fn ahead of all resident tail tasks, tagged with
// g, waiting past a full ring with adaptive backoff.
func (q *SerialQueue) PostToHead(g Group, fn func()) {
	q.slot = task{group: g, snap: g.snapshot(), fn: fn}
	enqueueWait(&q.head, &q.slot)
}

// enqueueWait blocks until the ring accepts the task, backing off on
// iox.ErrWouldBlock (consumer behind).
func enqueueWait(ring *lfq.SPSC[task], t *task) {
	var bo iox.Backoff
	for {
		if err := ring.Enqueue(t); err == nil {
			return
		}
		bo.Wait()
	}
}

// CancelGroup discards every task currently queued under g: the
// consumer skips rather than runs them. Tasks posted after the
// cancellation carry a fresh mark and run normally. No-op for the
// zero Group.
func (q *SerialQueue) CancelGroup(g Group) {
	g.cancel()
}

// RunOne runs the next resident task and reports whether one ran.
// Cancelled tasks are discarded silently along the way. Head tasks
// drain before tail tasks.
func (q *SerialQueue) RunOne() bool {
	for {
		t, err := q.head.Dequeue()
		if err != nil {
			break
		}
		if t.group.cancelled(t.snap) {
			continue
		}
		t.fn()
		return true
	}
	for {
		t, err := q.tail.Dequeue()
		if err != nil {
			return false
		}
		if t.group.cancelled(t.snap) {
			continue
		}
		t.fn()
		return true
	}
}

// RunUntilIdle runs resident tasks until both rings are empty and
// returns how many ran. Deterministic when the caller is also the
// producer: everything posted before the call has run on return.
func (q *SerialQueue) RunUntilIdle() int {
	n := 0
	for q.RunOne() {
		n++
	}
	return n
}

// Serve consumes tasks on the calling goroutine, idling via adaptive
// backoff, until a stop request is taken and the queue is drained. A
// request posted before Serve begins is taken immediately. It does
// not spawn goroutines; the caller owns the consumer goroutine.
func (q *SerialQueue) Serve() {
	var bo iox.Backoff
	for {
		if q.RunOne() {
			bo.Reset()
			continue
		}
		if q.stop.Load() != q.taken {
			q.taken++
			return
		}
		bo.Wait()
	}
}

// Stop requests the end of one serve cycle: the running Serve returns
// once the queue is idle, or the next Serve returns at once. Safe
// from any goroutine.
func (q *SerialQueue) Stop() {
	q.stop.Add(1)
}
