// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

// AsyncBatch defers work onto an external ordered task queue and
// coalesces everything buffered inside one bracket into a single
// combined task.
//
// While inactive, every Enqueue and RunUpdate posts its own task to
// the queue tail immediately, in call order. While active, work is
// buffered; the outermost Close posts one combined task running the
// buffered items in call order, then the update callback if RunUpdate
// was called at least once in the activation. Nothing external to the
// session can interleave between two buffered items, though tasks
// already resident on the queue at close time run before the combined
// task unless [AsyncBatch.PostToHead] promoted it.
//
// Posts are tagged with the session's [Group] so the queue
// implementation can cancel or coalesce them as a unit.
//
// Create with [NewAsyncBatch]. Start, Close, Enqueue, RunUpdate,
// Stage, and PostToHead must all be called from the same producer
// goroutine; buffered work later executes on whatever serves the
// target queue.
type AsyncBatch[R any] struct {
	Batch[R]
	target  TaskQueue
	staging StagingQueue
	group   Group
	update  func()

	pending    []func()
	needUpdate bool
	promote    bool
}

// NewAsyncBatch creates a queue-backed coalescing bracket posting to
// target. update is the deferred-update callback [AsyncBatch.RunUpdate]
// schedules. staging receives [AsyncBatch.Stage] work; a nil staging
// makes Stage run work inline on the calling goroutine instead.
// Panics if target or update is nil.
func NewAsyncBatch[R any](target TaskQueue, staging StagingQueue, update func()) *AsyncBatch[R] {
	if target == nil {
		panic("coal: nil target queue")
	}
	if update == nil {
		panic("coal: nil update callback")
	}
	s := &AsyncBatch[R]{
		target:  target,
		staging: staging,
		group:   NewGroup(),
		update:  update,
	}
	s.hook = s.flush
	return s
}

// Group returns the identity tagging this session's posts on the
// target queue.
func (s *AsyncBatch[R]) Group() Group {
	return s.group
}

// Enqueue schedules fn on the target queue. Buffered until the
// outermost Close while active; posted immediately to the queue tail
// while inactive.
func (s *AsyncBatch[R]) Enqueue(fn func()) {
	if s.Active() {
		s.pending = append(s.pending, fn)
		return
	}
	s.target.Post(s.group, fn)
}

// RunUpdate schedules the update callback. While active it sets an
// idempotent marker — however many times it is called, the combined
// task runs the callback once, after all buffered work. While inactive
// it posts the callback to the queue tail immediately.
func (s *AsyncBatch[R]) RunUpdate() {
	if s.Active() {
		s.needUpdate = true
		return
	}
	s.target.Post(s.group, s.update)
}

// Stage hands fn to the staging queue, or runs it inline on the
// calling goroutine when no staging queue was configured. Stage never
// touches the target queue or the buffered batch, in either mode and
// at any depth: it is the escape hatch for synchronous side effects
// beside the batch, ordered only against other staged work.
func (s *AsyncBatch[R]) Stage(fn func()) {
	if s.staging != nil {
		s.staging.Push(fn)
		return
	}
	fn()
}

// PostToHead requests that this activation's combined task be placed
// at the head of the target queue instead of the tail, ahead of tail
// tasks resident at close time. It cannot reorder work within the
// combined task, and it is a no-op while inactive — immediate posts
// always go to the tail.
func (s *AsyncBatch[R]) PostToHead() {
	if s.Active() {
		s.promote = true
	}
}

// flush is the close hook: it takes ownership of the buffered state,
// leaving the session clean for reuse, and posts the combined task if
// the activation buffered anything.
func (s *AsyncBatch[R]) flush(R) {
	items := s.pending
	needUpdate := s.needUpdate
	promote := s.promote
	s.pending = nil
	s.needUpdate = false
	s.promote = false

	if len(items) == 0 && !needUpdate {
		return
	}
	combined := func() {
		for _, fn := range items {
			fn()
		}
		if needUpdate {
			s.update()
		}
	}
	if promote {
		s.target.PostToHead(s.group, combined)
		return
	}
	s.target.Post(s.group, combined)
}
