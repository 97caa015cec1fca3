// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// defaultStagingCapacity bounds the staging ring when NewStaging is
// given a non-positive capacity. Staged interjections are rare next
// to posted tasks; 64 is plenty of headroom.
const defaultStagingCapacity = 64

// Staging is a bounded concurrent staging queue — the package
// implementation of [StagingQueue]. Producers Push work beside the
// main batching queue; an external drainer Polls and runs it at its
// own discretion. Staged work is ordered only against other staged
// work on the same Staging.
//
// Transport is one lock-free SPSC ring: at most one goroutine may
// push and one may poll at a time. slot stages the entry being
// enqueued, keeping pushes allocation-free under the single-producer
// contract.
type Staging struct {
	ring lfq.SPSC[func()]
	slot func()
}

// NewStaging creates a staging queue bounded to capacity entries,
// rounded up to a power of two no smaller than 2. Non-positive
// capacity selects the default.
func NewStaging(capacity int) *Staging {
	if capacity <= 0 {
		capacity = defaultStagingCapacity
	}
	s := &Staging{}
	s.ring.Init(ceilPow2(capacity))
	return s
}

// TryPush stages fn. Non-blocking: returns [iox.ErrWouldBlock] when
// the ring is full.
func (s *Staging) TryPush(fn func()) error {
	s.slot = fn
	return s.ring.Enqueue(&s.slot)
}

// Push stages fn, waiting past a full ring with adaptive backoff
// (drainer behind).
func (s *Staging) Push(fn func()) {
	s.slot = fn
	var bo iox.Backoff
	for {
		if err := s.ring.Enqueue(&s.slot); err == nil {
			return
		}
		bo.Wait()
	}
}

// Poll removes and returns the oldest staged work, or ok=false when
// nothing is staged. Polling is the drainer's surface; the staging
// producer never drains its own queue.
func (s *Staging) Poll() (fn func(), ok bool) {
	fn, err := s.ring.Dequeue()
	if err != nil {
		return nil, false
	}
	return fn, true
}
