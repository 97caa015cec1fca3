// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

// SyncBatch coalesces triggers that each independently decide between
// a cheap partial recomputation and a full one. Any single trigger
// demanding a full update upgrades the whole bracket: on the outermost
// Close exactly one of the two callbacks fires, full winning over
// partial, with the activation's recorded reason.
//
// Create with [NewSyncBatch]. A SyncBatch must be driven from a single
// goroutine.
type SyncBatch[R any] struct {
	Batch[R]
	full   bool
	fullFn func(R)
	partFn func(R)
}

// NewSyncBatch creates a two-tier coalescing bracket. Exactly one of
// full or partial runs per outermost Close. Panics if either callback
// is nil.
func NewSyncBatch[R any](full, partial func(R)) *SyncBatch[R] {
	if full == nil || partial == nil {
		panic("coal: nil update callback")
	}
	s := &SyncBatch[R]{fullFn: full, partFn: partial}
	s.hook = s.finish
	return s
}

// SetFullUpdate marks the current activation as needing the full
// callback. Sticky at any nesting depth; a no-op while inactive.
func (s *SyncBatch[R]) SetFullUpdate() {
	if s.Active() {
		s.full = true
	}
}

// finish is the close hook. The sticky flag clears before the callback
// runs, so a callback that reenters the bracket starts undetermined.
func (s *SyncBatch[R]) finish(reason R) {
	full := s.full
	s.full = false
	if full {
		s.fullFn(reason)
	} else {
		s.partFn(reason)
	}
}
