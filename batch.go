// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

// Batch is a reusable nesting bracket: Start raises the depth, Close
// lowers it, and the close hook runs exactly once per outermost
// bracket. Reentrant triggers — code inside a bracket opening another
// bracket — therefore cost nothing until the outermost Close.
//
// The reason supplied to the first Start of an activation is recorded
// and handed to the hook; reasons supplied by nested Starts are
// discarded. After the outermost Close the bracket is clean and
// reusable. A Batch must be driven from a single goroutine.
//
// [SyncBatch] and [AsyncBatch] build their coalescing on this
// mechanism; the base is also usable directly.
type Batch[R any] struct {
	depth  int
	reason R
	hook   func(R)
}

// NewBatch creates a bracket whose hook runs on every outermost Close
// with that activation's recorded reason. Panics if onClose is nil.
func NewBatch[R any](onClose func(R)) *Batch[R] {
	if onClose == nil {
		panic("coal: nil close hook")
	}
	return &Batch[R]{hook: onClose}
}

// Start opens the bracket. The first Start of an activation records
// reason; nested Starts only deepen the bracket.
func (b *Batch[R]) Start(reason R) {
	if b.depth == 0 {
		b.reason = reason
	}
	b.depth++
}

// Close lowers the depth. The outermost Close clears the recorded
// reason, then runs the close hook with it, so a hook that reenters
// Start observes a clean bracket.
//
// Closing an inactive bracket is a caller error; it is a defensive
// no-op rather than a depth corruption.
func (b *Batch[R]) Close() {
	if b.depth == 0 {
		return
	}
	b.depth--
	if b.depth > 0 {
		return
	}
	reason := b.reason
	var zero R
	b.reason = zero
	b.hook(reason)
}

// Active reports whether the bracket is open at any depth.
func (b *Batch[R]) Active() bool {
	return b.depth > 0
}

// Depth returns the current nesting depth; 0 means inactive.
func (b *Batch[R]) Depth() int {
	return b.depth
}
