// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

import "code.hybscloud.com/atomix"

// TaskQueue is an external single-consumer, ordered task sink.
// [AsyncBatch] posts immediate tasks and combined tasks here and never
// drains it; delivery order is the queue's own FIFO order, with
// PostToHead placing a task ahead of the resident tail tasks.
//
// [SerialQueue] is the package implementation; any queue with the same
// ordering contract can be injected instead.
type TaskQueue interface {
	// Post appends fn to the tail of the queue, tagged with g.
	Post(g Group, fn func())
	// PostToHead inserts fn ahead of all tail tasks currently
	// resident, tagged with g. Head posts run in their own post
	// order, after any earlier head post.
	PostToHead(g Group, fn func())
}

// StagingQueue is an external concurrent sink for work interjected
// beside the batching queue. [AsyncBatch.Stage] pushes here and never
// drains; some external mechanism runs staged work at its own
// discretion. Staged work is ordered only against other staged work.
//
// [Staging] is the package implementation.
type StagingQueue interface {
	// Push appends fn for a later, externally driven run.
	Push(fn func())
}

// Group is an opaque identity tagging the tasks one producer posts to
// a [TaskQueue], so the queue implementation can cancel or coalesce
// them as a unit. Groups are comparable; the zero Group is the valid
// "ungrouped" tag and can never be cancelled.
type Group struct {
	mark *atomix.Uint32
}

// NewGroup returns a fresh task group identity.
func NewGroup() Group {
	return Group{mark: new(atomix.Uint32)}
}

// snapshot captures the group's current cancellation mark.
// Tasks carry the snapshot; a later mark bump invalidates them.
func (g Group) snapshot() uint32 {
	if g.mark == nil {
		return 0
	}
	return g.mark.Load()
}

// cancelled reports whether the mark has moved past snap.
func (g Group) cancelled(snap uint32) bool {
	return g.mark != nil && g.mark.Load() != snap
}

// cancel invalidates every task carrying an earlier snapshot.
// No-op for the zero Group.
func (g Group) cancel() {
	if g.mark != nil {
		g.mark.Add(1)
	}
}
