// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package coal coalesces high-frequency triggers into low-frequency
// effects, for callers that recompute an expensive result (typically a
// process-priority score) whenever anything relevant changes.
//
// Two peer primitives, owned side by side by an orchestrating layer:
//
//   - [Activity] counts in-flight remote calls on one logical
//     connection and fires a callback only on busy/idle edges.
//   - [Batch], [SyncBatch], and [AsyncBatch] bracket bursts of
//     triggers so the expensive tail work runs at most once per
//     outermost bracket.
//
// # Architecture
//
//   - Edge triggering: [Activity] collapses call-count changes to 0↔1
//     transitions. Inconsistent completions self-heal by resetting to
//     the idle state; [Token] validation is epoch-based.
//   - Nesting: the batch family tolerates reentrant triggers with a
//     depth counter; the first Start of an activation records the
//     reason, the outermost Close runs the tail work once.
//   - Deferred delivery: [AsyncBatch] buffers work while active and
//     posts one combined task at close, so nothing external can
//     interleave inside a batch. Delivery targets are injected as
//     [TaskQueue] and [StagingQueue]; the core never drains them and
//     spawns no goroutines.
//   - Transport: [SerialQueue] and [Staging] are the package sinks,
//     built on bounded lock-free SPSC rings via [code.hybscloud.com/lfq].
//     Non-blocking producers return [code.hybscloud.com/iox.ErrWouldBlock]
//     on backpressure; blocking variants wait with adaptive backoff.
//
// # Integration
//
//   - Producer side: one goroutine per session drives Start/Close,
//     Enqueue, RunUpdate, Stage, PostToHead.
//   - Consumer side: [SerialQueue.RunOne] and [SerialQueue.RunUntilIdle]
//     single-step or drain on the caller's goroutine;
//     [SerialQueue.Serve] loops with adaptive backoff until
//     [SerialQueue.Stop].
//
// # Example
//
//	q := coal.NewSerialQueue(0)
//	b := coal.NewAsyncBatch[string](q, nil, recompute)
//	b.Start("config-changed")
//	b.Enqueue(applyA)
//	b.Enqueue(applyB)
//	b.RunUpdate()
//	b.Close() // one combined task: applyA, applyB, recompute
//	q.RunUntilIdle()
package coal
