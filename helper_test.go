// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal_test

// recorder collects labels as work items run, proving execution order.
type recorder struct {
	got []string
}

// mark returns a work item that appends label when it runs.
func (r *recorder) mark(label string) func() {
	return func() { r.got = append(r.got, label) }
}

// conn is an owner stand-in for Activity tests.
type conn struct {
	name string
}

// edges collects busy/idle transition notifications from an Activity.
type edges struct {
	got []bool
}

// observe is the transition callback; it records the edge direction.
func (e *edges) observe(_ *conn, active bool) {
	e.got = append(e.got, active)
}
