// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal_test

import (
	"runtime"
	"slices"
	"strconv"
	"testing"

	"code.hybscloud.com/coal"
)

func TestActivityEdges(t *testing.T) {
	owner := &conn{name: "c0"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	if a.Active() {
		t.Fatal("new session reports active")
	}
	tok1 := a.Start("query")
	if got, want := len(e.got), 1; got != want {
		t.Fatalf("edges after first start: got %d, want %d", got, want)
	}
	if !e.got[0] {
		t.Fatal("first edge not busy")
	}
	tok2 := a.Start("update")
	if got, want := len(e.got), 1; got != want {
		t.Fatalf("edges after second start: got %d, want %d", got, want)
	}
	if got, want := a.Total(), 2; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}

	a.Complete(tok1)
	if got, want := len(e.got), 1; got != want {
		t.Fatalf("edges after partial drain: got %d, want %d", got, want)
	}
	a.Complete(tok2)
	if want := []bool{true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	if a.Active() || a.Total() != 0 {
		t.Fatalf("drained session not idle: total %d", a.Total())
	}
	runtime.KeepAlive(owner)
}

func TestActivityTokenPerTag(t *testing.T) {
	owner := &conn{name: "c1"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	tok1 := a.Start("query")
	tok2 := a.Start("query")
	if tok1 != tok2 {
		t.Fatalf("same tag minted different tokens: %v != %v", tok1, tok2)
	}
	tok3 := a.Start("update")
	if tok3 == tok1 {
		t.Fatalf("distinct tags share token %v", tok1)
	}
	if got, want := a.Total(), 3; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}

	a.Complete(tok1)
	a.Complete(tok1)
	a.Complete(tok3)
	if want := []bool{true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	runtime.KeepAlive(owner)
}

func TestActivityTokensAcrossSessions(t *testing.T) {
	ownerA := &conn{name: "a"}
	ownerB := &conn{name: "b"}
	eA, eB := &edges{}, &edges{}
	a := coal.NewActivity(ownerA, eA.observe)
	b := coal.NewActivity(ownerB, eB.observe)

	tokA := a.Start("rpc")
	tokB := b.Start("rpc")
	if tokA == tokB {
		t.Fatalf("sessions share token %v", tokA)
	}
	runtime.KeepAlive(ownerA)
	runtime.KeepAlive(ownerB)
}

func TestActivityStaleTokenAfterDrain(t *testing.T) {
	owner := &conn{name: "c2"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	tokFirst := a.Start("query")
	a.Complete(tokFirst)
	tokSecond := a.Start("query")
	if tokFirst == tokSecond {
		t.Fatal("token survived a full drain")
	}

	// Completing the pre-drain token is inconsistent: full reset,
	// dropping the in-flight call.
	a.Complete(tokFirst)
	if want := []bool{true, false, true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	if got, want := a.Total(), 0; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}

	// The second token went stale with that reset; completing it on
	// the empty session changes nothing.
	a.Complete(tokSecond)
	if got, want := len(e.got), 4; got != want {
		t.Fatalf("edges after empty reset: got %d, want %d", got, want)
	}
	runtime.KeepAlive(owner)
}

func TestActivityForeignToken(t *testing.T) {
	ownerA := &conn{name: "a"}
	ownerB := &conn{name: "b"}
	eA, eB := &edges{}, &edges{}
	a := coal.NewActivity(ownerA, eA.observe)
	b := coal.NewActivity(ownerB, eB.observe)

	tokB := b.Start("rpc")
	a.Start("rpc")

	a.Complete(tokB)
	if want := []bool{true, false}; !slices.Equal(eA.got, want) {
		t.Fatalf("a edges got %v, want %v", eA.got, want)
	}
	if got, want := a.Total(), 0; got != want {
		t.Fatalf("a total got %d, want %d", got, want)
	}
	if got, want := b.Total(), 1; got != want {
		t.Fatalf("b total got %d, want %d", got, want)
	}
	runtime.KeepAlive(ownerA)
	runtime.KeepAlive(ownerB)
}

func TestActivityDoubleComplete(t *testing.T) {
	owner := &conn{name: "c3"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	tokX := a.Start("x")
	tokY := a.Start("y")

	a.Complete(tokX)
	a.Complete(tokX)
	if want := []bool{true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	if got, want := a.Total(), 0; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}

	a.Complete(tokY)
	if got, want := len(e.got), 2; got != want {
		t.Fatalf("edges after stale complete: got %d, want %d", got, want)
	}
	runtime.KeepAlive(owner)
}

func TestActivityOverflowTags(t *testing.T) {
	owner := &conn{name: "c4"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	seen := make(map[coal.Token]bool)
	toks := make([]coal.Token, 0, 32)
	for i := 0; i < 32; i++ {
		tok := a.Start("t" + strconv.Itoa(i))
		seen[tok] = true
		toks = append(toks, tok)
	}
	if got, want := len(seen), 32; got != want {
		t.Fatalf("distinct tokens got %d, want %d", got, want)
	}

	tok32 := a.Start("t32")
	tok33 := a.Start("t33")
	if tok32 != tok33 {
		t.Fatalf("overflow tags minted different tokens: %v != %v", tok32, tok33)
	}
	if seen[tok32] {
		t.Fatal("overflow token collides with a per-tag token")
	}
	if got, want := a.Total(), 34; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}

	for _, tok := range toks {
		a.Complete(tok)
	}
	a.Complete(tok32)
	a.Complete(tok33)
	if want := []bool{true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	runtime.KeepAlive(owner)
}

func TestActivityReset(t *testing.T) {
	owner := &conn{name: "c5"}
	e := &edges{}
	a := coal.NewActivity(owner, e.observe)

	tok := a.Start("query")
	a.Start("update")
	a.Reset()
	if want := []bool{true, false}; !slices.Equal(e.got, want) {
		t.Fatalf("edges got %v, want %v", e.got, want)
	}
	if a.Active() || a.Total() != 0 {
		t.Fatalf("reset session not idle: total %d", a.Total())
	}

	a.Reset()
	a.Complete(tok)
	if got, want := len(e.got), 2; got != want {
		t.Fatalf("edges after empty resets: got %d, want %d", got, want)
	}
	runtime.KeepAlive(owner)
}

// leakActivity binds a session to an owner the caller never sees, so
// the owner is collectable as soon as this returns.
func leakActivity(e *edges) *coal.Activity[conn] {
	owner := &conn{name: "ephemeral"}
	return coal.NewActivity(owner, e.observe)
}

func TestActivityCollectedOwner(t *testing.T) {
	e := &edges{}
	a := leakActivity(e)

	runtime.GC()
	runtime.GC()

	tok := a.Start("query")
	a.Complete(tok)
	if got, want := len(e.got), 0; got != want {
		t.Fatalf("edges with collected owner: got %d, want %d", got, want)
	}
	if got, want := a.Total(), 0; got != want {
		t.Fatalf("total got %d, want %d", got, want)
	}
}

func TestActivityOwnerIdentity(t *testing.T) {
	owner := &conn{name: "c6"}
	var got *conn
	a := coal.NewActivity(owner, func(o *conn, _ bool) { got = o })

	a.Start("query")
	if got != owner {
		t.Fatalf("callback owner got %p, want %p", got, owner)
	}
	runtime.KeepAlive(owner)
}

func TestNewActivityNilNotify(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for nil callback")
		}
		msg, ok := r.(string)
		if !ok || msg != "coal: nil transition callback" {
			t.Fatalf("unexpected panic: %v", r)
		}
	}()
	coal.NewActivity[conn](nil, nil)
}
