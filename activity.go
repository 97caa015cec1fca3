// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

import "weak"

// maxTagKeys is the cap on distinct per-tag accounting keys.
// Tags beyond the cap fold into one shared overflow key, bounding
// memory under callers that supply unbounded distinct tags. Per-tag
// attribution is lost past the cap; the running total is not.
const (
	maxTagKeys  = 32
	overflowKey = maxTagKeys
)

// Activity counts in-flight remote calls on a single logical
// connection, keyed by caller-supplied tags, and raises an
// edge-triggered notification on every transition between idle
// (total 0) and busy (total > 0). Level changes away from the 0/1
// boundary are silent.
//
// The owner handle is weak: the session never extends the connection
// object's lifetime and upgrades the handle only for the span of one
// notification.
//
// Accounting is self-healing. A completion that cannot be reconciled
// with the session's current state — a stale or foreign token, or a
// key already at zero — resets the whole session to the empty state
// instead of going negative: upstream start/complete events may be
// lost or duplicated, and "nothing in flight" is the safe state to
// collapse to. An [Activity] must be driven from a single goroutine.
type Activity[O any] struct {
	owner  weak.Pointer[O]
	notify func(owner *O, active bool)

	serial Serial
	epoch  uint32
	total  uint32
	next   uint8
	tags   map[string]uint8
	counts [maxTagKeys + 1]uint32
}

// NewActivity creates an accounting session for the given connection
// owner. notify is invoked with the upgraded owner after every 0→1
// (active=true) and 1→0 (active=false) crossing of the in-flight
// total. Panics if notify is nil.
func NewActivity[O any](owner *O, notify func(owner *O, active bool)) *Activity[O] {
	if notify == nil {
		panic("coal: nil transition callback")
	}
	return &Activity[O]{
		owner:  weak.Make(owner),
		notify: notify,
		serial: nextSerial(),
		tags:   make(map[string]uint8, maxTagKeys),
	}
}

// Serial returns the serial number assigned to this session.
func (a *Activity[O]) Serial() Serial {
	return a.serial
}

// Total returns the number of calls currently in flight.
func (a *Activity[O]) Total() int {
	return int(a.total)
}

// Active reports whether any call is in flight.
func (a *Activity[O]) Active() bool {
	return a.total > 0
}

// Start records one in-flight call under tag and returns the token to
// complete it with. The first Start of a distinct tag assigns the next
// accounting key, in assignment order; once maxTagKeys keys exist,
// further distinct tags share the overflow key and are not recorded
// individually. Crossing 0→1 fires the transition callback after the
// state update.
//
// Tokens name keys, not call instances: a second Start of the same tag
// before a matching Complete returns the identical token.
func (a *Activity[O]) Start(tag string) Token {
	key, ok := a.tags[tag]
	if !ok {
		if a.next < maxTagKeys {
			key = a.next
			a.next++
			a.tags[tag] = key
		} else {
			key = overflowKey
		}
	}
	a.counts[key]++
	a.total++
	if a.total == 1 {
		a.fire(true)
	}
	return makeToken(a.serial, a.epoch, key)
}

// Complete records the completion of the call tok was issued for.
//
// A token minted by another session or before the last reset, a key
// outside the assignable range, or a key whose count is already zero
// all mark the completion inconsistent: the session resets to the
// empty state (see [Activity.Reset]) rather than going negative. On
// the valid path the key's count and the total decrement; a total
// reaching zero is itself a full reset and fires the idle transition.
func (a *Activity[O]) Complete(tok Token) {
	if tok.serial() != a.serial || tok.epoch() != a.epoch {
		a.Reset()
		return
	}
	key := tok.key()
	if key > overflowKey || a.counts[key] == 0 {
		a.Reset()
		return
	}
	a.counts[key]--
	a.total--
	if a.total == 0 {
		a.clear()
		a.fire(false)
	}
}

// Reset returns the session to the empty state: zero total, no key
// assignments, and a fresh token epoch so every outstanding token is
// invalidated. Fires the idle transition if the total was nonzero.
// Resetting an empty session changes nothing observable.
func (a *Activity[O]) Reset() {
	hadCalls := a.total > 0
	a.clear()
	if hadCalls {
		a.fire(false)
	}
}

// clear drops all accounting state and advances the token epoch.
// Stale tokens fall on the inconsistent path afterwards, where they
// reset an already-empty session and fire nothing.
func (a *Activity[O]) clear() {
	a.total = 0
	a.next = 0
	clear(a.tags)
	a.counts = [maxTagKeys + 1]uint32{}
	a.epoch = (a.epoch + 1) & tokenEpochMask
}

// fire upgrades the weak owner handle for the span of one
// notification. A collected owner skips the call: there is nobody
// left to act for, and the session must not retain.
func (a *Activity[O]) fire(active bool) {
	if o := a.owner.Value(); o != nil {
		a.notify(o, active)
	}
}
