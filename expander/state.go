// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"sync"
	"sync/atomic"

	"golang.org/x/exp/slices"
)

// DefaultWaitersPerPin is the number of waits that can be pending on one pin
// when Opts.WaitersPerPin is not set.
const DefaultWaitersPerPin = 4

// Waker resumes a suspended wait. A Future registers the Waker of its latest
// Poll.
type Waker interface {
	Wake()
}

// ChanWaker is a Waker backed by a channel with one slot. Wake never blocks;
// wakes are coalesced until the channel is drained.
type ChanWaker chan struct{}

// NewChanWaker returns a ready to use ChanWaker.
func NewChanWaker() ChanWaker {
	return make(ChanWaker, 1)
}

// Wake implements Waker.
func (w ChanWaker) Wake() {
	select {
	case w <- struct{}{}:
	default:
	}
}

// nextID hands out waiter ids. Wrapping is fine, ids only need to be unique
// within one pin's list at a given time.
var nextID atomic.Uint64

// pinWaiter is one pending wait on a pin.
type pinWaiter struct {
	id    uint64
	cond  WaitCondition
	waker Waker
}

// portState is shared by every handle of one chip: the last sampled levels
// and the waits pending on each pin.
//
// waiters[i] only holds waits on pin i. Bit i of lastKnown is the level used
// for the latest wake decision on pin i.
type portState struct {
	mu        sync.Mutex
	lastKnown uint32
	capacity  int
	waiters   [32][]pinWaiter
}

func newPortState(initial uint32, capacity int) *portState {
	if capacity <= 0 {
		capacity = DefaultWaitersPerPin
	}
	s := &portState{lastKnown: initial, capacity: capacity}
	for i := range s.waiters {
		s.waiters[i] = make([]pinWaiter, 0, capacity)
	}
	return s
}

// insert appends w to the list of pin. Must be called with mu held.
func (s *portState) insert(pin uint8, w pinWaiter) error {
	if len(s.waiters[pin]) >= s.capacity {
		return ErrTooManyWaiters
	}
	s.waiters[pin] = append(s.waiters[pin], w)
	return nil
}

// find returns the index of waiter id on pin, or -1. Must be called with mu
// held.
func (s *portState) find(pin uint8, id uint64) int {
	return slices.IndexFunc(s.waiters[pin], func(w pinWaiter) bool { return w.id == id })
}

// remove drops waiter id from pin and reports whether it was there. Must be
// called with mu held.
func (s *portState) remove(pin uint8, id uint64) bool {
	i := s.find(pin, id)
	if i < 0 {
		return false
	}
	l := s.waiters[pin]
	n := len(l)
	l = slices.Delete(l, i, i+1)
	// Release the waker held by the stale slot.
	l[:n][n-1] = pinWaiter{}
	s.waiters[pin] = l
	return true
}

// apply processes a new sample: every waiter matching the transition of its
// pin is removed, the others keep their order. lastKnown is updated once all
// pins have been matched. The wakers to call are returned so they can be
// invoked without holding mu.
func (s *portState) apply(sample uint32) (old uint32, woken []Waker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old = s.lastKnown
	changed := old ^ sample
	if changed == 0 {
		return old, nil
	}
	for pin := range 32 {
		mask := uint32(1) << pin
		if changed&mask == 0 {
			continue
		}
		wasHigh := old&mask != 0
		isHigh := sample&mask != 0
		l := s.waiters[pin]
		kept := l[:0]
		for _, w := range l {
			if w.cond.matches(wasHigh, isHigh) {
				woken = append(woken, w.waker)
			} else {
				kept = append(kept, w)
			}
		}
		clear(l[len(kept):])
		s.waiters[pin] = kept
	}
	s.lastKnown = sample
	return old, woken
}

// snapshot returns the last sampled levels.
func (s *portState) snapshot() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKnown
}

// pending returns the number of waits registered on pin.
func (s *portState) pending(pin uint8) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters[pin])
}
