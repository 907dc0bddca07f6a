// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"context"
	"fmt"
)

// Future is one pending wait for a condition on a pin.
//
// It is unregistered when created. The first Poll either resolves it at once,
// for a level condition the last sample already satisfies, or registers it
// with the Port. Later polls resolve it once the InterruptHandler has removed
// the registration. A Future is meant to be used by a single goroutine.
type Future struct {
	state *portState
	pin   uint8
	cond  WaitCondition
	id    uint64

	registered bool
	done       bool
}

func newFuture(s *portState, pin uint8, cond WaitCondition) *Future {
	return &Future{state: s, pin: pin, cond: cond, id: nextID.Add(1)}
}

// Condition returns what the Future waits for.
func (f *Future) Condition() WaitCondition {
	return f.cond
}

// Done returns true once the Future resolved.
func (f *Future) Done() bool {
	return f.done
}

// Poll advances the Future and returns true once the condition fired. While
// it returns false, w will be woken when the Future is worth polling again.
//
// The only error is ErrTooManyWaiters, when the pin has no room for another
// wait. The Future stays unregistered and may be polled again later.
func (f *Future) Poll(w Waker) (bool, error) {
	if f.done {
		return true, nil
	}
	s := f.state
	s.mu.Lock()
	defer s.mu.Unlock()

	if !f.registered {
		if f.cond.IsLevel() && f.cond.satisfiedBy(s.lastKnown&(1<<f.pin) != 0) {
			f.done = true
			return true, nil
		}
		if err := s.insert(f.pin, pinWaiter{id: f.id, cond: f.cond, waker: w}); err != nil {
			return false, fmt.Errorf("%w %d", err, f.pin)
		}
		f.registered = true
		return false, nil
	}

	i := s.find(f.pin, f.id)
	if i < 0 {
		// The InterruptHandler removed it, the condition fired.
		f.done = true
		return true, nil
	}
	s.waiters[f.pin][i].waker = w
	return false, nil
}

// Cancel abandons the Future, freeing its slot on the pin. It is a no-op on a
// resolved Future.
func (f *Future) Cancel() {
	f.cancel()
}

// cancel reports whether the Future was still pending. When it returns false
// on a registered Future, the condition fired before the cancellation.
func (f *Future) cancel() bool {
	if f.done || !f.registered {
		return !f.done
	}
	s := f.state
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.remove(f.pin, f.id) {
		f.done = true
		return false
	}
	f.registered = false
	return true
}

// Wait blocks until the condition fires or ctx is done. In the latter case
// the registration is withdrawn and ctx.Err() is returned, unless the
// condition fired in the meantime.
func (f *Future) Wait(ctx context.Context) error {
	w := NewChanWaker()
	for {
		ok, err := f.Poll(w)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-w:
		case <-ctx.Done():
			if !f.cancel() {
				return nil
			}
			return ctx.Err()
		}
	}
}
