// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"context"
	"fmt"
)

// AsyncPin is a Pin that can also wait for a level or an edge.
//
// Waits are resolved by the InterruptHandler of the port, nothing happens
// unless it is called.
type AsyncPin struct {
	*Pin
}

// Wait returns an unregistered Future for cond. It is meant for callers
// running their own poll loop, the WaitFor methods are simpler to use.
func (a *AsyncPin) Wait(cond WaitCondition) (*Future, error) {
	if m := a.Mode(); !m.hasInput() {
		return nil, fmt.Errorf("%w %s: %s", ErrWrongMode, m, a)
	}
	return newFuture(a.port.state, uint8(a.number), cond), nil
}

// WaitFor blocks until cond fires on the pin, or ctx is done.
func (a *AsyncPin) WaitFor(ctx context.Context, cond WaitCondition) error {
	f, err := a.Wait(cond)
	if err != nil {
		return err
	}
	return f.Wait(ctx)
}

// WaitForHigh returns at once if the pin was high at the last sample,
// otherwise when it goes high.
func (a *AsyncPin) WaitForHigh(ctx context.Context) error {
	return a.WaitFor(ctx, High)
}

// WaitForLow returns at once if the pin was low at the last sample, otherwise
// when it goes low.
func (a *AsyncPin) WaitForLow(ctx context.Context) error {
	return a.WaitFor(ctx, Low)
}

// WaitForRisingEdge returns on the next low to high transition.
func (a *AsyncPin) WaitForRisingEdge(ctx context.Context) error {
	return a.WaitFor(ctx, RisingEdge)
}

// WaitForFallingEdge returns on the next high to low transition.
func (a *AsyncPin) WaitForFallingEdge(ctx context.Context) error {
	return a.WaitFor(ctx, FallingEdge)
}

// WaitForAnyEdge returns on the next transition.
func (a *AsyncPin) WaitForAnyEdge(ctx context.Context) error {
	return a.WaitFor(ctx, AnyEdge)
}
