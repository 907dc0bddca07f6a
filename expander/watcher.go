// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"context"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// haltRetry is the interval between Halt calls on the INT pin while Run is
// stopping.
const haltRetry = 10 * time.Millisecond

// WatchOpts configures a Watcher.
type WatchOpts struct {
	// IntPin is a host GPIO connected to the INT output of the chip, already
	// configured with In() for the edge the chip signals with. When nil the
	// chip is polled.
	IntPin gpio.PinIn
	// Freq is the polling rate when IntPin is nil. Defaults to 20Hz. High
	// rates essentially mean a busy loop on the bus.
	Freq physic.Frequency
	// Timeout bounds each wait on IntPin. The chip is sampled on timeout too,
	// which catches edges lost while handling the previous one. Defaults to
	// one second.
	Timeout time.Duration
}

// Watcher calls an InterruptHandler whenever the chip needs to be sampled.
type Watcher struct {
	h      *InterruptHandler
	intPin gpio.PinIn
	period time.Duration

	samples atomic.Uint64
	errs    atomic.Uint64
}

// NewWatcher returns a Watcher for h. opts may be nil.
func NewWatcher(h *InterruptHandler, opts *WatchOpts) *Watcher {
	if opts == nil {
		opts = &WatchOpts{}
	}
	w := &Watcher{h: h, intPin: opts.IntPin}
	if w.intPin != nil {
		w.period = opts.Timeout
		if w.period <= 0 {
			w.period = time.Second
		}
	} else {
		f := opts.Freq
		if f <= 0 {
			f = 20 * physic.Hertz
		}
		w.period = f.Period()
	}
	return w
}

// Run samples the chip until ctx is done, and returns ctx.Err().
//
// Bus errors are logged and counted, the next sample is tried regardless.
func (w *Watcher) Run(ctx context.Context) error {
	if w.intPin != nil {
		return w.runInterrupt(ctx)
	}
	t := time.NewTicker(w.period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			w.handle()
		}
	}
}

func (w *Watcher) runInterrupt(ctx context.Context) error {
	exited := make(chan struct{})
	defer close(exited)
	go w.haltOnDone(ctx, exited)

	// Some chips already have their INT line asserted.
	w.handle()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		_ = w.intPin.WaitForEdge(w.period)
		if err := ctx.Err(); err != nil {
			return err
		}
		w.handle()
	}
}

// haltOnDone interrupts the wait on the INT pin once ctx is done. Halt only
// affects a wait in progress, so it is repeated until runInterrupt exits.
func (w *Watcher) haltOnDone(ctx context.Context, exited <-chan struct{}) {
	select {
	case <-exited:
		return
	case <-ctx.Done():
	}
	t := time.NewTicker(haltRetry)
	defer t.Stop()
	for {
		if err := w.intPin.Halt(); err != nil {
			w.h.port.logger.Warn("halting interrupt pin failed", "pin", w.intPin.Name(), "err", err)
		}
		select {
		case <-exited:
			return
		case <-t.C:
		}
	}
}

func (w *Watcher) handle() {
	w.samples.Add(1)
	if err := w.h.HandleInterrupts(); err != nil {
		w.errs.Add(1)
		w.h.port.logger.Error("sampling failed", "port", w.h.port.name, "err", err)
	}
}

// Samples returns the number of times the chip was sampled.
func (w *Watcher) Samples() uint64 {
	return w.samples.Load()
}

// Errors returns the number of failed samples.
func (w *Watcher) Errors() uint64 {
	return w.errs.Load()
}
