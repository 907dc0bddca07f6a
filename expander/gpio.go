// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// GPIO returns pin n as a gpio.PinIO. Edge detection is provided by the
// InterruptHandler of the port: WaitForEdge only returns if it is called.
//
// It panics if n is out of range.
func (p *Port) GPIO(n int) gpio.PinIO {
	ap, err := p.AsyncPin(n)
	if err != nil {
		panic(err)
	}
	return &gpioPin{pin: ap, pull: gpio.PullNoChange}
}

type gpioPin struct {
	pin *AsyncPin

	mu     sync.Mutex
	edge   gpio.Edge
	pull   gpio.Pull
	cancel context.CancelFunc
}

func (g *gpioPin) String() string {
	return g.pin.String()
}

func (g *gpioPin) Name() string {
	return g.pin.String()
}

func (g *gpioPin) Number() int {
	return g.pin.number
}

// Deprecated: Use Func.
func (g *gpioPin) Function() string {
	return string(g.Func())
}

// Halt implements conn.Resource. It interrupts a pending WaitForEdge.
func (g *gpioPin) Halt() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return nil
}

// In configures the pin as input and remembers edge for WaitForEdge.
func (g *gpioPin) In(pull gpio.Pull, edge gpio.Edge) error {
	if err := g.pin.IntoInput(); err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return err
		}
		if _, ok := g.pin.port.caps.(OutputOnly); ok {
			return fmt.Errorf("expander: %s has no input: %w", g.Name(), ErrUnsupported)
		}
		// A quasi-bidirectional pin reads its level only while its latch
		// is high.
		if err := g.pin.SetHigh(); err != nil {
			return err
		}
	}
	switch pull {
	case gpio.PullUp:
		if err := g.pin.SetPullUp(true); err != nil {
			return err
		}
	case gpio.PullDown:
		if err := g.pin.SetPullDown(true); err != nil {
			return err
		}
	case gpio.Float:
		// Chips without pulls are always floating.
		if err := g.pin.SetPullUp(false); err != nil && !errors.Is(err, ErrUnsupported) {
			return err
		}
		if err := g.pin.SetPullDown(false); err != nil && !errors.Is(err, ErrUnsupported) {
			return err
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edge = edge
	if pull != gpio.PullNoChange {
		g.pull = pull
	}
	return nil
}

// Read samples the pin. Errors are logged and read as gpio.Low.
func (g *gpioPin) Read() gpio.Level {
	h, err := g.pin.IsHigh()
	if err != nil {
		g.pin.port.logger.Error("read failed", "pin", g.Name(), "err", err)
		return gpio.Low
	}
	return gpio.Level(h)
}

// WaitForEdge waits for the edge passed to In. A negative timeout waits
// forever. It returns false on timeout, on Halt, or when no edge was
// configured.
func (g *gpioPin) WaitForEdge(timeout time.Duration) bool {
	var cond WaitCondition
	g.mu.Lock()
	switch g.edge {
	case gpio.RisingEdge:
		cond = RisingEdge
	case gpio.FallingEdge:
		cond = FallingEdge
	case gpio.BothEdges:
		cond = AnyEdge
	default:
		g.mu.Unlock()
		return false
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout >= 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	g.cancel = cancel
	g.mu.Unlock()
	defer cancel()

	if err := g.pin.WaitFor(ctx, cond); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			g.pin.port.logger.Error("wait failed", "pin", g.Name(), "err", err)
		}
		return false
	}
	return true
}

func (g *gpioPin) Pull() gpio.Pull {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pull
}

func (g *gpioPin) DefaultPull() gpio.Pull {
	return gpio.Float
}

// Out configures the pin as output when the chip has a direction register,
// and drives it.
func (g *gpioPin) Out(l gpio.Level) error {
	if g.pin.Mode() == Input {
		return g.pin.IntoOutput(bool(l))
	}
	return g.pin.Set(bool(l))
}

func (g *gpioPin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrUnsupported
}

func (g *gpioPin) Func() pin.Func {
	if g.pin.Mode() == Output {
		return gpio.OUT
	}
	return gpio.IN
}

func (g *gpioPin) SupportedFuncs() []pin.Func {
	return supportedFuncs[:]
}

func (g *gpioPin) SetFunc(f pin.Func) error {
	switch f {
	case gpio.IN:
		return g.In(gpio.PullNoChange, gpio.NoEdge)
	case gpio.OUT:
		return g.Out(gpio.Low)
	default:
		return errors.New("expander: function not supported: " + string(f))
	}
}

var supportedFuncs = [...]pin.Func{gpio.IN, gpio.OUT}

var _ gpio.PinIO = &gpioPin{}
var _ pin.PinFunc = &gpioPin{}
