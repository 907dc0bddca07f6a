// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
)

// Group is a gpio.Group of pins of one Port. Out and Read access all the pins
// in a single bus transaction.
type Group struct {
	port *Port
	pins []*AsyncPin
	gpio []pin.Pin

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Group returns a gpio.Group comprised of the specified pin numbers. Bit ix
// of the group values stands for pin numbers[ix].
func (p *Port) Group(numbers ...int) (*Group, error) {
	gr := &Group{port: p}
	for _, n := range numbers {
		ap, err := p.AsyncPin(n)
		if err != nil {
			return nil, err
		}
		gr.pins = append(gr.pins, ap)
		gr.gpio = append(gr.gpio, &gpioPin{pin: ap, pull: gpio.PullNoChange})
	}
	return gr, nil
}

// Pins returns the set of pins that make up this group.
func (gr *Group) Pins() []pin.Pin {
	return append([]pin.Pin(nil), gr.gpio...)
}

// ByOffset returns the GPIO pin by offset within the group.
func (gr *Group) ByOffset(offset int) pin.Pin {
	if offset < 0 || offset >= len(gr.gpio) {
		return nil
	}
	return gr.gpio[offset]
}

// ByName returns the GPIO pin by name.
func (gr *Group) ByName(name string) pin.Pin {
	for _, p := range gr.gpio {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// ByNumber returns the GPIO pin by its pin number on the chip.
func (gr *Group) ByNumber(number int) pin.Pin {
	for ix, ap := range gr.pins {
		if ap.number == number {
			return gr.gpio[ix]
		}
	}
	return nil
}

// all returns mask, or every pin of the group when mask is 0.
func (gr *Group) all(mask gpio.GPIOValue) gpio.GPIOValue {
	if mask == 0 {
		mask = gpio.GPIOValue(1)<<len(gr.pins) - 1
	}
	return mask
}

// Out writes the specified value to the chip. Only pins identified by mask
// are modified, a mask of 0 selects the whole group.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	mask = gr.all(mask)
	var high, low uint32
	for ix, ap := range gr.pins {
		bit := gpio.GPIOValue(1) << ix
		if mask&bit == 0 {
			continue
		}
		if !ap.Mode().hasOutput() {
			return fmt.Errorf("%w: %s is %s", ErrWrongMode, ap, ap.Mode())
		}
		if value&bit != 0 {
			high |= ap.mask
		} else {
			low |= ap.mask
		}
	}
	if high|low == 0 {
		return nil
	}
	return gr.pins[0].lock(func(drv PortDriver) error {
		return drv.Set(high, low)
	})
}

// Read returns the current values of the pins within the group identified by
// mask.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	mask = gr.all(mask)
	var devMask uint32
	for ix, ap := range gr.pins {
		if mask&(gpio.GPIOValue(1)<<ix) == 0 {
			continue
		}
		if !ap.Mode().hasInput() {
			return 0, fmt.Errorf("%w: %s is %s", ErrWrongMode, ap, ap.Mode())
		}
		devMask |= ap.mask
	}
	if devMask == 0 {
		return 0, nil
	}
	var v uint32
	err := gr.pins[0].lock(func(drv PortDriver) error {
		var err error
		v, err = drv.Get(devMask, 0)
		return err
	})
	if err != nil {
		return 0, err
	}
	// Now, convert it back to a group value.
	var result gpio.GPIOValue
	for ix, ap := range gr.pins {
		if v&ap.mask != 0 {
			result |= gpio.GPIOValue(1) << ix
		}
	}
	return result, nil
}

// WaitForEdge waits for any pin of the group to change, as seen by the
// InterruptHandler of the port. It returns the pin number on the chip and
// the direction of the change. A negative timeout waits forever.
//
// On timeout or Halt, it returns -1 and the context error.
func (gr *Group) WaitForEdge(timeout time.Duration) (number int, edge gpio.Edge, err error) {
	if len(gr.pins) == 0 {
		return -1, gpio.NoEdge, gpio.ErrGroupFeatureNotImplemented
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout >= 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	gr.mu.Lock()
	gr.cancel = cancel
	gr.mu.Unlock()
	defer cancel()

	futures := make([]*Future, 0, len(gr.pins))
	defer func() {
		for _, f := range futures {
			f.Cancel()
		}
	}()
	for _, ap := range gr.pins {
		f, err := ap.Wait(AnyEdge)
		if err != nil {
			return -1, gpio.NoEdge, err
		}
		futures = append(futures, f)
	}

	w := NewChanWaker()
	for {
		for ix, f := range futures {
			done, err := f.Poll(w)
			if err != nil {
				return -1, gpio.NoEdge, err
			}
			if done {
				number, edge := gr.edgeOf(ix)
				return number, edge, nil
			}
		}
		select {
		case <-w:
		case <-ctx.Done():
			if ix := gr.withdraw(futures); ix >= 0 {
				number, edge := gr.edgeOf(ix)
				return number, edge, nil
			}
			return -1, gpio.NoEdge, ctx.Err()
		}
	}
}

// withdraw cancels every future and returns the index of one that fired
// before it could be cancelled, or -1.
func (gr *Group) withdraw(futures []*Future) int {
	fired := -1
	for ix, f := range futures {
		if !f.cancel() && fired < 0 {
			fired = ix
		}
	}
	return fired
}

// edgeOf returns the chip pin number of the group pin ix and the direction
// of its last change.
func (gr *Group) edgeOf(ix int) (int, gpio.Edge) {
	ap := gr.pins[ix]
	if gr.port.state.snapshot()&ap.mask != 0 {
		return ap.number, gpio.RisingEdge
	}
	return ap.number, gpio.FallingEdge
}

// Halt interrupts a pending WaitForEdge.
func (gr *Group) Halt() error {
	gr.mu.Lock()
	defer gr.mu.Unlock()
	if gr.cancel != nil {
		gr.cancel()
		gr.cancel = nil
	}
	return nil
}

func (gr *Group) String() string {
	s := gr.port.String() + "[ "
	for _, ap := range gr.pins {
		s += strconv.Itoa(ap.number) + " "
	}
	return s + "]"
}

var _ gpio.Group = &Group{}
