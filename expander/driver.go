// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"errors"
	"sync"
)

// AllPins is the mask covering every pin an expander can have.
const AllPins uint32 = 0xFFFF_FFFF

var (
	// ErrTooManyWaiters is returned when a pin already has the maximum number
	// of pending waits. See Opts.WaitersPerPin.
	ErrTooManyWaiters = errors.New("expander: too many waiters on pin")
	// ErrWrongMode is returned when reading a pin configured as output, or
	// driving a pin configured as input.
	ErrWrongMode = errors.New("expander: operation not allowed in pin mode")
	// ErrUnsupported is returned when the chip lacks a feature.
	ErrUnsupported = errors.New("expander: not supported by device")
	// ErrInvalidPin is returned for pin numbers beyond the port width.
	ErrInvalidPin = errors.New("expander: invalid pin number")
	// ErrMixedPorts is returned by multi-pin operations given pins of
	// different ports.
	ErrMixedPorts = errors.New("expander: pins belong to different ports")
)

// PortDriver is the register level backend of one expander chip.
//
// Masks are 32 bits wide with bit n standing for pin n, regardless of how many
// pins the chip actually has.
type PortDriver interface {
	// Set drives all pins in maskHigh high and all pins in maskLow low. The
	// driver should change them at the same time.
	Set(maskHigh, maskLow uint32) error
	// IsSet reports whether pins in maskHigh were set high and pins in maskLow
	// were set low. For each pin in either mask the result has a 1 when the
	// pin meets the expectation, a 0 otherwise. Other bits are always 0. A bit
	// in both masks is 1.
	IsSet(maskHigh, maskLow uint32) (uint32, error)
	// Get is like IsSet but for the levels actually present on the pins.
	Get(maskHigh, maskLow uint32) (uint32, error)
}

// Direction of a pin.
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

func (d Direction) String() string {
	if d == DirectionOutput {
		return "Output"
	}
	return "Input"
}

// DirectionSetter is implemented by totem-pole chips that have a
// configuration register.
type DirectionSetter interface {
	// SetDirection sets the direction of all pins in mask. When switching to
	// output, the pins are put to state first so they don't glitch.
	SetDirection(mask uint32, dir Direction, state bool) error
}

// PolaritySetter is implemented by chips that can invert their inputs.
type PolaritySetter interface {
	SetPolarity(mask uint32, inverted bool) error
}

// PullUpSetter is implemented by chips with internal pull-ups.
type PullUpSetter interface {
	SetPullUp(mask uint32, enable bool) error
}

// PullDownSetter is implemented by chips with internal pull-downs.
type PullDownSetter interface {
	SetPullDown(mask uint32, enable bool) error
}

// OutputOnly is implemented by chips without an input path, like shift
// registers. Their pins can't be configured as inputs.
type OutputOnly interface {
	OutputOnly()
}

// Toggle inverts the output latch of every pin in mask.
func Toggle(drv PortDriver, mask uint32) error {
	// Pins currently low go high.
	high, err := drv.IsSet(0, mask)
	if err != nil {
		return err
	}
	// Pins currently high go low.
	low, err := drv.IsSet(mask, 0)
	if err != nil {
		return err
	}
	return drv.Set(high, low)
}

// PortMutex serializes access to a PortDriver shared by several pin handles.
type PortMutex interface {
	// Lock runs f with exclusive access to the driver.
	Lock(f func(drv PortDriver) error) error
}

// Mutex is the default PortMutex, based on sync.Mutex.
type Mutex struct {
	mu  sync.Mutex
	drv PortDriver
}

// NewMutex returns a Mutex guarding drv.
func NewMutex(drv PortDriver) *Mutex {
	return &Mutex{drv: drv}
}

// Lock implements PortMutex.
func (m *Mutex) Lock(f func(drv PortDriver) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return f(m.drv)
}

var _ PortMutex = &Mutex{}
