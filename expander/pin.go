// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"errors"
	"fmt"
	"strconv"
)

// Mode is the configuration of a pin.
type Mode uint8

const (
	// Input pins can be read and waited on.
	Input Mode = iota
	// Output pins can be driven.
	Output
	// QuasiBidirectional pins can do both, like the PCF857x ones.
	QuasiBidirectional
)

func (m Mode) String() string {
	switch m {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case QuasiBidirectional:
		return "QuasiBidirectional"
	}
	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

func (m Mode) hasInput() bool {
	return m == Input || m == QuasiBidirectional
}

func (m Mode) hasOutput() bool {
	return m == Output || m == QuasiBidirectional
}

// Pin is a synchronous handle to one pin of a Port.
type Pin struct {
	port   *Port
	number int
	mask   uint32
}

// Number returns the pin number on the chip.
func (p *Pin) Number() int {
	return p.number
}

// Port returns the port the pin belongs to.
func (p *Pin) Port() *Port {
	return p.port
}

// Mode returns the current configuration of the pin.
func (p *Pin) Mode() Mode {
	return p.port.mode(p.number)
}

func (p *Pin) String() string {
	return p.port.name + "_GPIO" + strconv.Itoa(p.number)
}

// IsHigh reads the level of the pin from the chip.
func (p *Pin) IsHigh() (bool, error) {
	if !p.Mode().hasInput() {
		return false, fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
	}
	var v uint32
	err := p.port.mu.Lock(func(drv PortDriver) error {
		var err error
		v, err = drv.Get(p.mask, 0)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("expander: %w", err)
	}
	return v&p.mask != 0, nil
}

// IsLow is the opposite of IsHigh.
func (p *Pin) IsLow() (bool, error) {
	h, err := p.IsHigh()
	if err != nil {
		return false, err
	}
	return !h, nil
}

// SetHigh drives the pin high.
func (p *Pin) SetHigh() error {
	return p.Set(true)
}

// SetLow drives the pin low.
func (p *Pin) SetLow() error {
	return p.Set(false)
}

// Set drives the pin high when high is true, low otherwise.
func (p *Pin) Set(high bool) error {
	if !p.Mode().hasOutput() {
		return fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
	}
	return p.lock(func(drv PortDriver) error {
		if high {
			return drv.Set(p.mask, 0)
		}
		return drv.Set(0, p.mask)
	})
}

// IsSetHigh returns the state of the output latch of the pin.
func (p *Pin) IsSetHigh() (bool, error) {
	if !p.Mode().hasOutput() {
		return false, fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
	}
	var v uint32
	err := p.lock(func(drv PortDriver) error {
		var err error
		v, err = drv.IsSet(p.mask, 0)
		return err
	})
	return v&p.mask != 0, err
}

// Toggle inverts the output latch of the pin.
func (p *Pin) Toggle() error {
	if !p.Mode().hasOutput() {
		return fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
	}
	return p.lock(func(drv PortDriver) error {
		return Toggle(drv, p.mask)
	})
}

// IntoInput configures the pin as an input. It fails with ErrUnsupported on
// chips without a direction register.
func (p *Pin) IntoInput() error {
	err := p.lock(func(drv PortDriver) error {
		d, ok := drv.(DirectionSetter)
		if !ok {
			return ErrUnsupported
		}
		return d.SetDirection(p.mask, DirectionInput, false)
	})
	if err == nil {
		p.port.setMode(p.number, Input)
	}
	return err
}

// IntoOutput configures the pin as an output, driving it to initial.
func (p *Pin) IntoOutput(initial bool) error {
	err := p.lock(func(drv PortDriver) error {
		d, ok := drv.(DirectionSetter)
		if !ok {
			return ErrUnsupported
		}
		return d.SetDirection(p.mask, DirectionOutput, initial)
	})
	if err == nil {
		p.port.setMode(p.number, Output)
	}
	return err
}

// SetPolarityInverted inverts the reading of the pin on chips supporting it.
func (p *Pin) SetPolarityInverted(inverted bool) error {
	return p.lock(func(drv PortDriver) error {
		d, ok := drv.(PolaritySetter)
		if !ok {
			return ErrUnsupported
		}
		return d.SetPolarity(p.mask, inverted)
	})
}

// SetPullUp enables or disables the internal pull-up of the pin.
func (p *Pin) SetPullUp(enable bool) error {
	return p.lock(func(drv PortDriver) error {
		d, ok := drv.(PullUpSetter)
		if !ok {
			return ErrUnsupported
		}
		return d.SetPullUp(p.mask, enable)
	})
}

// SetPullDown enables or disables the internal pull-down of the pin.
func (p *Pin) SetPullDown(enable bool) error {
	return p.lock(func(drv PortDriver) error {
		d, ok := drv.(PullDownSetter)
		if !ok {
			return ErrUnsupported
		}
		return d.SetPullDown(p.mask, enable)
	})
}

// lock runs f on the driver. Sentinel errors of this package are returned
// as is, driver errors are wrapped.
func (p *Pin) lock(f func(drv PortDriver) error) error {
	err := p.port.mu.Lock(f)
	if err == nil || errors.Is(err, ErrUnsupported) {
		return err
	}
	return fmt.Errorf("expander: %w", err)
}
