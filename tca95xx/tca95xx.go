// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tca95xx provides an interface to the Texas Instruments TCA95 series
// of 8-bit I²C extenders.
//
// The following variants are supported:
//
//   - PCA9536 - address: 0x41
//   - PCAL6408A - addresses: 0x20, 0x21
//   - PCAL6416A - addresses: 0x20, 0x21
//   - TCA6408A - addresses: 0x20, 0x21
//   - TCA6416 - addresses: 0x20, 0x21
//   - TCA6416A - addresses: 0x20, 0x21
//   - TCA9534 - addresses: 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27
//   - TCA9534A - addresses: 0x38, 0x39, 0x3a, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f
//   - TCA9535 - addresses: 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27
//   - TCA9537 - address: 0x49
//   - TCA9538 - address: 0x70, 0x71, 0x72, 0x73
//   - TCA9539 - address: 0x74, 0x75, 0x76, 0x77
//   - TCA9554 - addresses: 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27
//   - TCA9555 - addresses: 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27
//
// Dev implements expander.PortDriver along with expander.DirectionSetter,
// expander.PolaritySetter, and on the PCAL variants expander.PullUpSetter and
// expander.PullDownSetter. Wrap it in an expander.Port to get pin handles and
// interrupt driven waits.
package tca95xx

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/i2c"
)

// Dev is a TCA95xx series I²C extender.
type Dev struct {
	mu    sync.Mutex
	name  string
	pins  int
	pulls bool
	ports []*port
}

// New returns a device object that communicates over I²C to the TCA95xx device
// family of I/O extenders.
func New(bus i2c.Bus, variant Variant, addr uint16) (*Dev, error) {
	v, found := variants[variant]
	if !found {
		return nil, fmt.Errorf("tca95xx: unsupported variant %q", variant)
	}
	if v.isAddrInvalid(addr) {
		return nil, fmt.Errorf("tca95xx: address %#x not supported by %s", addr, variant)
	}

	dev := &i2c.Dev{Bus: bus, Addr: addr}

	d := &Dev{
		name:  string(variant) + "_" + strconv.FormatInt(int64(addr), 16),
		pins:  v.pins,
		pulls: v.pulls,
		ports: v.getPorts(dev),
	}
	for _, p := range d.ports {
		p.name = d.name + "_P" + strconv.Itoa(int(p.shift/8))
		// pre-cache iodir
		if _, err := p.iodir.readValue(false); err != nil {
			return nil, fmt.Errorf("tca95xx: %w", err)
		}
	}
	return d, nil
}

// NewPort returns an expander.Port for the chip. Width defaults to the number
// of pins of the variant.
func (d *Dev) NewPort(opts *expander.Opts) (*expander.Port, error) {
	o := expander.DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Width > d.pins {
		o.Width = d.pins
	}
	return expander.NewPort(d, &o)
}

// Width returns the number of pins of the chip.
func (d *Dev) Width() int {
	return d.pins
}

func (d *Dev) String() string {
	return d.name
}

// Get implements expander.PortDriver. Only the input registers of the banks
// touched by the masks are read.
func (d *Dev) Get(maskHigh, maskLow uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint32
	for _, p := range d.ports {
		b, err := p.get(maskHigh, maskLow)
		if err != nil {
			return 0, fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
		v |= b
	}
	return v, nil
}

// IsSet implements expander.PortDriver.
func (d *Dev) IsSet(maskHigh, maskLow uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint32
	for _, p := range d.ports {
		b, err := p.isSet(maskHigh, maskLow)
		if err != nil {
			return 0, fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
		v |= b
	}
	return v, nil
}

// Set implements expander.PortDriver. Writing back an unchanged value is
// omitted.
func (d *Dev) Set(maskHigh, maskLow uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.set(maskHigh, maskLow)
}

func (d *Dev) set(maskHigh, maskLow uint32) error {
	for _, p := range d.ports {
		if err := p.set(maskHigh, maskLow); err != nil {
			return fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
	}
	return nil
}

// SetDirection implements expander.DirectionSetter.
func (d *Dev) SetDirection(mask uint32, dir expander.Direction, state bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dir == expander.DirectionOutput {
		// Load the output register before enabling the drivers.
		var err error
		if state {
			err = d.set(mask, 0)
		} else {
			err = d.set(0, mask)
		}
		if err != nil {
			return err
		}
	}
	for _, p := range d.ports {
		if err := p.updateBits(&p.iodir, mask, dir == expander.DirectionInput); err != nil {
			return fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
	}
	return nil
}

// SetPolarity implements expander.PolaritySetter. An inverted pin reads high
// when the signal is low.
func (d *Dev) SetPolarity(mask uint32, inverted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.ports {
		if err := p.updateBits(&p.ipol, mask, inverted); err != nil {
			return fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
	}
	return nil
}

// SetPullUp implements expander.PullUpSetter. Disabling leaves the pins
// floating, whichever pull was selected. Only the PCAL variants have pulls,
// the others return expander.ErrUnsupported.
func (d *Dev) SetPullUp(mask uint32, enable bool) error {
	return d.setPull(mask, true, enable)
}

// SetPullDown implements expander.PullDownSetter, see SetPullUp.
func (d *Dev) SetPullDown(mask uint32, enable bool) error {
	return d.setPull(mask, false, enable)
}

func (d *Dev) setPull(mask uint32, up, enable bool) error {
	if !d.pulls {
		return fmt.Errorf("tca95xx: %s: %w", d.name, expander.ErrUnsupported)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.ports {
		var err error
		if enable {
			// Select before enabling so the other pull never shows up.
			if err = p.updateBits(&p.pullSel, mask, up); err == nil {
				err = p.updateBits(&p.pullEn, mask, true)
			}
		} else {
			err = p.updateBits(&p.pullEn, mask, false)
		}
		if err != nil {
			return fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
	}
	return nil
}

// IsInput reports which pins of mask are configured as inputs.
func (d *Dev) IsInput(mask uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint32
	for _, p := range d.ports {
		m, _ := p.split(mask, 0)
		if m == 0 {
			continue
		}
		dir, err := p.iodir.readValue(true)
		if err != nil {
			return 0, fmt.Errorf("tca95xx: %s: %w", p.name, err)
		}
		v |= p.match(dir, m, 0)
	}
	return v, nil
}

var (
	_ expander.PortDriver      = &Dev{}
	_ expander.DirectionSetter = &Dev{}
	_ expander.PolaritySetter  = &Dev{}
	_ expander.PullUpSetter    = &Dev{}
	_ expander.PullDownSetter  = &Dev{}
	_ fmt.Stringer             = &Dev{}
)
