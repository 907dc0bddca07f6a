// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tca95xx

// port is one 8-bit bank of the chip.
type port struct {
	name  string
	shift uint
	mask  uint8 // pins present on the bank

	// GPIO basic registers
	input  registerCache // input at the pin
	output registerCache // output control, or flipflop state if read
	iodir  registerCache // direction, 1 is input
	ipol   registerCache // polarity setting

	// PCAL variants only
	pullEn  registerCache // pull resistor enabled
	pullSel registerCache // 1 selects the pull-up
}

// split returns the part of the 32 bits masks that falls on this bank.
func (p *port) split(maskHigh, maskLow uint32) (uint8, uint8) {
	return uint8(maskHigh>>p.shift) & p.mask, uint8(maskLow>>p.shift) & p.mask
}

// match compares a register value against the expected levels and returns
// the result positioned in the 32 bits space.
func (p *port) match(reg, high, low uint8) uint32 {
	return uint32((reg&high)|(^reg&low)) << p.shift
}

func (p *port) get(maskHigh, maskLow uint32) (uint32, error) {
	h, l := p.split(maskHigh, maskLow)
	if h|l == 0 {
		return 0, nil
	}
	in, err := p.input.readValue(false)
	if err != nil {
		return 0, err
	}
	return p.match(in, h, l), nil
}

func (p *port) isSet(maskHigh, maskLow uint32) (uint32, error) {
	h, l := p.split(maskHigh, maskLow)
	if h|l == 0 {
		return 0, nil
	}
	out, err := p.output.readValue(true)
	if err != nil {
		return 0, err
	}
	return p.match(out, h, l), nil
}

func (p *port) set(maskHigh, maskLow uint32) error {
	h, l := p.split(maskHigh, maskLow)
	if h|l == 0 {
		return nil
	}
	return p.output.update(h, l, true)
}

// updateBits sets or clears the pins of mask in one of the configuration
// registers.
func (p *port) updateBits(r *registerCache, mask uint32, v bool) error {
	m, _ := p.split(mask, 0)
	if m == 0 {
		return nil
	}
	if v {
		return r.update(m, 0, true)
	}
	return r.update(0, m, true)
}
