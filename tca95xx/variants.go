// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tca95xx

import (
	"periph.io/x/conn/v3/i2c"
)

// Variant is one chip of the family.
type Variant string

// Supported chips. Datasheets are at https://www.ti.com/lit/gpn/<name>.
const (
	PCA9536   Variant = "PCA9536"   // 4 pins, fixed address.
	PCAL6408A Variant = "PCAL6408A" // 8 pins, pull-ups and pull-downs.
	PCAL6416A Variant = "PCAL6416A" // 16 pins, pull-ups and pull-downs.
	TCA6408A  Variant = "TCA6408A"  // 8 pins.
	TCA6416   Variant = "TCA6416"   // 16 pins.
	TCA6416A  Variant = "TCA6416A"  // 16 pins.
	TCA9534   Variant = "TCA9534"   // 8 pins.
	TCA9534A  Variant = "TCA9534A"  // 8 pins, alternate address range.
	TCA9535   Variant = "TCA9535"   // 16 pins.
	TCA9537   Variant = "TCA9537"   // 4 pins, fixed address.
	TCA9538   Variant = "TCA9538"   // 8 pins.
	TCA9539   Variant = "TCA9539"   // 16 pins.
	TCA9554   Variant = "TCA9554"   // 8 pins.
	TCA9555   Variant = "TCA9555"   // 16 pins.
)

// Register kinds, in the order the chips lay them out.
const (
	regInput = iota
	regOutput
	regPolarity
	regConfig
)

type variant struct {
	first, last uint16 // I²C address range
	pins        int
	// PCAL agile I/O registers, including pull resistors.
	pulls bool
}

var variants = map[Variant]variant{
	PCA9536:   {0x41, 0x41, 4, false},
	PCAL6408A: {0x20, 0x21, 8, true},
	PCAL6416A: {0x20, 0x21, 16, true},
	TCA6408A:  {0x20, 0x21, 8, false},
	TCA6416:   {0x20, 0x21, 16, false},
	TCA6416A:  {0x20, 0x21, 16, false},
	TCA9534:   {0x20, 0x27, 8, false},
	TCA9534A:  {0x38, 0x3f, 8, false},
	TCA9535:   {0x20, 0x27, 16, false},
	TCA9537:   {0x49, 0x49, 4, false},
	TCA9538:   {0x70, 0x73, 8, false},
	TCA9539:   {0x74, 0x77, 16, false},
	TCA9554:   {0x20, 0x27, 8, false},
	TCA9555:   {0x20, 0x27, 16, false},
}

func (v variant) isAddrInvalid(addr uint16) bool {
	return addr < v.first || addr > v.last
}

// agileBase is the first register of the PCAL extension. It holds two drive
// strength registers and an input latch per bank, then the pull enable and
// pull select registers.
const agileBase = 0x40

// getPorts returns one port per 8-bit bank. 16-bit chips interleave the
// registers of their two banks.
func (v variant) getPorts(d *i2c.Dev) []*port {
	banks := (v.pins + 7) / 8
	ports := make([]*port, banks)
	for b := range ports {
		reg := func(kind int) registerCache {
			return newRegister(d, uint8(kind*banks+b))
		}
		width := min(v.pins-8*b, 8)
		ports[b] = &port{
			shift:  uint(8 * b),
			mask:   uint8(1<<width - 1),
			input:  reg(regInput),
			output: reg(regOutput),
			ipol:   reg(regPolarity),
			iodir:  reg(regConfig),
		}
		if v.pulls {
			pullEn := agileBase + 3*banks + b
			ports[b].pullEn = newRegister(d, uint8(pullEn))
			ports[b].pullSel = newRegister(d, uint8(pullEn+banks))
		}
	}
	return ports
}
