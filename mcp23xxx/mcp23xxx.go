// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// Variant is the type denoting a specific variant of the family.
type Variant string

const (
	MCP23008 Variant = "MCP23008" // 8 pins, I²C
	MCP23S08 Variant = "MCP23S08" // 8 pins, SPI
	MCP23009 Variant = "MCP23009" // 8 open-drain pins, I²C
	MCP23S09 Variant = "MCP23S09" // 8 open-drain pins, SPI
	MCP23017 Variant = "MCP23017" // 16 pins, I²C
	MCP23S17 Variant = "MCP23S17" // 16 pins, SPI
	MCP23018 Variant = "MCP23018" // 16 open-drain pins, I²C
	MCP23S18 Variant = "MCP23S18" // 16 open-drain pins, SPI
)

type variant struct {
	pins int
	spi  bool
}

var variants = map[Variant]variant{
	MCP23008: {pins: 8},
	MCP23S08: {pins: 8, spi: true},
	MCP23009: {pins: 8},
	MCP23S09: {pins: 8, spi: true},
	MCP23017: {pins: 16},
	MCP23S17: {pins: 16, spi: true},
	MCP23018: {pins: 16},
	MCP23S18: {pins: 16, spi: true},
}

// Registers, numbered as on the 8 pins chips. With IOCON.BANK cleared the
// 16 pins chips interleave the A and B registers.
const (
	regIODIR   uint8 = 0x00 // 1: input
	regIPOL    uint8 = 0x01 // 1: GPIO reflects inverted value of the pin
	regGPINTEN uint8 = 0x02 // 1: enable interrupt-on-change
	regDEFVAL  uint8 = 0x03
	regINTCON  uint8 = 0x04 // 0: compare to the previous value, 1: to DEFVAL
	regIOCON   uint8 = 0x05
	regGPPU    uint8 = 0x06 // 1: 100kΩ pull-up
	regINTF    uint8 = 0x07
	regINTCAP  uint8 = 0x08
	regGPIO    uint8 = 0x09
	regOLAT    uint8 = 0x0A
)

// IOCON bits.
const (
	ioconINTPOL uint8 = 1 << 1 // INT active-high
	ioconODR    uint8 = 1 << 2 // INT open-drain, overrides INTPOL
	ioconHAEN   uint8 = 1 << 3 // SPI hardware address enable
	ioconMIRROR uint8 = 1 << 6 // INTA and INTB are ORed
)

// port is one 8-bit bank of the chip.
type port struct {
	shift   uint
	iodir   register
	ipol    register
	gpinten register
	intcon  register
	gppu    register
	gpio    register
	olat    register
}

// ioconAddress returns the address of IOCON. It is shared by both banks.
func ioconAddress(pins int) uint8 {
	if pins == 16 {
		return regIOCON * 2
	}
	return regIOCON
}

func newPort(bus regBus, index, count int) *port {
	reg := func(r uint8) register {
		if count == 1 {
			return register{bus: bus, address: r}
		}
		return register{bus: bus, address: r*2 + uint8(index)}
	}
	return &port{
		shift:   uint(8 * index),
		iodir:   reg(regIODIR),
		ipol:    reg(regIPOL),
		gpinten: reg(regGPINTEN),
		intcon:  reg(regINTCON),
		gppu:    reg(regGPPU),
		gpio:    reg(regGPIO),
		olat:    reg(regOLAT),
	}
}

func (p *port) bits(mask uint32) uint8 {
	return uint8(mask >> p.shift)
}

// Dev is a MCP23xxx GPIO expander.
type Dev struct {
	mu    sync.Mutex
	name  string
	pins  int
	iocon register
	ports []*port
}

// NewI2C returns a device object that communicates over I²C. addr is between
// 0x20 and 0x27.
func NewI2C(bus i2c.Bus, variant Variant, addr uint16) (*Dev, error) {
	v, found := variants[variant]
	if !found || v.spi {
		return nil, fmt.Errorf("mcp23xxx: %s is not an I²C variant", string(variant))
	}
	if addr < 0x20 || addr > 0x27 {
		return nil, fmt.Errorf("mcp23xxx: invalid address %#x", addr)
	}
	b := &i2cBus{d: &i2c.Dev{Bus: bus, Addr: addr}}
	return newDev(b, string(variant)+"_"+strconv.FormatInt(int64(addr), 16), v)
}

// NewSPI returns a device object that communicates over SPI. hwAddr is the
// level of the address pins, between 0 and 7. The chips only check it once
// hardware addressing is enabled, which NewSPI does when hwAddr isn't 0.
func NewSPI(conn spi.Conn, variant Variant, hwAddr uint8) (*Dev, error) {
	v, found := variants[variant]
	if !found || !v.spi {
		return nil, fmt.Errorf("mcp23xxx: %s is not a SPI variant", string(variant))
	}
	if hwAddr > 7 {
		return nil, fmt.Errorf("mcp23xxx: invalid hardware address %d", hwAddr)
	}
	if hwAddr != 0 {
		// Until HAEN is set, every chip on the bus answers to address 0.
		b := &spiBus{c: conn}
		r := register{bus: b, address: ioconAddress(v.pins)}
		if err := r.update(ioconHAEN, 0); err != nil {
			return nil, fmt.Errorf("mcp23xxx: %w", err)
		}
	}
	b := &spiBus{c: conn, addr: hwAddr}
	return newDev(b, string(variant)+"_"+strconv.Itoa(int(hwAddr)), v)
}

func newDev(bus regBus, name string, v variant) (*Dev, error) {
	d := &Dev{name: name, pins: v.pins}
	count := v.pins / 8
	for i := range count {
		d.ports = append(d.ports, newPort(bus, i, count))
	}
	d.iocon = register{bus: bus, address: ioconAddress(v.pins)}
	for _, p := range d.ports {
		// pre-cache iodir and the output latch
		if _, err := p.iodir.read(false); err != nil {
			return nil, fmt.Errorf("mcp23xxx: %w", err)
		}
		if _, err := p.olat.read(false); err != nil {
			return nil, fmt.Errorf("mcp23xxx: %w", err)
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

// Get implements expander.PortDriver. Only the GPIO registers of the banks
// touched by the masks are read.
func (d *Dev) Get(maskHigh, maskLow uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint32
	for _, p := range d.ports {
		h, l := p.bits(maskHigh), p.bits(maskLow)
		if h|l == 0 {
			continue
		}
		in, err := p.gpio.read(false)
		if err != nil {
			return 0, fmt.Errorf("mcp23xxx: %w", err)
		}
		v |= uint32((in&h)|(^in&l)) << p.shift
	}
	return v, nil
}

// IsSet implements expander.PortDriver.
func (d *Dev) IsSet(maskHigh, maskLow uint32) (uint32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var v uint32
	for _, p := range d.ports {
		h, l := p.bits(maskHigh), p.bits(maskLow)
		if h|l == 0 {
			continue
		}
		out, err := p.olat.read(true)
		if err != nil {
			return 0, fmt.Errorf("mcp23xxx: %w", err)
		}
		v |= uint32((out&h)|(^out&l)) << p.shift
	}
	return v, nil
}

// Set implements expander.PortDriver. It writes the output latches, writing
// back an unchanged value is omitted.
func (d *Dev) Set(maskHigh, maskLow uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.set(maskHigh, maskLow)
}

func (d *Dev) set(maskHigh, maskLow uint32) error {
	for _, p := range d.ports {
		h, l := p.bits(maskHigh), p.bits(maskLow)
		if h|l == 0 {
			continue
		}
		if err := p.olat.update(h, l); err != nil {
			return fmt.Errorf("mcp23xxx: %w", err)
		}
	}
	return nil
}

// updateBits sets or clears the pins of mask in one register of every bank.
func (d *Dev) updateBits(reg func(p *port) *register, mask uint32, v bool) error {
	for _, p := range d.ports {
		m := p.bits(mask)
		if m == 0 {
			continue
		}
		var err error
		if v {
			err = reg(p).update(m, 0)
		} else {
			err = reg(p).update(0, m)
		}
		if err != nil {
			return fmt.Errorf("mcp23xxx: %w", err)
		}
	}
	return nil
}

// SetDirection implements expander.DirectionSetter.
func (d *Dev) SetDirection(mask uint32, dir expander.Direction, state bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if dir == expander.DirectionOutput {
		// Load the latch before enabling the drivers.
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
	return d.updateBits(func(p *port) *register { return &p.iodir }, mask, dir == expander.DirectionInput)
}

// SetPolarity implements expander.PolaritySetter.
func (d *Dev) SetPolarity(mask uint32, inverted bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(func(p *port) *register { return &p.ipol }, mask, inverted)
}

// SetPullUp implements expander.PullUpSetter.
func (d *Dev) SetPullUp(mask uint32, enable bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(func(p *port) *register { return &p.gppu }, mask, enable)
}

// EnableInterrupts makes the chip pull its INT line low when any pin of mask
// changes compared to its previous value. On 16 pins chips INTA and INTB are
// mirrored so that a single host GPIO is enough. With openDrain, INT doesn't
// drive high and needs a pull-up, so several chips can share one line.
func (d *Dev) EnableInterrupts(mask uint32, openDrain bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	set, clr := uint8(0), ioconINTPOL
	if len(d.ports) == 2 {
		set |= ioconMIRROR
	}
	if openDrain {
		set |= ioconODR
	} else {
		clr |= ioconODR
	}
	if err := d.iocon.update(set, clr); err != nil {
		return fmt.Errorf("mcp23xxx: %w", err)
	}
	if err := d.updateBits(func(p *port) *register { return &p.intcon }, mask, false); err != nil {
		return err
	}
	return d.updateBits(func(p *port) *register { return &p.gpinten }, mask, true)
}

// DisableInterrupts stops the pins of mask from raising INT.
func (d *Dev) DisableInterrupts(mask uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updateBits(func(p *port) *register { return &p.gpinten }, mask, false)
}

var (
	_ expander.PortDriver      = &Dev{}
	_ expander.DirectionSetter = &Dev{}
	_ expander.PolaritySetter  = &Dev{}
	_ expander.PullUpSetter    = &Dev{}
)
