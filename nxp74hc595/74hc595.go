// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// The 74HC595 is a serial shift register. It converts a serial stream to a
// parallel output. For example, you can use it as an SPI => Parallel
// converter. Up to four of them can be daisy chained, Q7S of one chip feeding
// DS of the next.
//
// Dev implements expander.PortDriver. The chip has no inputs: Get reports
// the levels it drives, which are the last written ones. A wait on one of
// its pins resolves when another goroutine drives the pin.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
//
// There's a nice tutorial on the device here:
//
// https://docs.arduino.cc/tutorials/communication/guide-to-shift-out/
package nxp74hc595

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/spi"
)

const devName = "74HC595"

// Dev represents a chain of 74hc595 devices.
type Dev struct {
	mu    sync.Mutex
	conn  spi.Conn
	chips int
	mask  uint32
	value uint32
	wrote bool
	buf   []byte
}

// New accepts an spi.Conn and returns a new HC74595 device.
func New(conn spi.Conn) (*Dev, error) {
	return NewChain(conn, 1)
}

// NewChain returns a Dev for chips daisy chained devices sharing conn. Pin 0
// is Q0 of the chip directly connected to the host.
func NewChain(conn spi.Conn, chips int) (*Dev, error) {
	if chips < 1 || chips > 4 {
		return nil, fmt.Errorf("nxp74hc595: invalid chain length %d", chips)
	}
	return &Dev{
		conn:  conn,
		chips: chips,
		mask:  uint32(1)<<(8*chips) - 1,
		buf:   make([]byte, chips),
	}, nil
}

// NewPort returns an expander.Port for the chain. Width defaults to the
// number of outputs.
func (dev *Dev) NewPort(opts *expander.Opts) (*expander.Port, error) {
	o := expander.DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Width > dev.Width() {
		o.Width = dev.Width()
	}
	return expander.NewPort(dev, &o)
}

// Width returns the number of outputs.
func (dev *Dev) Width() int {
	return 8 * dev.chips
}

// Set implements expander.PortDriver.
func (dev *Dev) Set(maskHigh, maskLow uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.write((dev.value | maskHigh) &^ maskLow)
}

// IsSet implements expander.PortDriver.
func (dev *Dev) IsSet(maskHigh, maskLow uint32) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return ((dev.value & maskHigh) | (^dev.value & maskLow)) & dev.mask, nil
}

// Get implements expander.PortDriver. It doesn't access the bus.
func (dev *Dev) Get(maskHigh, maskLow uint32) (uint32, error) {
	return dev.IsSet(maskHigh, maskLow)
}

// write does the low-level write to the device. The first write always
// happens, since the power-on state of the register is unknown.
func (dev *Dev) write(value uint32) error {
	value &= dev.mask
	if dev.wrote && dev.value == value {
		return nil
	}
	// The byte shifted first ends up in the farthest chip.
	for ix := range dev.buf {
		dev.buf[ix] = byte(value >> (8 * (dev.chips - 1 - ix)))
	}
	if err := dev.conn.Tx(dev.buf, nil); err != nil {
		return fmt.Errorf("nxp74hc595: %w", err)
	}
	dev.value = value
	dev.wrote = true
	return nil
}

func (dev *Dev) String() string {
	if dev.chips == 1 {
		return devName
	}
	return fmt.Sprintf("%sx%d", devName, dev.chips)
}

// OutputOnly implements expander.OutputOnly.
func (dev *Dev) OutputOnly() {}

var (
	_ expander.PortDriver = &Dev{}
	_ expander.OutputOnly = &Dev{}
)
