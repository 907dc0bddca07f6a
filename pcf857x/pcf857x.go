// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// This package provides a driver for the TI/NXP PCF857X I2C I/O Expander. These
// devices provide 8 pins (PCF8574) or 16 pins (PCF8575) of
// "quasi-bidirectional" input/output. This device is commonly used in LCD
// backpacks, particularly those sold as LCD2004, LCD1602.
//
// The PCF8575 is a 16-pin device that is functionally identical to the PCF8574.
// When communicating with the PCF8575 reads and writes are 2 bytes wide, while
// they're one byte wide with the PCF8574.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
//
// # Notes
//
// A pin can only be read while its latch is high. If nothing pulls it down,
// then it's high. If it's pulled down, it's low. Setting a pin to Low
// activates an Open Drain to ground.
//
// The chip has an interrupt pin that goes low on any change of the inputs,
// but it doesn't tell you which pin changed. Connect it to a host GPIO and
// drive an expander.Watcher with it; the expander package works out which
// pin changed and resolves the pending waits.
//
// This chip doesn't implement normal i2c register architectures. You write 8 or
// 16 bits out, and that sets the corresponding pins, or you read 8/16 bits and
// get the state of the pins.
package pcf857x

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/i2c"
)

// Variant represents the actual chip model.
type Variant string

const (
	PCF8574 Variant = "PCF8574"
	PCF8575 Variant = "PCF8575"

	DefaultAddress uint16 = 0x20
)

// Dev is representation of a PCF857x device. It implements
// expander.PortDriver.
type Dev struct {
	mask     uint32
	width    int
	chipType Variant

	mu    sync.Mutex
	d     *i2c.Dev
	value uint32 // output latch
}

// New creates a new PCF857x io expander and returns it. chip should be one of
// the Variant constants above.
//
// The bus is not accessed. The chip powers up with all the latches high, the
// first write happens when a pin is driven low.
func New(bus i2c.Bus, address uint16, chip Variant) (*Dev, error) {
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: address},
		chipType: chip}
	switch chip {
	case PCF8574:
		dev.width = 8
	case PCF8575:
		dev.width = 16
	default:
		return nil, fmt.Errorf("pcf857x: unsupported variant %q", string(chip))
	}
	dev.mask = uint32(1)<<dev.width - 1
	dev.value = dev.mask
	return dev, nil
}

// NewPort returns an expander.Port for the chip. Width defaults to the number
// of pins of the variant.
func (dev *Dev) NewPort(opts *expander.Opts) (*expander.Port, error) {
	o := expander.DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Width <= 0 || o.Width > dev.width {
		o.Width = dev.width
	}
	return expander.NewPort(dev, &o)
}

// Width returns the number of pins of the chip.
func (dev *Dev) Width() int {
	return dev.width
}

// Get implements expander.PortDriver. It reads the levels present on the
// pins. Pins whose latch is low always read low.
func (dev *Dev) Get(maskHigh, maskLow uint32) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	v, err := dev.read()
	if err != nil {
		return 0, err
	}
	return ((v & maskHigh) | (^v & maskLow)) & dev.mask, nil
}

// IsSet implements expander.PortDriver. The latch is never read back from the
// chip, the last written value is returned.
func (dev *Dev) IsSet(maskHigh, maskLow uint32) (uint32, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return ((dev.value & maskHigh) | (^dev.value & maskLow)) & dev.mask, nil
}

// Set implements expander.PortDriver. All the pins change in the same write.
func (dev *Dev) Set(maskHigh, maskLow uint32) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.write((dev.value | maskHigh) &^ maskLow)
}

// read performs the low level i2c read operation from the device.
func (dev *Dev) read() (uint32, error) {
	r := make([]byte, dev.width/8)
	if err := dev.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("pcf857x: %w", err)
	}
	result := uint32(r[0])
	if len(r) > 1 {
		result |= uint32(r[1]) << 8
	}
	return result, nil
}

// write performs the low-level write to the device. If the resulting value of
// the device is unchanged, the write is skipped.
func (dev *Dev) write(value uint32) error {
	value &= dev.mask
	if dev.value == value {
		return nil
	}
	w := make([]byte, dev.width/8)
	for ix := range w {
		w[ix] = byte(value >> (ix * 8))
	}
	if err := dev.d.Tx(w, nil); err != nil {
		return fmt.Errorf("pcf857x: %w", err)
	}
	dev.value = value
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("%s_%x", dev.chipType, dev.d.Addr)
}

var _ expander.PortDriver = &Dev{}
