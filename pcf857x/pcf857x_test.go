// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf857x

import (
	"errors"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func getDev(t *testing.T, chip Variant, address uint16, ops ...i2ctest.IO) (*Dev, *i2ctest.Playback) {
	t.Helper()
	bus := &i2ctest.Playback{Ops: ops}
	extender, err := New(bus, address, chip)
	if err != nil {
		t.Fatal(err)
	}
	return extender, bus
}

// Test basic dev functions.
func TestBasic(t *testing.T) {
	dev, bus := getDev(t, PCF8574, DefaultAddress)
	if s := dev.String(); s != "PCF8574_20" {
		t.Errorf("String()=%q", s)
	}
	if dev.Width() != 8 {
		t.Errorf("expected 8 GPIO pins. Found %d", dev.Width())
	}
	// The latch starts high, nothing is written.
	if v, err := dev.IsSet(0xFF, 0); err != nil || v != 0xFF {
		t.Errorf("IsSet()=%#x, %v", v, err)
	}
	if err := dev.Set(0x0F, 0); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := New(bus, DefaultAddress, Variant("PCF8573")); err == nil {
		t.Error("New() accepted an unknown variant")
	}
}

func TestGetSet(t *testing.T) {
	dev, bus := getDev(t, PCF8575, DefaultAddress,
		// pins 3 and 15 are low
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0xF7, 0x7F}},
		// pin 0 and 9 are driven low
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xFE, 0xFD}},
		// pin 9 back high
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xFE, 0xFF}},
	)
	v, err := dev.Get(0x0008, 0x8001)
	if err != nil {
		t.Fatal(err)
	}
	// Pin 3 isn't high, pin 15 is low, pin 0 isn't low.
	if v != 0x8000 {
		t.Errorf("Get()=%#x, expected 0x8000", v)
	}
	if err := dev.Set(0, 0x0201); err != nil {
		t.Fatal(err)
	}
	if err := dev.Set(0x0200, 0); err != nil {
		t.Fatal(err)
	}
	if v, err := dev.IsSet(0x0200, 0x0001); err != nil || v != 0x0201 {
		t.Errorf("IsSet()=%#x, %v", v, err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestBusError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	dev, err := New(bus, DefaultAddress, PCF8574)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dev.Get(0xFF, 0); err == nil || !strings.HasPrefix(err.Error(), "pcf857x: ") {
		t.Errorf("Get() returned %v", err)
	}
	if err := dev.Set(0, 0x01); err == nil {
		t.Error("Set() should fail")
	}
	// A failed write doesn't update the latch.
	if v, _ := dev.IsSet(0x01, 0); v != 0x01 {
		t.Errorf("IsSet()=%#x after a failed write", v)
	}
	if _, err := dev.NewPort(nil); err == nil {
		t.Error("NewPort() should fail without its initial sample")
	}
}

// Test the chip behind an expander.Port, with the interrupt line resolving
// a pending wait.
func TestPort(t *testing.T) {
	dev, bus := getDev(t, PCF8575, DefaultAddress,
		// initial sample
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0xFF, 0xFF}},
		// interrupt, pin 10 went low
		i2ctest.IO{Addr: DefaultAddress, R: []byte{0xFF, 0xFB}},
		// pin 3 is driven low, driving it low again is omitted
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xF7, 0xFF}},
		// toggled back high
		i2ctest.IO{Addr: DefaultAddress, W: []byte{0xFF, 0xFF}},
	)
	p, err := dev.NewPort(nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Width() != 16 {
		t.Errorf("Width()=%d", p.Width())
	}

	ap, err := p.AsyncPin(10)
	if err != nil {
		t.Fatal(err)
	}
	if ap.Mode() != expander.QuasiBidirectional {
		t.Errorf("Mode()=%s", ap.Mode())
	}
	f, err := ap.Wait(expander.FallingEdge)
	if err != nil {
		t.Fatal(err)
	}
	w := expander.NewChanWaker()
	if ok, err := f.Poll(w); ok || err != nil {
		t.Fatalf("Poll()=%t, %v", ok, err)
	}
	n, err := p.InterruptHandler().HandleInterruptsCount()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("HandleInterruptsCount()=%d, expected 1", n)
	}
	if ok, err := f.Poll(w); !ok || err != nil {
		t.Fatalf("Poll()=%t, %v", ok, err)
	}

	pin, err := p.Pin(3)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := pin.SetLow(); err != nil {
			t.Fatal(err)
		}
	}
	if h, err := pin.IsSetHigh(); err != nil || h {
		t.Errorf("IsSetHigh()=%t, %v", h, err)
	}
	if err := pin.Toggle(); err != nil {
		t.Fatal(err)
	}
	if err := pin.IntoInput(); !errors.Is(err, expander.ErrUnsupported) {
		t.Errorf("IntoInput() returned %v, the chip has no direction register", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

// Test that the pins are registered in gpioreg as expected.
func TestGPIOReg(t *testing.T) {
	dev, _ := getDev(t, PCF8574, 0x27,
		i2ctest.IO{Addr: 0x27, R: []byte{0xFF}},
	)
	p, err := dev.NewPort(nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Register(); err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	for ix := range dev.Width() {
		pin := p.GPIO(ix)
		if pin.Number() != ix {
			t.Errorf("pin.Number() does not match ordinal position %d! Found %d", ix, pin.Number())
		}
		if !strings.HasPrefix(pin.Name(), dev.String()) {
			t.Errorf("Expected pin.Name()=%s to start with dev.String()=%s", pin.Name(), dev.String())
		}
		if gpioreg.ByName(pin.Name()) == nil {
			t.Errorf("pin %s not found in gpioreg", pin.Name())
		}
	}
}
