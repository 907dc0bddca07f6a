// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
)

func TestGPIO_register(t *testing.T) {
	p, err := NewPort(&fakeDriver{}, &Opts{Name: "REG_21", Width: 4})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Register(); err != nil {
		t.Fatal(err)
	}
	for n := range 4 {
		pin := gpioreg.ByName("REG_21_GPIO" + strconv.Itoa(n))
		if pin == nil {
			t.Fatalf("pin %d not found in gpioreg", n)
		}
		if pin.Number() != n {
			t.Errorf("Number()=%d, expected %d", pin.Number(), n)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if gpioreg.ByName("REG_21_GPIO0") != nil {
		t.Error("Close() didn't unregister the pins")
	}
}

func TestGPIO_pin(t *testing.T) {
	p, drv := newFakePort(t, 0b1, nil)
	pin := p.GPIO(0)
	if pin.Name() != pin.String() || pin.Name() != "FAKE_20_GPIO0" {
		t.Errorf("Name()=%q String()=%q", pin.Name(), pin.String())
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err == nil {
		t.Error("In(PullUp) should fail on a chip without pull-ups")
	}
	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if drv.out != 1 {
		t.Errorf("In() on a quasi-bidirectional pin should set its latch, found %#b", drv.out)
	}
	if pin.Pull() != gpio.Float || pin.DefaultPull() != gpio.Float {
		t.Errorf("Pull()=%s DefaultPull()=%s", pin.Pull(), pin.DefaultPull())
	}
	if pin.Read() != gpio.High {
		t.Error("Read() should return High")
	}
	if pin.WaitForEdge(0) {
		t.Error("WaitForEdge() without an edge configured should return false")
	}
	if err := pin.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	if drv.out != 0 {
		t.Errorf("Out(Low) latch=%#b", drv.out)
	}
	if err := pin.PWM(gpio.DutyHalf, physic.KiloHertz); err == nil {
		t.Error("PWM() should fail")
	}
	drv.setErr(errBus)
	if pin.Read() != gpio.Low {
		t.Error("Read() on bus error should return Low")
	}
}

func TestGPIO_WaitForEdge(t *testing.T) {
	p, drv := newFakePort(t, 0, nil)
	pin := p.GPIO(6)
	if err := pin.In(gpio.Float, gpio.FallingEdge); err != nil {
		t.Fatal(err)
	}
	if pin.WaitForEdge(time.Millisecond) {
		t.Fatal("WaitForEdge() returned true without an edge")
	}
	if p.state.pending(6) != 0 {
		t.Fatal("timed out WaitForEdge() left a registration behind")
	}

	done := make(chan bool)
	go func() {
		done <- pin.WaitForEdge(-1)
	}()
	waitPending(t, p, 6, 1)
	h := p.InterruptHandler()
	drv.setLevels(1 << 6)
	_ = h.HandleInterrupts()
	drv.setLevels(0)
	_ = h.HandleInterrupts()
	select {
	case ok := <-done:
		if !ok {
			t.Fatal("WaitForEdge() returned false")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitForEdge() didn't return on falling edge")
	}
}

func TestGPIO_Halt(t *testing.T) {
	p, _ := newFakePort(t, 0, nil)
	pin := p.GPIO(1)
	if err := pin.In(gpio.Float, gpio.BothEdges); err != nil {
		t.Fatal(err)
	}
	done := make(chan bool)
	go func() {
		done <- pin.WaitForEdge(-1)
	}()
	waitPending(t, p, 1, 1)
	if err := pin.Halt(); err != nil {
		t.Fatal(err)
	}
	select {
	case ok := <-done:
		if ok {
			t.Fatal("WaitForEdge() returned true after Halt()")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Halt() didn't interrupt WaitForEdge()")
	}
	waitPending(t, p, 1, 0)
}

func TestGPIO_pulls(t *testing.T) {
	drv := &fakeTotemPole{}
	p, err := NewPort(drv, &Opts{Name: "TP", Width: 8})
	if err != nil {
		t.Fatal(err)
	}
	pin := p.GPIO(3)
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		t.Fatal(err)
	}
	if drv.inputs != 1<<3 || drv.pullDowns != 1<<3 || drv.pullUps != 0 {
		t.Errorf("inputs=%#b pull-downs=%#b pull-ups=%#b", drv.inputs, drv.pullDowns, drv.pullUps)
	}
	if pin.Pull() != gpio.PullDown {
		t.Errorf("Pull()=%s", pin.Pull())
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if drv.pullUps != 1<<3 {
		t.Errorf("pull-ups=%#b", drv.pullUps)
	}
	if err := pin.In(gpio.Float, gpio.NoEdge); err != nil {
		t.Fatal(err)
	}
	if drv.pullUps != 0 || drv.pullDowns != 0 {
		t.Errorf("Float left pull-ups=%#b pull-downs=%#b", drv.pullUps, drv.pullDowns)
	}
}

func TestGPIO_outputOnly(t *testing.T) {
	drv := &fakeShiftRegister{}
	p, err := NewPort(drv, &Opts{Name: "SR", Width: 8})
	if err != nil {
		t.Fatal(err)
	}
	pin := p.GPIO(2)
	if err := pin.In(gpio.Float, gpio.NoEdge); !errors.Is(err, ErrUnsupported) {
		t.Errorf("In() returned %v, expected ErrUnsupported", err)
	}
	if drv.out != 0 {
		t.Errorf("In() drove the output, latch=%#b", drv.out)
	}
	if err := pin.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	if drv.out != 1<<2 {
		t.Errorf("latch=%#b", drv.out)
	}
}
