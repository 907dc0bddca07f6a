// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nxp74hc595

import (
	"testing"

	"github.com/GermanBionicSystems/portexpander/expander"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spitest"
)

func connect(t *testing.T, ops ...conntest.IO) (spi.Conn, *spitest.Playback) {
	t.Helper()
	pb := &spitest.Playback{Playback: conntest.Playback{Ops: ops}}
	conn, err := pb.Connect(physic.MegaHertz, spi.Mode1, 8)
	if err != nil {
		t.Fatal(err)
	}
	return conn, pb
}

func TestBasic(t *testing.T) {
	conn, pb := connect(t,
		// the first write always happens
		conntest.IO{W: []byte{0x00}},
		conntest.IO{W: []byte{0x81}},
		conntest.IO{W: []byte{0x01}},
	)
	dev, err := New(conn)
	if err != nil {
		t.Fatal(err)
	}
	if dev.String() != "74HC595" || dev.Width() != 8 {
		t.Errorf("String()=%q Width()=%d", dev.String(), dev.Width())
	}
	for _, m := range [][2]uint32{{0, 0xFF}, {0x81, 0}, {0x81, 0}, {0, 0x80}} {
		if err := dev.Set(m[0], m[1]); err != nil {
			t.Fatal(err)
		}
	}
	if v, err := dev.Get(0x01, 0x80); err != nil || v != 0x81 {
		t.Errorf("Get()=%#x, %v", v, err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestChain(t *testing.T) {
	conn, pb := connect(t,
		// farthest chip first
		conntest.IO{W: []byte{0x01, 0x80, 0x00}},
	)
	dev, err := NewChain(conn, 3)
	if err != nil {
		t.Fatal(err)
	}
	if dev.String() != "74HC595x3" || dev.Width() != 24 {
		t.Errorf("String()=%q Width()=%d", dev.String(), dev.Width())
	}
	if err := dev.Set(1<<16|1<<15, 0); err != nil {
		t.Fatal(err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewChain(conn, 5); err == nil {
		t.Error("NewChain() accepted 5 chips")
	}
}

func TestPort(t *testing.T) {
	conn, pb := connect(t,
		conntest.IO{W: []byte{0x04}},
		conntest.IO{W: []byte{0x05}},
	)
	dev, err := New(conn)
	if err != nil {
		t.Fatal(err)
	}
	p, err := dev.NewPort(nil)
	if err != nil {
		t.Fatal(err)
	}
	gr, err := p.Group(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := gr.Out(0b10, 0); err != nil {
		t.Fatal(err)
	}

	// Waiting on an output resolves once the port is sampled after it was
	// driven.
	ap, err := p.AsyncPin(0)
	if err != nil {
		t.Fatal(err)
	}
	f, err := ap.Wait(expander.RisingEdge)
	if err != nil {
		t.Fatal(err)
	}
	w := expander.NewChanWaker()
	if ok, err := f.Poll(w); ok || err != nil {
		t.Fatalf("Poll()=%t, %v", ok, err)
	}
	if err := ap.SetHigh(); err != nil {
		t.Fatal(err)
	}
	if err := p.InterruptHandler().HandleInterrupts(); err != nil {
		t.Fatal(err)
	}
	if ok, err := f.Poll(w); !ok || err != nil {
		t.Fatalf("Poll()=%t, %v", ok, err)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}
