// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx

import (
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/spi"
)

// regBus reads and writes single 8 bits registers of the chip.
type regBus interface {
	readReg(reg uint8) (uint8, error)
	writeReg(reg, value uint8) error
}

type i2cBus struct {
	d *i2c.Dev
}

func (b *i2cBus) readReg(reg uint8) (uint8, error) {
	r := [1]byte{}
	err := b.d.Tx([]byte{reg}, r[:])
	return r[0], err
}

func (b *i2cBus) writeReg(reg, value uint8) error {
	return b.d.Tx([]byte{reg, value}, nil)
}

// spiBus frames registers accesses with the SPI opcode 0b0100AAAR.
type spiBus struct {
	c    spi.Conn
	addr uint8
}

func (b *spiBus) opcode(read bool) uint8 {
	op := 0x40 | b.addr<<1
	if read {
		op |= 1
	}
	return op
}

func (b *spiBus) readReg(reg uint8) (uint8, error) {
	// Full duplex: the register value is clocked out during the third byte.
	w := []byte{b.opcode(true), reg, 0}
	r := make([]byte, len(w))
	err := b.c.Tx(w, r)
	return r[2], err
}

func (b *spiBus) writeReg(reg, value uint8) error {
	return b.c.Tx([]byte{b.opcode(false), reg, value}, nil)
}

// register is one register of the chip, with the last value read or
// written.
type register struct {
	bus     regBus
	address uint8
	got     bool
	cache   uint8
}

func (r *register) read(cached bool) (uint8, error) {
	if cached && r.got {
		return r.cache, nil
	}
	v, err := r.bus.readReg(r.address)
	if err == nil {
		r.got = true
		r.cache = v
	}
	return v, err
}

// write skips the bus access when the cached value is already v.
func (r *register) write(v uint8) error {
	if r.got && r.cache == v {
		return nil
	}
	if err := r.bus.writeReg(r.address, v); err != nil {
		return err
	}
	r.got = true
	r.cache = v
	return nil
}

func (r *register) update(set, clr uint8) error {
	v, err := r.read(true)
	if err != nil {
		return err
	}
	return r.write((v | set) &^ clr)
}
