// Copyright 2022 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tca95xx

import "periph.io/x/conn/v3/i2c"

// registerCache is one 8-bit register of the chip, with the last value read
// or written.
type registerCache struct {
	dev     *i2c.Dev
	address uint8
	got     bool
	cache   uint8
}

func newRegister(d *i2c.Dev, address uint8) registerCache {
	return registerCache{dev: d, address: address}
}

// readValue returns the cached value when cached is set and the register was
// accessed before, otherwise it reads the chip.
func (r *registerCache) readValue(cached bool) (uint8, error) {
	if cached && r.got {
		return r.cache, nil
	}
	var rx [1]byte
	if err := r.dev.Tx([]byte{r.address}, rx[:]); err != nil {
		return 0, err
	}
	r.got, r.cache = true, rx[0]
	return rx[0], nil
}

// writeValue writes v, unless cached is set and the chip already holds it.
func (r *registerCache) writeValue(v uint8, cached bool) error {
	if cached && r.got && v == r.cache {
		return nil
	}
	if err := r.dev.Tx([]byte{r.address, v}, nil); err != nil {
		return err
	}
	r.got, r.cache = true, v
	return nil
}

// update sets the bits of set and clears the bits of clr, in one
// read-modify-write. The write is skipped when nothing changes.
func (r *registerCache) update(set, clr uint8, cached bool) error {
	v, err := r.readValue(cached)
	if err != nil {
		return err
	}
	return r.writeValue((v|set)&^clr, true)
}
