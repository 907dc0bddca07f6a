// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import "fmt"

// ReadMultiple reads several pins of the same port in a single bus
// transaction. Reading pins one by one takes a transaction each and can
// observe glitches between them.
func ReadMultiple(pins ...*Pin) ([]bool, error) {
	if len(pins) == 0 {
		return nil, nil
	}
	mask, err := pinsMask(pins)
	if err != nil {
		return nil, err
	}
	for _, p := range pins {
		if !p.Mode().hasInput() {
			return nil, fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
		}
	}
	var v uint32
	err = pins[0].port.mu.Lock(func(drv PortDriver) error {
		var err error
		v, err = drv.Get(mask, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("expander: %w", err)
	}
	result := make([]bool, len(pins))
	for i, p := range pins {
		result[i] = v&p.mask != 0
	}
	return result, nil
}

// WriteMultiple drives several pins of the same port in a single bus
// transaction; pins[i] is set high when levels[i] is true.
func WriteMultiple(pins []*Pin, levels []bool) error {
	if len(pins) != len(levels) {
		return fmt.Errorf("expander: %d pins but %d levels", len(pins), len(levels))
	}
	if len(pins) == 0 {
		return nil
	}
	if _, err := pinsMask(pins); err != nil {
		return err
	}
	var high, low uint32
	for i, p := range pins {
		if !p.Mode().hasOutput() {
			return fmt.Errorf("%w %s: %s", ErrWrongMode, p.Mode(), p)
		}
		if levels[i] {
			high |= p.mask
		} else {
			low |= p.mask
		}
	}
	return pins[0].lock(func(drv PortDriver) error {
		return drv.Set(high, low)
	})
}

func pinsMask(pins []*Pin) (uint32, error) {
	var mask uint32
	for _, p := range pins {
		if p.port != pins[0].port {
			return 0, ErrMixedPorts
		}
		mask |= p.mask
	}
	return mask, nil
}
