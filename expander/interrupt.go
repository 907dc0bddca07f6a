// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

// InterruptHandler resolves the waits of a Port. Call HandleInterrupts when
// the interrupt line of the chip fires, or periodically if it isn't wired.
type InterruptHandler struct {
	// Serializes samples so they are applied in the order they were read.
	mu   sync.Mutex
	port *Port
}

// HandleInterrupts samples all pins of the chip in one bus transaction, and
// wakes the waits matching the pins that changed since the previous sample.
//
// A bus error is returned as is, wrapped; in this case nothing is updated and
// nobody is woken. Retrying is up to the caller.
func (h *InterruptHandler) HandleInterrupts() error {
	_, err := h.HandleInterruptsCount()
	return err
}

// HandleInterruptsCount is HandleInterrupts, also returning the number of
// waits resolved by this call.
func (h *InterruptHandler) HandleInterruptsCount() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var sample uint32
	// The bus lock is only held for the read itself.
	err := h.port.mu.Lock(func(drv PortDriver) error {
		v, err := drv.Get(AllPins, 0)
		sample = v
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("expander: %w", err)
	}

	old, woken := h.port.state.apply(sample)
	if old == sample {
		return 0, nil
	}
	for _, w := range woken {
		w.Wake()
	}
	if h.port.logger.GetLevel() <= log.DebugLevel {
		h.port.logger.Debug("pins changed", "port", h.port.name, "old", fmt.Sprintf("%#08x", old), "new", fmt.Sprintf("%#08x", sample), "woken", len(woken))
	}
	if h.port.onChange != nil {
		h.port.onChange(old, sample)
	}
	return len(woken), nil
}

func (h *InterruptHandler) String() string {
	return h.port.name + "_INT"
}
