// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package expander turns the pins of an I²C or SPI GPIO expander into digital
// I/O pins that goroutines can wait on.
//
// A chip is wrapped in a Port. Every pin handle derived from the Port shares
// one snapshot of the pin levels and one registry of pending waits. A wait is
// a Future: it registers itself on first poll, unless the pin is already at
// the requested level, and is resolved by the InterruptHandler once a sample
// of the chip shows the matching transition.
//
// The InterruptHandler has to be called whenever the chip raises its
// interrupt line, or periodically when the line isn't wired. A Watcher does
// either for you.
//
// # Example
//
//	port, err := expander.NewPort(drv, nil)
//	...
//	w := expander.NewWatcher(port.InterruptHandler(), &expander.WatchOpts{Freq: 50 * physic.Hertz})
//	go w.Run(ctx)
//	button, _ := port.AsyncPin(3)
//	err = button.WaitForFallingEdge(ctx)
//
// Chip specific drivers implementing PortDriver live in sibling packages, see
// pcf857x and tca95xx.
package expander
