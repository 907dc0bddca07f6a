// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package portexpander is a container for GPIO expander drivers.
//
// The expander package turns the pins of a chip into handles goroutines can
// wait on. pcf857x, tca95xx, mcp23xxx and nxp74hc595 implement
// expander.PortDriver for their chips.
// pinview draws the pins of a port on the terminal.
package portexpander
