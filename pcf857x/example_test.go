// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pcf857x_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/portexpander/expander"
	"github.com/GermanBionicSystems/portexpander/pcf857x"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	// Create a new I2C IO extender
	extender, err := pcf857x.New(bus, pcf857x.DefaultAddress, pcf857x.PCF8574)
	if err != nil {
		log.Fatalln(err)
	}
	port, err := extender.NewPort(nil)
	if err != nil {
		log.Fatalln(err)
	}

	// The INT line of the chip is open drain, active low.
	intPin := gpioreg.ByName("GPIO17")
	if intPin == nil {
		log.Fatal("failed to find GPIO17")
	}
	if err := intPin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		log.Fatalln(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	w := expander.NewWatcher(port.InterruptHandler(), &expander.WatchOpts{IntPin: intPin})
	go func() {
		_ = w.Run(ctx)
	}()

	button, err := port.AsyncPin(0)
	if err != nil {
		log.Fatalln(err)
	}
	// Quasi-bidirectional pins must be high to be read.
	if err := button.SetHigh(); err != nil {
		log.Fatalln(err)
	}
	if err := button.WaitForFallingEdge(ctx); err != nil {
		log.Fatalln(err)
	}
	fmt.Printf("%s pressed\n", button)
}
