// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp23xxx_test

import (
	"context"
	"fmt"
	"log"

	"github.com/GermanBionicSystems/portexpander/expander"
	"github.com/GermanBionicSystems/portexpander/mcp23xxx"
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

	dev, err := mcp23xxx.NewI2C(bus, mcp23xxx.MCP23017, 0x20)
	if err != nil {
		log.Fatalln(err)
	}
	// Buttons to ground on GPB0-GPB3.
	const buttons = 0x0F00
	if err := dev.SetPullUp(buttons, true); err != nil {
		log.Fatalln(err)
	}
	if err := dev.EnableInterrupts(buttons, true); err != nil {
		log.Fatalln(err)
	}
	port, err := dev.NewPort(nil)
	if err != nil {
		log.Fatalln(err)
	}

	intPin := gpioreg.ByName("GPIO4")
	if intPin == nil {
		log.Fatal("failed to find GPIO4")
	}
	if err := intPin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		log.Fatalln(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = expander.NewWatcher(port.InterruptHandler(), &expander.WatchOpts{IntPin: intPin}).Run(ctx)
	}()

	gr, err := port.Group(8, 9, 10, 11)
	if err != nil {
		log.Fatalln(err)
	}
	for {
		n, edge, err := gr.WaitForEdge(-1)
		if err != nil {
			log.Fatalln(err)
		}
		fmt.Printf("button %d: %s\n", n-8, edge)
	}
}
