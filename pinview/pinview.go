// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pinview shows the levels of an expander port on the terminal
// using ANSI color codes, one block per pin.
//
// Pass Dev.OnChange as expander.Opts.OnChange to get a live view of every
// sample that changed something.
package pinview

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Opts represents the options available for this display.
type Opts struct {
	// Pins is the number of pins shown, from pin 0. Defaults to 8.
	Pins int
	// High and Low are the colors of the pins. Default to green and dark
	// red.
	High    color.NRGBA
	Low     color.NRGBA
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// Dev is a row of pins drawn on the console.
type Dev struct {
	w       io.Writer
	pins    int
	palette ansi256.Palette
	high    string
	low     string

	mu  sync.Mutex
	buf bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	d := &Dev{
		w:       opts.W,
		pins:    opts.Pins,
		palette: *p,
	}
	if d.w == nil {
		d.w = colorable.NewColorableStdout()
	}
	if d.pins <= 0 || d.pins > 32 {
		d.pins = 8
	}
	high, low := opts.High, opts.Low
	if high == (color.NRGBA{}) {
		high = color.NRGBA{G: 255, A: 255}
	}
	if low == (color.NRGBA{}) {
		low = color.NRGBA{R: 96, A: 255}
	}
	d.high = d.palette.Block(high)
	d.low = d.palette.Block(low)
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("PinView{%d}", d.pins)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Show draws levels, bit n being pin n. Pin 0 is the leftmost block.
func (d *Dev) Show(levels uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < d.pins; i++ {
		if levels&(1<<i) != 0 {
			_, _ = d.buf.WriteString(d.high)
		} else {
			_, _ = d.buf.WriteString(d.low)
		}
	}
	_, _ = d.buf.WriteString("\033[0m ")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// OnChange redraws the pins with the new levels. Its signature matches
// expander.Opts.OnChange; errors are dropped.
func (d *Dev) OnChange(old, new uint32) {
	_ = d.Show(new)
}

var _ fmt.Stringer = &Dev{}
