// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package expander

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Opts holds the configuration of a Port.
type Opts struct {
	// Name of the port, used for pin names. Defaults to the driver's String()
	// when it implements fmt.Stringer.
	Name string
	// Width is the number of pins of the chip, at most 32.
	Width int
	// WaitersPerPin bounds the number of waits pending on one pin. Past it,
	// new waits fail with ErrTooManyWaiters.
	WaitersPerPin int
	// Logger receives diagnostics. Defaults to warnings on stderr.
	Logger *log.Logger
	// OnChange, if set, is called by the InterruptHandler after each sample
	// that differs from the previous one.
	OnChange func(old, new uint32)
}

// DefaultOpts is used when nil is passed to NewPort.
var DefaultOpts = Opts{
	Width:         32,
	WaitersPerPin: DefaultWaitersPerPin,
}

var defaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix: "expander",
	Level:  log.WarnLevel,
})

// Port wraps one expander chip. All the pin handles it hands out share its
// bus lock and its wait registry.
type Port struct {
	name     string
	width    int
	mu       PortMutex
	state    *portState
	handler  *InterruptHandler
	logger   *log.Logger
	onChange func(old, new uint32)
	caps     PortDriver

	modeMu sync.Mutex
	modes  [32]Mode

	regMu      sync.Mutex
	registered []string
}

// NewPort wraps drv in a Mutex and returns a Port for it.
//
// The chip is sampled once so that edge waits don't resolve spuriously on the
// first interrupt.
func NewPort(drv PortDriver, opts *Opts) (*Port, error) {
	return newPort(NewMutex(drv), drv, opts)
}

// NewPortMutex returns a Port for a driver already guarded by m. drv is only
// used to discover optional capabilities such as DirectionSetter, it is always
// accessed through m.
func NewPortMutex(m PortMutex, drv PortDriver, opts *Opts) (*Port, error) {
	return newPort(m, drv, opts)
}

func newPort(m PortMutex, drv PortDriver, opts *Opts) (*Port, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	p := &Port{
		name:     opts.Name,
		width:    opts.Width,
		mu:       m,
		logger:   opts.Logger,
		onChange: opts.OnChange,
		caps:     drv,
	}
	if p.width <= 0 || p.width > 32 {
		p.width = 32
	}
	if p.name == "" {
		if s, ok := drv.(fmt.Stringer); ok {
			p.name = s.String()
		} else {
			p.name = "expander"
		}
	}
	if p.logger == nil {
		p.logger = defaultLogger
	}
	// Chips with a configuration register come up as inputs, the others are
	// quasi-bidirectional.
	mode := QuasiBidirectional
	if _, ok := drv.(DirectionSetter); ok {
		mode = Input
	}
	for i := range p.modes {
		p.modes[i] = mode
	}

	var initial uint32
	err := m.Lock(func(drv PortDriver) error {
		v, err := drv.Get(AllPins, 0)
		initial = v
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("expander: initial sample: %w", err)
	}
	p.state = newPortState(initial, opts.WaitersPerPin)
	p.handler = &InterruptHandler{port: p}
	return p, nil
}

// InterruptHandler returns the handler resolving the waits of this port.
func (p *Port) InterruptHandler() *InterruptHandler {
	return p.handler
}

// State returns the pin levels as of the last sample.
func (p *Port) State() uint32 {
	return p.state.snapshot()
}

// Width returns the number of pins.
func (p *Port) Width() int {
	return p.width
}

// Pin returns the synchronous handle of pin n.
func (p *Port) Pin(n int) (*Pin, error) {
	if n < 0 || n >= p.width {
		return nil, fmt.Errorf("%w %d on %s", ErrInvalidPin, n, p.name)
	}
	return &Pin{port: p, number: n, mask: 1 << n}, nil
}

// AsyncPin returns a handle of pin n that can wait for conditions.
func (p *Port) AsyncPin(n int) (*AsyncPin, error) {
	pin, err := p.Pin(n)
	if err != nil {
		return nil, err
	}
	return &AsyncPin{Pin: pin}, nil
}

// Register registers every pin of the port in gpioreg, as a gpio.PinIO named
// <port>_GPIO<n>.
func (p *Port) Register() error {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	for n := range p.width {
		g := p.GPIO(n)
		if err := gpioreg.Register(g); err != nil {
			return fmt.Errorf("expander: %w", err)
		}
		p.registered = append(p.registered, g.Name())
	}
	return nil
}

// Close removes the registrations done by Register.
func (p *Port) Close() error {
	p.regMu.Lock()
	defer p.regMu.Unlock()
	var err error
	for _, name := range p.registered {
		if e := gpioreg.Unregister(name); e != nil && err == nil {
			err = fmt.Errorf("expander: %w", e)
		}
	}
	p.registered = nil
	return err
}

func (p *Port) String() string {
	return p.name
}

func (p *Port) mode(n int) Mode {
	p.modeMu.Lock()
	defer p.modeMu.Unlock()
	return p.modes[n]
}

func (p *Port) setMode(n int, m Mode) {
	p.modeMu.Lock()
	defer p.modeMu.Unlock()
	p.modes[n] = m
}
