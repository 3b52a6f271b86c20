// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import "strconv"

// DeviceType identifies one of the built-in device models.
type DeviceType int

const (
	Nand DeviceType = iota
	And
	Nor
	Or
	Xor
	DType
	Clock
	Switch
	SigGen
)

var typeNames = [...]string{"NAND", "AND", "NOR", "OR", "XOR", "DTYPE", "CLOCK", "SWITCH", "SIGGEN"}

func (t DeviceType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "DeviceType(" + strconv.Itoa(int(t)) + ")"
}

// IsGate reports whether t is a logic gate with numbered inputs I1..In.
func (t DeviceType) IsGate() bool {
	return t <= Xor
}

// DTYPE port names.
const (
	PortQ     = "Q"
	PortQBar  = "QBAR"
	PortData  = "DATA"
	PortClk   = "CLK"
	PortSet   = "SET"
	PortClear = "CLEAR"
)

// model describes the parameterization rule of a device type. Gate fan-in
// runs 1..16 and defaults to 2, SWITCH takes an initial level of 0 or 1,
// CLOCK a half-period of at least one tick. XOR, DTYPE and SIGGEN are
// special-cased by the parser.
type model struct {
	def, min, max int
}

var models = [...]model{
	Nand:   {def: 2, min: 1, max: 16},
	And:    {def: 2, min: 1, max: 16},
	Nor:    {def: 2, min: 1, max: 16},
	Or:     {def: 2, min: 1, max: 16},
	Xor:    {def: 2, min: 2, max: 2},
	DType:  {},
	Clock:  {def: 1, min: 1, max: 1 << 29},
	Switch: {def: 0, min: 0, max: 1},
	SigGen: {},
}

func portI(i int) string {
	return "I" + strconv.Itoa(i)
}

// pinIn is an input terminal. src is the state-frame slot of its single
// driving output; undriven inputs stay wired to the constant low rail.
type pinIn struct {
	name   string
	src    int
	driven bool
}

// pinOut is an output terminal with its allocated state-frame slot.
type pinOut struct {
	name string
	slot int
}

// Device is a named instance of a device model within a network. Its wiring
// is fixed at parse time; only the simulation state fields mutate while
// stepping.
type Device struct {
	Name    string
	Type    DeviceType
	Param   int    // fan-in, half-period or initial switch level
	Pattern string // SIGGEN bit pattern

	ins  []pinIn
	outs []pinOut

	// simulation state
	level   bool // Switch output
	count   int  // Clock tick counter, modulo twice the half-period
	cursor  int  // SigGen pattern position
	prevClk bool // DType previous CLK, for edge detection
	q       bool // DType latched value
}

func newDevice(name string, typ DeviceType, param int, pattern string, alloc func() int) *Device {
	d := &Device{Name: name, Type: typ, Param: param, Pattern: pattern}
	switch {
	case typ.IsGate():
		d.ins = make([]pinIn, param)
		for i := range d.ins {
			d.ins[i].name = portI(i + 1)
		}
		d.outs = []pinOut{{name: "", slot: alloc()}}
	case typ == DType:
		d.ins = []pinIn{{name: PortData}, {name: PortClk}, {name: PortSet}, {name: PortClear}}
		d.outs = []pinOut{{name: PortQ, slot: alloc()}, {name: PortQBar, slot: alloc()}}
	default: // Clock, Switch, SigGen
		d.outs = []pinOut{{name: "", slot: alloc()}}
	}
	d.reset()
	return d
}

func (d *Device) input(name string) *pinIn {
	for i := range d.ins {
		if d.ins[i].name == name {
			return &d.ins[i]
		}
	}
	return nil
}

func (d *Device) output(name string) *pinOut {
	for i := range d.outs {
		if d.outs[i].name == name {
			return &d.outs[i]
		}
	}
	return nil
}

// freeInput returns the first undriven numbered input, or nil when all
// inputs are already driven.
func (d *Device) freeInput() *pinIn {
	for i := range d.ins {
		if !d.ins[i].driven {
			return &d.ins[i]
		}
	}
	return nil
}

// reset restores the device's declared power-on state.
func (d *Device) reset() {
	d.level = d.Type == Switch && d.Param == 1
	d.count = 0
	d.cursor = 0
	d.prevClk = false
	d.q = false
}

// eval computes the device's outputs for the next tick. Signal reads go
// through prev, the committed frame of the previous tick, and writes through
// next, so evaluation order does not matter even in cyclic networks.
func (d *Device) eval(prev, next []bool) {
	switch d.Type {
	case And, Nand:
		v := true
		for i := range d.ins {
			v = v && prev[d.ins[i].src]
		}
		if d.Type == Nand {
			v = !v
		}
		next[d.outs[0].slot] = v
	case Or, Nor:
		v := false
		for i := range d.ins {
			v = v || prev[d.ins[i].src]
		}
		if d.Type == Nor {
			v = !v
		}
		next[d.outs[0].slot] = v
	case Xor:
		next[d.outs[0].slot] = prev[d.ins[0].src] != prev[d.ins[1].src]
	case DType:
		data := prev[d.ins[0].src]
		clk := prev[d.ins[1].src]
		set := prev[d.ins[2].src]
		clear := prev[d.ins[3].src]
		if clk && !d.prevClk {
			d.q = data
		}
		if set {
			d.q = true
		}
		if clear {
			d.q = false
		}
		d.prevClk = clk
		next[d.outs[0].slot] = d.q
		next[d.outs[1].slot] = !d.q
	case Clock:
		next[d.outs[0].slot] = d.count >= d.Param
		d.count = (d.count + 1) % (2 * d.Param)
	case Switch:
		next[d.outs[0].slot] = d.level
	case SigGen:
		next[d.outs[0].slot] = d.Pattern[d.cursor] == '1'
		d.cursor = (d.cursor + 1) % len(d.Pattern)
	}
}
