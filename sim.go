// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import (
	"github.com/pkg/errors"
)

// ErrUnsteppable is returned by New for a network that still carries
// diagnostics.
var ErrUnsteppable = errors.New("network carries unresolved diagnostics and cannot be stepped")

// Simulator advances a network tick by tick. Each step runs in two phases:
// every device's outputs are computed from the previous tick's committed
// signal frame, then the newly computed frame replaces it atomically. The
// read-old/write-new discipline keeps feedback loops well defined without
// requiring a topological evaluation order.
//
// A Simulator owns the network it was created for. Distinct networks
// simulate independently; nothing is shared between simulators.
type Simulator struct {
	net    *Network
	s0, s1 []bool // signal frames: s0 committed, s1 under construction
	tick   int
	trace  *Trace
}

// New creates a simulator for n with every device in its power-on state.
// It fails with ErrUnsteppable when n parsed with diagnostics.
func New(n *Network) (*Simulator, error) {
	if !n.Steppable() {
		return nil, ErrUnsteppable
	}
	s := &Simulator{
		net:   n,
		s0:    make([]bool, n.slots),
		s1:    make([]bool, n.slots),
		trace: newTrace(n.monitors, n.monSlots),
	}
	for _, d := range n.devices {
		d.reset()
		if d.Type == Switch {
			s.s0[d.outs[0].slot] = d.level
		}
	}
	return s, nil
}

// Step runs count simulation cycles, appending one snapshot per cycle to the
// trace. Stepping zero times leaves every output at its reset state.
func (s *Simulator) Step(count int) {
	for i := 0; i < count; i++ {
		for _, d := range s.net.devices {
			d.eval(s.s0, s.s1)
		}
		s.s0, s.s1 = s.s1, s.s0
		s.tick++
		s.trace.append(s.s0)
	}
}

// Tick returns the number of cycles simulated so far.
func (s *Simulator) Tick() int {
	return s.tick
}

// Trace returns the recorded values of the monitored pins.
func (s *Simulator) Trace() *Trace {
	return s.trace
}

// SetSwitch sets the output level of a SWITCH device. The new level becomes
// visible on the next step.
func (s *Simulator) SetSwitch(name string, level bool) error {
	d := s.net.Device(name)
	if d == nil {
		return errors.Errorf("no device named %q", name)
	}
	if d.Type != Switch {
		return errors.Errorf("device %q is a %s, not a SWITCH", name, d.Type)
	}
	d.level = level
	return nil
}

// DeviceInfo is a read-only snapshot of one device, for display purposes.
type DeviceInfo struct {
	Name    string
	Type    DeviceType
	Param   int
	Pattern string
	Outputs map[string]bool // current output level per port name
	State   map[string]int  // internal state of stateful device types
}

// DeviceInfo reports the named device's type, parameter, current outputs and
// internal state.
func (s *Simulator) DeviceInfo(name string) (DeviceInfo, error) {
	d := s.net.Device(name)
	if d == nil {
		return DeviceInfo{}, errors.Errorf("no device named %q", name)
	}
	info := DeviceInfo{
		Name:    d.Name,
		Type:    d.Type,
		Param:   d.Param,
		Pattern: d.Pattern,
		Outputs: make(map[string]bool, len(d.outs)),
	}
	for _, o := range d.outs {
		info.Outputs[o.name] = s.s0[o.slot]
	}
	switch d.Type {
	case DType:
		info.State = map[string]int{"Q": btoi(d.q), "CLK": btoi(d.prevClk)}
	case Clock:
		info.State = map[string]int{"count": d.count}
	case SigGen:
		info.State = map[string]int{"cursor": d.cursor}
	case Switch:
		info.State = map[string]int{"level": btoi(d.level)}
	}
	return info, nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
