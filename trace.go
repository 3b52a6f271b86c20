// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Trace records the value of every monitored pin at each simulation tick.
// It grows by one snapshot per step and is never mutated retroactively.
type Trace struct {
	pins  []Pin
	slots []int
	rows  [][]bool // rows[tick][monitor]
}

func newTrace(pins []Pin, slots []int) *Trace {
	return &Trace{pins: pins, slots: slots}
}

// append samples the monitored slots of the committed frame.
func (t *Trace) append(frame []bool) {
	row := make([]bool, len(t.slots))
	for i, s := range t.slots {
		row[i] = frame[s]
	}
	t.rows = append(t.rows, row)
}

// Pins returns the monitored pins in monitor-list order.
func (t *Trace) Pins() []Pin {
	return t.pins
}

// Len returns the number of recorded ticks.
func (t *Trace) Len() int {
	return len(t.rows)
}

// Snapshot returns a copy of the monitored values at the given tick, ordered
// as Pins.
func (t *Trace) Snapshot(tick int) []bool {
	return append([]bool(nil), t.rows[tick]...)
}

// Series returns the full recorded history of one monitored pin, or nil if
// the pin is not monitored.
func (t *Trace) Series(pin Pin) []bool {
	for i, p := range t.pins {
		if p == pin {
			s := make([]bool, len(t.rows))
			for tick, row := range t.rows {
				s[tick] = row[i]
			}
			return s
		}
	}
	return nil
}

// Render writes the trace as one waveform row per monitored pin, high ticks
// drawn as '-' and low ticks as '_':
//
//	SW1  : __---
//	D1.Q : ____-
func (t *Trace) Render(w io.Writer) error {
	width := 0
	for _, p := range t.pins {
		if n := len(p.String()); n > width {
			width = n
		}
	}
	var b strings.Builder
	for i, p := range t.pins {
		name := p.String()
		b.Reset()
		b.WriteString(name)
		b.WriteString(strings.Repeat(" ", width-len(name)))
		b.WriteString(" : ")
		for _, row := range t.rows {
			if row[i] {
				b.WriteByte('-')
			} else {
				b.WriteByte('_')
			}
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(w, b.String()); err != nil {
			return errors.Wrap(err, "render trace")
		}
	}
	return nil
}
