// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing simulated logic
// networks.
package simtest

import (
	"testing"

	"github.com/db47h/logsim"
)

// CompareGate checks the named output device of a circuit against a
// reference boolean function over every combination of switch values. The
// source must declare the listed SWITCH devices. settle is the number of
// ticks to run after each switch change before sampling the output; it must
// cover the longest switch-to-output path in the circuit.
func CompareGate(t *testing.T, src string, switches []string, out string, settle int, ref func(in []bool) bool) {
	t.Helper()
	net, diags := logsim.Parse(src)
	if len(diags) > 0 {
		t.Fatalf("parse: %v", diags[0])
	}
	sim, err := logsim.New(net)
	if err != nil {
		t.Fatal(err)
	}
	in := make([]bool, len(switches))
	for i := 0; i < 1<<uint(len(switches)); i++ {
		for bit := range in {
			in[bit] = i&(1<<uint(bit)) != 0
			if err := sim.SetSwitch(switches[bit], in[bit]); err != nil {
				t.Fatal(err)
			}
		}
		sim.Step(settle)
		info, err := sim.DeviceInfo(out)
		if err != nil {
			t.Fatal(err)
		}
		got := info.Outputs[""]
		if want := ref(in); got != want {
			t.Errorf("%s%v = %v, want %v", out, in, got, want)
		}
	}
}
