// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package logsim_test

import (
	"testing"

	"github.com/db47h/logsim"
)

func mustSim(t *testing.T, src string) *logsim.Simulator {
	t.Helper()
	net, diags := logsim.Parse(src)
	if len(diags) > 0 {
		t.Fatalf("parse: %v", diags[0])
	}
	sim, err := logsim.New(net)
	if err != nil {
		t.Fatal(err)
	}
	return sim
}

func setSwitch(t *testing.T, sim *logsim.Simulator, name string, level bool) {
	t.Helper()
	if err := sim.SetSwitch(name, level); err != nil {
		t.Fatal(err)
	}
}

func output(t *testing.T, sim *logsim.Simulator, name, port string) bool {
	t.Helper()
	info, err := sim.DeviceInfo(name)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := info.Outputs[port]
	if !ok {
		t.Fatalf("device %s has no output %q", name, port)
	}
	return v
}

func TestSimulator_resetState(t *testing.T) {
	sim := mustSim(t, `
DEVICES:
	on := SWITCH(1);
	off := SWITCH;
	g := AND(2);
END;
CONNECTIONS:
	on => g.I1;
	off => g.I2;
END;
`)
	// before the first step, switches show their declared level and gates
	// their reset output
	if sim.Tick() != 0 {
		t.Errorf("Tick() = %d, want 0", sim.Tick())
	}
	if !output(t, sim, "on", "") {
		t.Error("SWITCH(1) not high at reset")
	}
	if output(t, sim, "off", "") {
		t.Error("SWITCH(0) not low at reset")
	}
	if output(t, sim, "g", "") {
		t.Error("gate output not low at reset")
	}
}

func TestSimulator_deterministic(t *testing.T) {
	const src = `
DEVICES:
	ck := CLOCK(2);
	sg := SIGGEN(0110);
	g := XOR;
END;
CONNECTIONS:
	ck => g.I1;
	sg => g.I2;
END;
MONITORS:
	ck, sg, g;
END;
`
	a := mustSim(t, src)
	a.Step(9)

	b := mustSim(t, src)
	b.Step(4)
	b.Step(0)
	b.Step(5)

	if a.Tick() != b.Tick() {
		t.Fatalf("tick counts differ: %d vs %d", a.Tick(), b.Tick())
	}
	for _, pin := range a.Trace().Pins() {
		sa, sb := a.Trace().Series(pin), b.Trace().Series(pin)
		for i := range sa {
			if sa[i] != sb[i] {
				t.Errorf("%s diverges at tick %d: %v vs %v", pin, i+1, sa, sb)
				break
			}
		}
	}
}

func TestSimulator_switchPropagation(t *testing.T) {
	sim := mustSim(t, `
DEVICES:
	a, b := SWITCH;
	g := AND(2);
END;
CONNECTIONS:
	a => g.I1;
	b => g.I2;
END;
`)
	setSwitch(t, sim, "a", true)
	setSwitch(t, sim, "b", true)
	// the new switch level is committed on the first step and reaches the
	// gate output on the second
	sim.Step(1)
	if output(t, sim, "g", "") {
		t.Error("gate output high before the switch level could propagate")
	}
	sim.Step(1)
	if !output(t, sim, "g", "") {
		t.Error("gate output low after both inputs went high")
	}
	setSwitch(t, sim, "b", false)
	sim.Step(2)
	if output(t, sim, "g", "") {
		t.Error("gate output high after one input went low")
	}
}

func TestSimulator_clock(t *testing.T) {
	td := []struct {
		name  string
		src   string
		steps int
		want  []bool
	}{
		{
			"half-period 1", "DEVICES:\nck := CLOCK(1);\nEND;\nCONNECTIONS:\nEND;\nMONITORS:\nck;\nEND;\n",
			4, []bool{false, true, false, true},
		},
		{
			"half-period 2", "DEVICES:\nck := CLOCK(2);\nEND;\nCONNECTIONS:\nEND;\nMONITORS:\nck;\nEND;\n",
			8, []bool{false, false, true, true, false, false, true, true},
		},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			sim := mustSim(t, d.src)
			sim.Step(d.steps)
			got := sim.Trace().Series(logsim.Pin{Device: "ck"})
			if len(got) != len(d.want) {
				t.Fatalf("trace length %d, want %d", len(got), len(d.want))
			}
			for i := range got {
				if got[i] != d.want[i] {
					t.Fatalf("series = %v, want %v", got, d.want)
				}
			}
		})
	}
}

func TestSimulator_siggen(t *testing.T) {
	sim := mustSim(t, "DEVICES:\nsg := SIGGEN(0110);\nEND;\nCONNECTIONS:\nEND;\nMONITORS:\nsg;\nEND;\n")
	sim.Step(8)
	want := []bool{false, true, true, false, false, true, true, false}
	got := sim.Trace().Series(logsim.Pin{Device: "sg"})
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("series = %v, want %v (pattern repeats cyclically)", got, want)
		}
	}
}

const dtypeSrc = `
DEVICES:
	data, clk, set, clr := SWITCH;
	d := DTYPE;
END;
CONNECTIONS:
	data => d.DATA;
	clk => d.CLK;
	set => d.SET;
	clr => d.CLEAR;
END;
`

func TestSimulator_dtype(t *testing.T) {
	sim := mustSim(t, dtypeSrc)

	// no clock edge: Q holds its reset value regardless of DATA
	setSwitch(t, sim, "data", true)
	sim.Step(2)
	if output(t, sim, "d", "Q") {
		t.Fatal("Q went high without a clock edge")
	}

	// rising edge latches DATA
	setSwitch(t, sim, "clk", true)
	sim.Step(2)
	if !output(t, sim, "d", "Q") || output(t, sim, "d", "QBAR") {
		t.Fatal("rising edge did not latch DATA")
	}

	// DATA changes while CLK is held high are ignored
	setSwitch(t, sim, "data", false)
	sim.Step(2)
	if !output(t, sim, "d", "Q") {
		t.Fatal("Q changed without a rising edge")
	}

	// the next rising edge latches the new DATA
	setSwitch(t, sim, "clk", false)
	sim.Step(2)
	setSwitch(t, sim, "clk", true)
	sim.Step(2)
	if output(t, sim, "d", "Q") {
		t.Fatal("second rising edge did not latch the low DATA")
	}

	// SET forces Q high asynchronously
	setSwitch(t, sim, "set", true)
	sim.Step(2)
	if !output(t, sim, "d", "Q") {
		t.Fatal("SET did not force Q high")
	}
	setSwitch(t, sim, "set", false)
	sim.Step(2)
	if !output(t, sim, "d", "Q") {
		t.Fatal("Q dropped after SET was released")
	}

	// CLEAR forces Q low and wins over a simultaneous SET
	setSwitch(t, sim, "set", true)
	setSwitch(t, sim, "clr", true)
	sim.Step(2)
	if output(t, sim, "d", "Q") || !output(t, sim, "d", "QBAR") {
		t.Fatal("CLEAR did not win over SET")
	}
}

// A DTYPE with QBAR fed back into DATA divides its clock by two.
func TestSimulator_toggleFlipFlop(t *testing.T) {
	sim := mustSim(t, `
DEVICES:
	ck := CLOCK(2);
	d := DTYPE;
END;
CONNECTIONS:
	ck => d.CLK;
	d.QBAR => d.DATA;
END;
MONITORS:
	d.Q;
END;
`)
	sim.Step(18)
	got := sim.Trace().Series(logsim.Pin{Device: "d", Port: "Q"})
	// the flip-flop sees the clock one tick late, so Q first rises at tick 4
	// and then toggles every four ticks
	want := make([]bool, 18)
	for i := 3; i < len(want); i++ {
		want[i] = (i-3)/4%2 == 0
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Q series = %v, want %v", got, want)
		}
	}
}

func TestSimulator_setSwitchErrors(t *testing.T) {
	sim := mustSim(t, "DEVICES:\nck := CLOCK(1);\nEND;\nCONNECTIONS:\nEND;\n")
	if err := sim.SetSwitch("nosuch", true); err == nil {
		t.Error("SetSwitch accepted an unknown device")
	}
	if err := sim.SetSwitch("ck", true); err == nil {
		t.Error("SetSwitch accepted a CLOCK device")
	}
}

func TestSimulator_deviceInfo(t *testing.T) {
	sim := mustSim(t, dtypeSrc)
	setSwitch(t, sim, "set", true)
	sim.Step(2)

	info, err := sim.DeviceInfo("d")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != logsim.DType || info.State["Q"] != 1 {
		t.Errorf("DTYPE info = %+v, want latched Q=1", info)
	}

	info, err = sim.DeviceInfo("set")
	if err != nil {
		t.Fatal(err)
	}
	if info.Type != logsim.Switch || info.State["level"] != 1 {
		t.Errorf("SWITCH info = %+v, want level=1", info)
	}

	if _, err := sim.DeviceInfo("nosuch"); err == nil {
		t.Error("DeviceInfo accepted an unknown device")
	}
}

func TestTrace_seriesMatchesSnapshots(t *testing.T) {
	sim := mustSim(t, `
DEVICES:
	ck := CLOCK(1);
	sg := SIGGEN(0011);
END;
CONNECTIONS:
END;
MONITORS:
	ck, sg;
END;
`)
	sim.Step(6)
	tr := sim.Trace()
	if tr.Len() != 6 {
		t.Fatalf("Len() = %d, want 6", tr.Len())
	}
	for i, pin := range tr.Pins() {
		s := tr.Series(pin)
		for tick := 0; tick < tr.Len(); tick++ {
			if s[tick] != tr.Snapshot(tick)[i] {
				t.Fatalf("%s: Series and Snapshot disagree at tick %d", pin, tick)
			}
		}
	}
	if tr.Series(logsim.Pin{Device: "nosuch"}) != nil {
		t.Error("Series returned data for an unmonitored pin")
	}
}
