/*
Package logsim parses circuit definition files written in a small hardware
description language and runs them as discrete-event logic simulations.

A definition file declares devices (gates, flip-flops, switches, clocks and
signal generators), wires their pins together and names the signals to
monitor:

	DEVICES:
		SW1, SW2 := SWITCH;
		G := NAND(2);
	END;
	CONNECTIONS:
		SW1, SW2 => G;
	END;
	MONITORS:
		G;
	END;

Parse builds a validated device network from such a file, collecting every
diagnostic it can recover from instead of stopping at the first. A Simulator
then steps the network cycle by cycle: each step recomputes all outputs from
the previous cycle's values and commits them atomically, so feedback loops
simulate deterministically without a topological ordering.
*/
package logsim
