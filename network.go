package logsim

// Pin names an input or output terminal of a device. An empty Port refers to
// the single output of a gate, switch, clock or signal generator.
type Pin struct {
	Device string
	Port   string
}

func (p Pin) String() string {
	if p.Port == "" {
		return p.Device
	}
	return p.Device + "." + p.Port
}

// Connection is a directed wire from a driving output pin to a driven input
// pin. An input pin is driven by at most one connection; an output pin may
// drive any number of inputs.
type Connection struct {
	From Pin
	To   Pin
}

// Network is the device graph built by Parse: the device table, the set of
// connections and the ordered monitor list. Its structure is immutable after
// parsing; only device simulation state mutates while stepping. The graph
// may contain cycles.
type Network struct {
	devices   []*Device
	byName    map[string]*Device
	conns     []Connection
	monitors  []Pin
	monSlots  []int
	slots     int // allocated state-frame slots; slot 0 is the constant low rail
	steppable bool
}

func newNetwork() *Network {
	return &Network{byName: make(map[string]*Device), slots: 1}
}

// allocSlot allocates a state-frame slot for an output pin.
func (n *Network) allocSlot() int {
	s := n.slots
	n.slots++
	return s
}

func (n *Network) addDevice(name string, typ DeviceType, param int, pattern string) *Device {
	d := newDevice(name, typ, param, pattern, n.allocSlot)
	n.devices = append(n.devices, d)
	n.byName[name] = d
	return d
}

// Device returns the named device, or nil.
func (n *Network) Device(name string) *Device {
	return n.byName[name]
}

// Devices returns the device table in declaration order.
func (n *Network) Devices() []*Device {
	return n.devices
}

// Connections returns every connection in declaration order.
func (n *Network) Connections() []Connection {
	return n.conns
}

// Monitors returns the ordered list of monitored pins.
func (n *Network) Monitors() []Pin {
	return n.monitors
}

// Steppable reports whether the network parsed without diagnostics and may
// be simulated.
func (n *Network) Steppable() bool {
	return n.steppable
}

func (n *Network) addMonitor(pin Pin, slot int) {
	n.monitors = append(n.monitors, pin)
	n.monSlots = append(n.monSlots, slot)
}
