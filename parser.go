package logsim

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse analyses a circuit definition and builds the device network. It does
// not stop at the first problem: after an error the parser resynchronizes on
// the next statement terminator or section keyword and keeps going, so one
// pass reports every independent diagnostic. The returned network is
// steppable only when the diagnostics list is empty.
func Parse(src string) (*Network, Diagnostics) {
	p := &parser{sc: newScanner(src), net: newNetwork(), recovered: true}
	p.advance()
	p.deviceSection()
	p.connectionSection()
	p.monitorSection()
	if p.tok.kind != tkEOF {
		p.syntaxError("end of file", stopEOF)
	}
	p.net.steppable = len(p.diags) == 0
	return p.net, p.diags
}

type parser struct {
	sc    *scanner
	tok   token
	net   *Network
	diags Diagnostics

	// recovered is cleared when a definition is abandoned after an error and
	// set again at the start of the next definition. While cleared, further
	// errors are suppressed to avoid cascades.
	recovered bool
}

// advance moves to the next token, reporting and skipping unrecognized
// characters.
func (p *parser) advance() {
	for {
		p.tok = p.sc.next()
		if p.tok.kind != tkError {
			return
		}
		p.diags = append(p.diags, Diag{
			Kind: LexicalError,
			Pos:  p.tok.pos,
			Msg:  "unrecognized character " + strconv.Quote(p.tok.text),
		})
	}
}

// Resynchronization targets after an error, mirroring the grammar's
// statement and section structure.
type stopSet int

const (
	stopNone          stopSet = iota
	stopSemiOrKeyword         // skip to ';' (consumed) or a section keyword
	stopSemi                  // skip to ';' (consumed)
	stopKeyword               // skip to a section keyword
	stopEnd                   // skip past "END" ";"
	stopEOF
)

func (p *parser) syntaxError(expected string, stop stopSet) {
	if !p.recovered {
		return
	}
	p.diags = append(p.diags, Diag{
		Kind: SyntaxError,
		Pos:  p.tok.pos,
		Msg:  "expected " + expected + ", found " + p.tok.String(),
	})
	p.resync(stop)
}

func (p *parser) semanticError(pos Pos, format string, args ...interface{}) {
	p.diags = append(p.diags, Diag{Kind: SemanticError, Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (p *parser) resync(stop stopSet) {
	switch stop {
	case stopSemiOrKeyword:
		p.recovered = false
		for p.tok.kind != tkSemicolon && p.tok.kind != tkKeyword && p.tok.kind != tkEOF {
			p.advance()
		}
		if p.tok.kind == tkSemicolon {
			p.advance()
		}
	case stopSemi:
		p.recovered = false
		for p.tok.kind != tkSemicolon && p.tok.kind != tkEOF {
			p.advance()
		}
		if p.tok.kind == tkSemicolon {
			p.advance()
		}
	case stopKeyword:
		for p.tok.kind != tkKeyword && p.tok.kind != tkEOF {
			p.advance()
		}
	case stopEnd:
		for !p.at("END") && p.tok.kind != tkEOF {
			p.advance()
		}
		if p.tok.kind == tkEOF {
			return
		}
		p.advance()
		if p.tok.kind == tkSemicolon {
			p.advance()
		}
	case stopEOF:
		for p.tok.kind != tkEOF {
			p.advance()
		}
	}
}

// at reports whether the current token is the given section keyword.
func (p *parser) at(kw string) bool {
	return p.tok.kind == tkKeyword && p.tok.text == kw
}

// sectionEnd consumes the "END" ";" closing a section.
func (p *parser) sectionEnd() {
	if !p.at("END") {
		p.syntaxError(`"END"`, stopKeyword)
		return
	}
	p.advance()
	if p.tok.kind != tkSemicolon {
		p.syntaxError(`";"`, stopKeyword)
		return
	}
	p.advance()
}

// device_section = "DEVICES" ":" device_def {device_def} "END" ";"
func (p *parser) deviceSection() {
	if !p.at("DEVICES") {
		p.syntaxError(`"DEVICES"`, stopEnd)
		return
	}
	p.advance()
	if p.tok.kind != tkColon {
		p.syntaxError(`":"`, stopEnd)
		return
	}
	p.advance()
	if p.tok.kind == tkKeyword || p.tok.kind == tkEOF {
		// the grammar requires at least one definition
		p.syntaxError("device definition", stopNone)
	}
	for p.tok.kind != tkKeyword && p.tok.kind != tkEOF {
		p.recovered = true
		p.deviceDef()
	}
	p.recovered = true
	p.sectionEnd()
}

// device_def = id {"," id} ":=" device_type [ "(" number ")" ] ";"
func (p *parser) deviceDef() {
	var ids []token
	p.identifier(&ids)
	for p.tok.kind == tkComma && p.recovered {
		p.advance()
		p.identifier(&ids)
	}
	if p.tok.kind != tkDefine {
		if p.tok.kind == tkIdent {
			// two names in a row: a missing comma
			p.syntaxError(`","`, stopSemiOrKeyword)
		} else {
			p.syntaxError(`":="`, stopSemiOrKeyword)
		}
		return
	}
	p.advance()
	if p.tok.kind != tkDevice {
		p.syntaxError("device type", stopSemiOrKeyword)
		return
	}
	dev := p.tok
	p.advance()
	var num *token
	switch {
	case p.tok.kind == tkLParen:
		p.advance()
		if p.tok.kind != tkNumber {
			p.syntaxError("number", stopSemiOrKeyword)
			return
		}
		nt := p.tok
		num = &nt
		p.advance()
		if p.tok.kind != tkRParen {
			p.syntaxError(`")"`, stopSemiOrKeyword)
			return
		}
		p.advance()
	case p.tok.kind == tkNumber:
		p.syntaxError(`"("`, stopSemiOrKeyword)
		return
	}
	if p.tok.kind != tkSemicolon {
		p.syntaxError(`";"`, stopSemiOrKeyword)
		return
	}
	if p.recovered {
		p.makeDevices(ids, dev, num)
	}
	p.advance()
}

func (p *parser) identifier(ids *[]token) {
	switch p.tok.kind {
	case tkIdent:
		*ids = append(*ids, p.tok)
		p.advance()
	case tkKeyword, tkDevice, tkPort:
		if p.recovered {
			p.semanticError(p.tok.pos, "%q is a reserved word and cannot be used as a device name", p.tok.text)
			p.resync(stopSemi)
		}
	default:
		p.syntaxError("identifier", stopSemiOrKeyword)
	}
}

var deviceTypesByName = map[string]DeviceType{
	"NAND": Nand, "AND": And, "NOR": Nor, "OR": Or, "XOR": Xor,
	"DTYPE": DType, "CLOCK": Clock, "SWITCH": Switch, "SIGGEN": SigGen,
}

// makeDevices instantiates one device per identifier, all sharing the type
// and parameter of the definition.
func (p *parser) makeDevices(ids []token, dev token, num *token) {
	typ := deviceTypesByName[dev.text]
	param, pattern, ok := p.deviceParam(typ, dev, num)
	if !ok {
		return
	}
	for _, id := range ids {
		if p.net.Device(id.text) != nil {
			p.semanticError(id.pos, "device name %q already declared", id.text)
			continue
		}
		p.net.addDevice(id.text, typ, param, pattern)
	}
}

// deviceParam validates the optional parameter against the device model and
// resolves the per-type default when it is omitted.
func (p *parser) deviceParam(typ DeviceType, dev token, num *token) (param int, pattern string, ok bool) {
	m := models[typ]
	switch typ {
	case DType:
		if num != nil {
			p.semanticError(num.pos, "DTYPE takes no parameter")
			return 0, "", false
		}
		return 0, "", true
	case Xor:
		// XOR gates always have two inputs; writing the 2 out is tolerated.
		if num != nil && num.num != 2 {
			p.semanticError(num.pos, "XOR gates always have 2 inputs")
			return 0, "", false
		}
		return 2, "", true
	case SigGen:
		if num == nil {
			p.semanticError(dev.pos, "SIGGEN requires a bit pattern parameter")
			return 0, "", false
		}
		if strings.Trim(num.text, "01") != "" {
			p.semanticError(num.pos, "SIGGEN pattern must consist of 0s and 1s")
			return 0, "", false
		}
		return 0, num.text, true
	}
	if num == nil {
		return m.def, "", true
	}
	if num.num < m.min || num.num > m.max {
		switch typ {
		case Switch:
			p.semanticError(num.pos, "SWITCH level must be 0 or 1")
		case Clock:
			p.semanticError(num.pos, "CLOCK half-period must be greater than 0")
		default:
			p.semanticError(num.pos, "%s gates can only have %d to %d inputs", typ, m.min, m.max)
		}
		return 0, "", false
	}
	return num.num, "", true
}

// connection_section = "CONNECTIONS" ":" conn_def {conn_def} "END" ";"
func (p *parser) connectionSection() {
	if !p.at("CONNECTIONS") {
		p.syntaxError(`"CONNECTIONS"`, stopEnd)
		return
	}
	p.advance()
	if p.tok.kind != tkColon {
		p.syntaxError(`":"`, stopEnd)
		return
	}
	p.advance()
	// the section may be empty
	for p.tok.kind != tkKeyword && p.tok.kind != tkEOF {
		p.recovered = true
		p.connectionDef()
	}
	p.recovered = true
	p.sectionEnd()
}

// signalRef is an unresolved device[.port] reference with source positions
// for diagnostics.
type signalRef struct {
	dev     token
	port    string // "" when no port was written
	portNum int    // k for numbered inputs Ik
	portPos Pos
}

// signal = id ["." port]
func (p *parser) signal() (signalRef, bool) {
	var sig signalRef
	if p.tok.kind != tkIdent {
		p.syntaxError("signal", stopSemiOrKeyword)
		return sig, false
	}
	sig.dev = p.tok
	p.advance()
	if p.tok.kind != tkDot {
		return sig, true
	}
	p.advance()
	sig.portPos = p.tok.pos
	if p.tok.kind != tkPort {
		p.syntaxError("port name", stopSemiOrKeyword)
		return sig, false
	}
	name := p.tok.text
	p.advance()
	switch {
	case name == "I":
		// port written as "I" number
		if p.tok.kind != tkNumber {
			p.syntaxError("input pin number", stopSemiOrKeyword)
			return sig, false
		}
		sig.port = "I" + p.tok.text
		sig.portNum = p.tok.num
		p.advance()
	case isNumberedPort(name):
		sig.port = name
		sig.portNum, _ = strconv.Atoi(name[1:])
	default:
		sig.port = name
	}
	return sig, true
}

// conn_def = signal {"," signal} "=>" signal {"," signal} ";"
func (p *parser) connectionDef() {
	var drivers, dests []signalRef
	if s, ok := p.signal(); ok {
		drivers = append(drivers, s)
	}
	for p.tok.kind == tkComma && p.recovered {
		p.advance()
		if s, ok := p.signal(); ok {
			drivers = append(drivers, s)
		}
	}
	if p.tok.kind != tkConnect {
		if p.tok.kind == tkIdent {
			p.syntaxError(`","`, stopSemiOrKeyword)
		} else {
			p.syntaxError(`"=>"`, stopSemiOrKeyword)
		}
		return
	}
	p.advance()
	if s, ok := p.signal(); ok {
		dests = append(dests, s)
	}
	for p.tok.kind == tkComma && p.recovered {
		p.advance()
		if s, ok := p.signal(); ok {
			dests = append(dests, s)
		}
	}
	if p.tok.kind != tkSemicolon {
		if p.tok.kind == tkIdent {
			p.syntaxError(`","`, stopSemiOrKeyword)
		} else {
			p.syntaxError(`";"`, stopSemiOrKeyword)
		}
		return
	}
	if p.recovered {
		p.makeConnections(drivers, dests)
	}
	p.advance()
}

// outRef is a resolved driving output pin.
type outRef struct {
	dev *Device
	out *pinOut
	pin Pin
}

// resolveOutput resolves a signal used as a driver or monitor point.
func (p *parser) resolveOutput(s signalRef) (outRef, bool) {
	d := p.net.Device(s.dev.text)
	if d == nil {
		p.semanticError(s.dev.pos, "undeclared device %q", s.dev.text)
		return outRef{}, false
	}
	switch s.port {
	case "":
		if d.Type == DType {
			p.semanticError(s.dev.pos, "DTYPE outputs must be named: use %s.Q or %s.QBAR", d.Name, d.Name)
			return outRef{}, false
		}
		return outRef{dev: d, out: &d.outs[0], pin: Pin{Device: d.Name}}, true
	case PortQ, PortQBar:
		if d.Type != DType {
			p.semanticError(s.portPos, "port %s is only valid on DTYPE devices", s.port)
			return outRef{}, false
		}
		return outRef{dev: d, out: d.output(s.port), pin: Pin{Device: d.Name, Port: s.port}}, true
	}
	p.semanticError(s.portPos, "%s is an input port and cannot drive a connection", s.port)
	return outRef{}, false
}

// resolveInput resolves a destination signal. A bare device reference
// returns a nil pin: the caller decides which numbered input it fills.
func (p *parser) resolveInput(s signalRef) (*Device, *pinIn, bool) {
	d := p.net.Device(s.dev.text)
	if d == nil {
		p.semanticError(s.dev.pos, "undeclared device %q", s.dev.text)
		return nil, nil, false
	}
	switch s.port {
	case "":
		return d, nil, true
	case PortQ, PortQBar:
		p.semanticError(s.portPos, "%s is an output port and cannot be driven", s.port)
		return nil, nil, false
	case PortData, PortClk, PortSet, PortClear:
		if d.Type != DType {
			p.semanticError(s.portPos, "port %s is only valid on DTYPE devices", s.port)
			return nil, nil, false
		}
		return d, d.input(s.port), true
	}
	if !d.Type.IsGate() {
		p.semanticError(s.portPos, "device %q has no numbered inputs", d.Name)
		return nil, nil, false
	}
	if s.portNum < 1 || s.portNum > d.Param {
		p.semanticError(s.portPos, "input %s exceeds the fan-in of %q (%d inputs)", s.port, d.Name, d.Param)
		return nil, nil, false
	}
	return d, &d.ins[s.portNum-1], true
}

// makeConnections expands one connection clause into individual wires.
func (p *parser) makeConnections(drivers, dests []signalRef) {
	srcs := make([]outRef, 0, len(drivers))
	for _, dr := range drivers {
		src, ok := p.resolveOutput(dr)
		if !ok {
			return
		}
		srcs = append(srcs, src)
	}
	if len(srcs) == 0 || len(dests) == 0 {
		return
	}

	// A single bare gate destination soaks up the whole driver list into its
	// numbered inputs, left to right. The driver count must match the
	// declared fan-in exactly.
	if len(dests) == 1 && dests[0].port == "" {
		d, _, ok := p.resolveInput(dests[0])
		if !ok {
			return
		}
		switch {
		case d.Type.IsGate():
			if len(srcs) != d.Param {
				p.semanticError(dests[0].dev.pos, "gate %q has %d inputs but %d drivers given", d.Name, d.Param, len(srcs))
				return
			}
			for i := range srcs {
				p.connectPins(srcs[i], d, &d.ins[i], dests[0].dev.pos)
			}
		case d.Type == DType:
			p.semanticError(dests[0].dev.pos, "DTYPE inputs must be named: DATA, CLK, SET or CLEAR")
		default:
			p.semanticError(dests[0].dev.pos, "device %q has no inputs", d.Name)
		}
		return
	}

	// Positional matching: a single driver fans out to every destination,
	// otherwise driver and destination counts must agree.
	if len(srcs) != 1 && len(srcs) != len(dests) {
		p.semanticError(drivers[0].dev.pos, "cannot wire %d drivers to %d destinations", len(srcs), len(dests))
		return
	}
	for i, ds := range dests {
		src := srcs[0]
		if len(srcs) > 1 {
			src = srcs[i]
		}
		d, in, ok := p.resolveInput(ds)
		if !ok {
			continue
		}
		if in == nil {
			// bare device in a multi-destination clause: next free input
			switch {
			case d.Type.IsGate():
				if in = d.freeInput(); in == nil {
					p.semanticError(ds.dev.pos, "all %d inputs of %q are already driven", d.Param, d.Name)
					continue
				}
			case d.Type == DType:
				p.semanticError(ds.dev.pos, "DTYPE inputs must be named: DATA, CLK, SET or CLEAR")
				continue
			default:
				p.semanticError(ds.dev.pos, "device %q has no inputs", d.Name)
				continue
			}
		}
		p.connectPins(src, d, in, ds.dev.pos)
	}
}

// connectPins records a single wire, enforcing the at-most-one-driver rule.
func (p *parser) connectPins(src outRef, d *Device, in *pinIn, pos Pos) {
	to := Pin{Device: d.Name, Port: in.name}
	if in.driven {
		p.semanticError(pos, "input %s is already driven", to)
		return
	}
	in.driven = true
	in.src = src.out.slot
	p.net.conns = append(p.net.conns, Connection{From: src.pin, To: to})
}

// monitor_section = "MONITORS" ":" signal {"," signal} ";" "END" ";"
// The section is optional.
func (p *parser) monitorSection() {
	if p.tok.kind == tkEOF {
		return
	}
	if !p.at("MONITORS") {
		p.syntaxError(`"MONITORS" or end of file`, stopEOF)
		return
	}
	p.advance()
	if p.tok.kind != tkColon {
		p.syntaxError(`":"`, stopEnd)
		return
	}
	p.advance()
	var sigs []signalRef
	if s, ok := p.signal(); ok {
		sigs = append(sigs, s)
	}
	for p.tok.kind == tkComma && p.recovered {
		p.advance()
		if s, ok := p.signal(); ok {
			sigs = append(sigs, s)
		}
	}
	if p.tok.kind != tkSemicolon {
		p.syntaxError(`";"`, stopEnd)
		return
	}
	if p.recovered {
		p.makeMonitors(sigs)
	}
	p.advance()
	p.recovered = true
	p.sectionEnd()
}

func (p *parser) makeMonitors(sigs []signalRef) {
	for _, s := range sigs {
		ref, ok := p.resolveOutput(s)
		if !ok {
			continue
		}
		dup := false
		for _, m := range p.net.monitors {
			if m == ref.pin {
				p.semanticError(s.dev.pos, "signal %s is already monitored", ref.pin)
				dup = true
				break
			}
		}
		if !dup {
			p.net.addMonitor(ref.pin, ref.out.slot)
		}
	}
}
