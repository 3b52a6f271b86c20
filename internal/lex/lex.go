// Package lex implements a small state-function lexer in the style of
// text/template: scanning is driven by StateFn values that read runes from
// the input and emit typed items. Positions are tracked as line/column pairs
// so that clients can produce precise diagnostics.
package lex

import (
	"strconv"
	"unicode/utf8"
)

// EOF is returned by Next once the input is exhausted.
const EOF = -1

// Type identifies the type of an emitted Item. Values are client-defined.
type Type int

// Pos is a position in the input. Line and Col are both 1-based.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Col)
}

// Item is a lexeme emitted by a Lexer. Value holds the item's payload, a
// string for most token types.
type Item struct {
	Type  Type
	Pos   Pos
	Value interface{}
}

// A StateFn scans a token starting at the current input position and emits
// it. Returning nil hands control back to the initial state function.
type StateFn func(*Lexer) StateFn

// Lexer runs a state machine over an input string.
type Lexer struct {
	input   string
	off     int // byte offset of the next rune
	cur     rune
	curPos  Pos
	nextPos Pos
	backed  bool
	start   Pos // position of the first rune of the pending token
	started bool
	init    StateFn
	state   StateFn
	items   []Item
}

// New returns a lexer for input with init as its initial state.
func New(input string, init StateFn) *Lexer {
	return &Lexer{input: input, init: init, state: init, nextPos: Pos{Line: 1, Col: 1}}
}

// Lex runs the state machine until the next item is emitted and returns it.
func (l *Lexer) Lex() Item {
	for len(l.items) == 0 {
		if l.state == nil {
			l.state = l.init
		}
		l.state = l.state(l)
	}
	it := l.items[0]
	l.items = l.items[1:]
	return it
}

// Next consumes and returns the next rune, or EOF.
func (l *Lexer) Next() rune {
	if l.backed {
		l.backed = false
	} else {
		l.advance()
	}
	if !l.started && l.cur != EOF {
		l.start = l.curPos
		l.started = true
	}
	return l.cur
}

func (l *Lexer) advance() {
	l.curPos = l.nextPos
	if l.off >= len(l.input) {
		l.cur = EOF
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.off:])
	l.off += w
	l.cur = r
	if r == '\n' {
		l.nextPos.Line++
		l.nextPos.Col = 1
	} else {
		l.nextPos.Col++
	}
}

// Backup un-reads the last rune. Only one level of backup is supported.
func (l *Lexer) Backup() {
	l.backed = true
}

// Current returns the last rune read by Next.
func (l *Lexer) Current() rune {
	return l.cur
}

// AcceptWhile consumes runes while pred holds, leaving the first rejected
// rune un-read.
func (l *Lexer) AcceptWhile(pred func(rune) bool) {
	for {
		r := l.Next()
		if r == EOF || !pred(r) {
			l.Backup()
			return
		}
	}
}

// Emit appends an item of the given type to the output queue. Its position
// is that of the first rune consumed since the previous Emit or Discard.
func (l *Lexer) Emit(t Type, value interface{}) {
	pos := l.curPos
	if l.started {
		pos = l.start
	}
	l.items = append(l.items, Item{Type: t, Pos: pos, Value: value})
	l.started = false
}

// Discard drops the pending token without emitting anything. Used to skip
// whitespace and comments.
func (l *Lexer) Discard() {
	l.started = false
}
