package logsim

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/db47h/logsim/internal/lex"
)

// Token kinds produced by the definition-file scanner.
type tokenKind int

const (
	tkError tokenKind = iota // unrecognized character
	tkEOF
	tkIdent
	tkNumber
	tkKeyword // DEVICES, CONNECTIONS, MONITORS, END
	tkDevice  // device type names
	tkPort    // port names, including numbered inputs
	tkColon
	tkSemicolon
	tkComma
	tkDot
	tkLParen
	tkRParen
	tkDefine  // ":="
	tkConnect // "=>"
)

type token struct {
	kind tokenKind
	text string
	num  int // value of a tkNumber token, numOverflow if out of range
	pos  Pos
}

// numOverflow marks number literals too large for an int. Device parameter
// range checks reject it.
const numOverflow = -1 << 30

func (t token) String() string {
	switch t.kind {
	case tkEOF:
		return "end of file"
	case tkNumber:
		return "number " + t.text
	case tkError:
		return "character " + strconv.Quote(t.text)
	}
	return strconv.Quote(t.text)
}

var keywords = map[string]tokenKind{
	"DEVICES":     tkKeyword,
	"CONNECTIONS": tkKeyword,
	"MONITORS":    tkKeyword,
	"END":         tkKeyword,
	"NAND":        tkDevice,
	"AND":         tkDevice,
	"NOR":         tkDevice,
	"OR":          tkDevice,
	"XOR":         tkDevice,
	"DTYPE":       tkDevice,
	"CLOCK":       tkDevice,
	"SWITCH":      tkDevice,
	"SIGGEN":      tkDevice,
	"Q":           tkPort,
	"QBAR":        tkPort,
	"DATA":        tkPort,
	"CLK":         tkPort,
	"SET":         tkPort,
	"CLEAR":       tkPort,
	"I":           tkPort,
}

// isNumberedPort reports whether name is an input pin reference of the form
// I<digits>.
func isNumberedPort(name string) bool {
	if len(name) < 2 || name[0] != 'I' {
		return false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return false
		}
	}
	return true
}

// scanner turns definition-file text into a stream of tokens. It skips
// whitespace and //-comments and keeps producing an end-of-file token once
// the input is exhausted.
type scanner struct {
	l *lex.Lexer
}

func newScanner(src string) *scanner {
	return &scanner{l: lex.New(src, scanToken)}
}

func (s *scanner) next() token {
	it := s.l.Lex()
	t := token{kind: tokenKind(it.Type), pos: Pos(it.Pos)}
	if v, ok := it.Value.(string); ok {
		t.text = v
	}
	if t.kind == tkNumber {
		n, err := strconv.Atoi(t.text)
		if err != nil {
			n = numOverflow
		}
		t.num = n
	}
	return t
}

func scanToken(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return scanEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
		l.Discard()
	case unicode.IsLetter(r):
		return scanName
	case '0' <= r && r <= '9':
		return scanNumber
	case r == ':':
		if l.Next() == '=' {
			l.Emit(lex.Type(tkDefine), ":=")
			break
		}
		l.Backup()
		l.Emit(lex.Type(tkColon), ":")
	case r == '=':
		if l.Next() == '>' {
			l.Emit(lex.Type(tkConnect), "=>")
			break
		}
		l.Backup()
		l.Emit(lex.Type(tkError), "=")
	case r == ';':
		l.Emit(lex.Type(tkSemicolon), ";")
	case r == ',':
		l.Emit(lex.Type(tkComma), ",")
	case r == '.':
		l.Emit(lex.Type(tkDot), ".")
	case r == '(':
		l.Emit(lex.Type(tkLParen), "(")
	case r == ')':
		l.Emit(lex.Type(tkRParen), ")")
	case r == '/':
		if l.Next() == '/' {
			l.AcceptWhile(func(r rune) bool { return r != '\n' })
			l.Discard()
			break
		}
		l.Backup()
		l.Emit(lex.Type(tkError), "/")
	default:
		l.Emit(lex.Type(tkError), string(r))
	}
	return nil
}

func scanName(l *lex.Lexer) lex.StateFn {
	var b strings.Builder
	b.WriteRune(l.Current())
	for {
		r := l.Next()
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			l.Backup()
			break
		}
		b.WriteRune(r)
	}
	name := b.String()
	switch {
	case keywords[name] != 0:
		l.Emit(lex.Type(keywords[name]), name)
	case isNumberedPort(name):
		l.Emit(lex.Type(tkPort), name)
	default:
		l.Emit(lex.Type(tkIdent), name)
	}
	return nil
}

func scanNumber(l *lex.Lexer) lex.StateFn {
	var b strings.Builder
	b.WriteRune(l.Current())
	for {
		r := l.Next()
		if r < '0' || r > '9' {
			l.Backup()
			break
		}
		b.WriteRune(r)
	}
	l.Emit(lex.Type(tkNumber), b.String())
	return nil
}

// scanEOF keeps the lexer in end-of-file state: once reached, it only emits
// end-of-file tokens.
func scanEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(lex.Type(tkEOF), "")
	return scanEOF
}
