// Package wrap synthesizes the argument-less functions that hold statement
// entries.
//
// A wrapper's name is Prefix followed by the entry id in decimal. The
// hoister sees only the reparsed buffer's surface syntax, so the name is the
// one channel back to the ledger: Name and ParseName must stay inverse.
package wrap

import (
	"strconv"
	"strings"

	"github.com/roach88/offload/internal/ir"
)

// Prefix is the reserved identifier stem of every wrapper function.
// Identifiers starting with a double underscore are reserved to the
// implementation in C and C++, so user code cannot collide with it.
const Prefix = "__offload_stmt_"

// Name returns the wrapper function name for id.
func Name(id uint64) string {
	return Prefix + strconv.FormatUint(id, 10)
}

// ParseName recovers the id encoded in a wrapper name.
// Only names produced by Name are accepted: no sign, no leading zeros.
func ParseName(name string) (uint64, bool) {
	digits, ok := strings.CutPrefix(name, Prefix)
	if !ok || digits == "" {
		return 0, false
	}
	if len(digits) > 1 && digits[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Statement returns the wrapper text for a statement entry. A statement
// whose last line ends in a // comment gets the closing " ; }" on a line of
// its own.
func Statement(id uint64, text string) string {
	if endsInLineComment(text) {
		return "void " + Name(id) + "() { " + text + "\n ; }"
	}
	return "void " + Name(id) + "() { " + text + " ; }"
}

// endsInLineComment reports whether text finishes inside a // comment.
// String and character literals end at a newline, as in the checker.
func endsInLineComment(text string) bool {
	inLine, inBlock := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inLine:
			inLine = c != '\n'
		case inBlock:
			if c == '*' && i+1 < len(text) && text[i+1] == '/' {
				inBlock = false
				i++
			}
		case c == '/' && i+1 < len(text) && text[i+1] == '/':
			inLine = true
			i++
		case c == '/' && i+1 < len(text) && text[i+1] == '*':
			inBlock = true
			i++
		case c == '"' || c == '\'':
			for i++; i < len(text) && text[i] != c && text[i] != '\n'; i++ {
				if text[i] == '\\' {
					i++
				}
			}
		}
	}
	return inLine
}

// Synthesizer turns segmented units into ledger entries.
type Synthesizer struct {
	counter *Counter
}

// NewSynthesizer creates a synthesizer drawing ids from counter.
// A nil counter gets a fresh one starting at 1.
func NewSynthesizer(counter *Counter) *Synthesizer {
	if counter == nil {
		counter = NewCounter()
	}
	return &Synthesizer{counter: counter}
}

// Counter returns the id source.
func (s *Synthesizer) Counter() *Counter {
	return s.counter
}

// Entry allocates an id for u and builds its ledger entry.
// Statements are wrapped; declarations pass through unmodified.
func (s *Synthesizer) Entry(u ir.Unit, owner ir.TxID) *ir.Entry {
	id := s.counter.Next()
	source := u.Text
	if u.Kind == ir.KindStatement {
		source = Statement(id, u.Text)
	}
	return &ir.Entry{
		ID:     id,
		Kind:   u.Kind,
		Body:   u.Text,
		Source: source,
		Text:   source,
		Owner:  owner,
	}
}
