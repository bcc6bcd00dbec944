// Package segment turns a raw multi-line submission into complete
// declaration and statement units.
//
// Two collaborators drive it. A Checker accumulates lines until a unit is
// syntactically closed. A Classifier decides whether a closed unit is a
// declaration, a statement, or a declaration prefix followed by a
// statement suffix.
package segment

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/offload/internal/ir"
)

// Completeness is the checker's verdict on the accumulated input.
type Completeness int

const (
	// Complete means the accumulated lines form a closed unit.
	Complete Completeness = iota
	// Incomplete means more lines are needed.
	Incomplete
)

func (c Completeness) String() string {
	if c == Complete {
		return "complete"
	}
	return "incomplete"
}

// Checker accumulates lines until a unit closes.
type Checker interface {
	// Validate adds line to the accumulated input and reports whether the
	// input is now a closed unit.
	Validate(line string) Completeness

	// Take returns the accumulated unit and clears it.
	Take() string

	// Pending reports whether lines are accumulated but not yet taken.
	Pending() bool

	// Reset discards accumulated input.
	Reset()
}

// BoundaryKind says how a complete unit divides into kinds.
type BoundaryKind int

const (
	// NoSplit marks a pure declaration.
	NoSplit BoundaryKind = iota
	// SplitAtStart marks a pure statement.
	SplitAtStart
	// SplitAt marks a declaration prefix ending at Offset followed by a
	// statement suffix.
	SplitAt
)

// Boundary is a classifier verdict.
type Boundary struct {
	Kind   BoundaryKind
	Offset int
}

// Classifier locates the declaration/statement boundary of a unit.
type Classifier interface {
	Classify(unit string) Boundary
}

// Segmenter splits submissions into units.
//
// Accumulated but unclosed lines survive across calls to Each, so a
// submission may be continued by the next one.
type Segmenter struct {
	checker    Checker
	classifier Classifier
}

// New creates a segmenter. Nil collaborators get the defaults.
func New(checker Checker, classifier Classifier) *Segmenter {
	if checker == nil {
		checker = NewBraceChecker()
	}
	if classifier == nil {
		classifier = HeuristicClassifier{}
	}
	return &Segmenter{checker: checker, classifier: classifier}
}

// Each feeds text to the checker line by line and calls fn for every unit
// as soon as it closes. A mixed unit yields its declaration prefix first.
// Each stops at the first error returned by fn.
func (s *Segmenter) Each(text string, fn func(ir.Unit) error) error {
	text = norm.NFC.String(text)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if s.checker.Validate(line) == Incomplete {
			continue
		}
		for _, u := range s.divide(s.checker.Take()) {
			if err := fn(u); err != nil {
				return err
			}
		}
	}
	return nil
}

// Split collects every unit of text.
func (s *Segmenter) Split(text string) []ir.Unit {
	var units []ir.Unit
	_ = s.Each(text, func(u ir.Unit) error {
		units = append(units, u)
		return nil
	})
	return units
}

// Pending reports whether an unclosed unit is waiting for more input.
func (s *Segmenter) Pending() bool {
	return s.checker.Pending()
}

// Reset drops any unclosed input.
func (s *Segmenter) Reset() {
	s.checker.Reset()
}

func (s *Segmenter) divide(unit string) []ir.Unit {
	b := s.classifier.Classify(unit)
	switch b.Kind {
	case NoSplit:
		return []ir.Unit{{Kind: ir.KindDecl, Text: unit}}
	case SplitAt:
		if b.Offset <= 0 || b.Offset >= len(unit) {
			break
		}
		return []ir.Unit{
			{Kind: ir.KindDecl, Text: unit[:b.Offset]},
			{Kind: ir.KindStatement, Text: strings.TrimLeft(unit[b.Offset:], " \t\n")},
		}
	}
	return []ir.Unit{{Kind: ir.KindStatement, Text: unit}}
}
