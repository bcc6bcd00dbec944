package segment

import (
	"regexp"
	"strings"
)

// HeuristicClassifier splits a unit after its leading run of declarations.
//
// A top-level segment is a declaration when it is a preprocessor directive,
// starts with a declaration keyword, or has the shape of a function
// declaration or definition. Variable definitions with initializers are
// statements; the hoister lifts them to file scope later.
type HeuristicClassifier struct{}

var declKeywords = map[string]bool{
	"struct":    true,
	"class":     true,
	"union":     true,
	"enum":      true,
	"typedef":   true,
	"using":     true,
	"namespace": true,
	"template":  true,
	"extern":    true,
	"static":    true,
	"constexpr": true,
	"inline":    true,
}

// Leading words that make a function-shaped segment an expression.
var exprKeywords = map[string]bool{
	"return":    true,
	"if":        true,
	"else":      true,
	"for":       true,
	"while":     true,
	"do":        true,
	"switch":    true,
	"case":      true,
	"default":   true,
	"goto":      true,
	"break":     true,
	"continue":  true,
	"try":       true,
	"throw":     true,
	"new":       true,
	"delete":    true,
	"sizeof":    true,
	"co_return": true,
	"co_await":  true,
}

var (
	leadingWord = regexp.MustCompile(`^\s*([A-Za-z_]\w*)`)
	funcShape   = regexp.MustCompile(`(?s)^[A-Za-z_][\w:<>,\s*&~]*[\s*&]+~?[A-Za-z_][\w:]*(<[^()]*>)?\s*\(.*\)\s*((const|noexcept|override|final|volatile|&&|&|->\s*[\w:<>,\s*&]+)\s*)*$`)
)

func (HeuristicClassifier) Classify(unit string) Boundary {
	offset, pos := 0, 0
	for {
		pos = skipBlank(unit, pos)
		if pos >= len(unit) {
			break
		}
		if unit[pos] == ';' {
			pos++
			offset = pos
			continue
		}
		end, ok := declEnd(unit, pos)
		if !ok {
			break
		}
		offset, pos = end, end
	}

	switch {
	case skipBlank(unit, offset) >= len(unit):
		return Boundary{Kind: NoSplit}
	case offset == 0:
		return Boundary{Kind: SplitAtStart}
	default:
		return Boundary{Kind: SplitAt, Offset: offset}
	}
}

// declEnd reports whether the segment starting at start is a declaration
// and, if so, the offset just past it.
func declEnd(unit string, start int) (int, bool) {
	if unit[start] == '#' {
		return directiveEnd(unit, start), true
	}

	rest := unit[start:]
	var lex lexState
	depth := 0
	headEnd, term := len(rest), byte(0)
	lex.walk(rest, func(i int) bool {
		switch c := rest[i]; c {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ';', '{', '=':
			if depth == 0 {
				headEnd, term = i, c
				return false
			}
		}
		return true
	})
	head := strings.TrimSpace(rest[:headEnd])

	first := ""
	if m := leadingWord.FindStringSubmatch(head); m != nil {
		first = m[1]
	}
	if first == "" || exprKeywords[first] {
		return 0, false
	}

	fn := funcShape.MatchString(head)
	switch {
	case declKeywords[first]:
		braced := term == '{' && (fn || first == "namespace" || (first == "extern" && strings.Contains(head, `"`)))
		return segmentEnd(unit, start, braced), true
	case fn && (term == '{' || term == ';'):
		return segmentEnd(unit, start, term == '{'), true
	default:
		return 0, false
	}
}

// segmentEnd returns the offset just past the depth-zero ';' ending the
// segment at start, or past its closing brace when braced is set.
func segmentEnd(unit string, start int, braced bool) int {
	rest := unit[start:]
	var lex lexState
	depth := 0
	end := len(unit)
	lex.walk(rest, func(i int) bool {
		switch rest[i] {
		case '(', '[', '{':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 && braced {
				end = start + i + 1
				return false
			}
		case ';':
			if depth == 0 {
				end = start + i + 1
				return false
			}
		}
		return true
	})
	return end
}

// directiveEnd returns the offset of the newline ending the directive at
// start, honouring backslash continuations.
func directiveEnd(unit string, start int) int {
	for i := start; i < len(unit); i++ {
		if unit[i] == '\n' && (i == 0 || unit[i-1] != '\\') {
			return i
		}
	}
	return len(unit)
}
