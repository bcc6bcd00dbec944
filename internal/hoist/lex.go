package hoist

import (
	"fmt"
	"strings"
)

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  int
	end  int
}

// Multi-character punctuators, longest first.
var puncts = []string{
	"<<=", ">>=", "...", "->*",
	"::", "->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=",
	"&&", "||", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", ".*", "##",
}

// String and character literal encoding prefixes.
var literalPrefixes = map[string]bool{
	"L": true, "u": true, "U": true, "u8": true,
	"R": true, "LR": true, "uR": true, "UR": true, "u8R": true,
}

// lex splits C++ source into tokens. Comments and preprocessor lines are
// dropped. An unterminated comment or literal is an error.
func lex(src string) ([]token, error) {
	var toks []token
	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n':
			lineStart = true
			i++
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			i++
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			continue
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return nil, fmt.Errorf("offset %d: unterminated comment", i)
			}
			i += end + 4
			continue
		case c == '#' && lineStart:
			i = directiveEnd(src, i)
			continue
		}
		lineStart = false

		start := i
		kind := tokPunct
		switch {
		case isIdentStart(c):
			for i < len(src) && isIdentChar(src[i]) {
				i++
			}
			kind = tokIdent
			if i < len(src) && (src[i] == '"' || src[i] == '\'') && literalPrefixes[src[start:i]] {
				end, err := literalEnd(src, i, strings.HasSuffix(src[start:i], "R"))
				if err != nil {
					return nil, err
				}
				i, kind = end, tokString
			}
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			i = numberEnd(src, i)
			kind = tokNumber
		case c == '"' || c == '\'':
			end, err := literalEnd(src, i, false)
			if err != nil {
				return nil, err
			}
			i, kind = end, tokString
		default:
			i += punctLen(src[i:])
		}
		toks = append(toks, token{kind: kind, text: src[start:i], pos: start, end: i})
	}
	return toks, nil
}

func punctLen(s string) int {
	for _, p := range puncts {
		if strings.HasPrefix(s, p) {
			return len(p)
		}
	}
	return 1
}

// literalEnd returns the offset just past the literal whose opening quote
// is at i.
func literalEnd(src string, i int, raw bool) (int, error) {
	q := src[i]
	if raw && q == '"' {
		open := strings.IndexByte(src[i:], '(')
		if open < 0 {
			return 0, fmt.Errorf("offset %d: malformed raw string", i)
		}
		closing := ")" + src[i+1:i+open] + `"`
		end := strings.Index(src[i+open:], closing)
		if end < 0 {
			return 0, fmt.Errorf("offset %d: unterminated raw string", i)
		}
		return i + open + end + len(closing), nil
	}
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '\n':
			return 0, fmt.Errorf("offset %d: unterminated literal", i)
		case q:
			return j + 1, nil
		}
	}
	return 0, fmt.Errorf("offset %d: unterminated literal", i)
}

func numberEnd(src string, i int) int {
	for i++; i < len(src); i++ {
		c := src[i]
		switch {
		case isIdentChar(c) || c == '.' || c == '\'':
		case (c == '+' || c == '-') && strings.IndexByte("eEpP", src[i-1]) >= 0:
		default:
			return i
		}
	}
	return i
}

func directiveEnd(src string, i int) int {
	for ; i < len(src); i++ {
		if src[i] == '\n' && src[i-1] != '\\' {
			return i
		}
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// render joins tokens as they appear in src, collapsing every gap to one
// space.
func render(src string, toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 && t.pos > toks[i-1].end {
			b.WriteByte(' ')
		}
		b.WriteString(src[t.pos:t.end])
	}
	return b.String()
}
