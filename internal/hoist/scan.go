package hoist

import (
	"context"
	"errors"
	"fmt"
)

// ScanFrontEnd finds wrapper declarations lexically, without a compiler.
//
// It locates each target defined at file scope as `name() {`, walks the
// statements directly inside its body and keeps those that read as a
// declaration: optional qualifiers, a type, then a declarator. Nested blocks
// are skipped; their declarations are not visible at body level.
type ScanFrontEnd struct{}

var errUnterminated = errors.New("unterminated function body")

func (ScanFrontEnd) Extract(ctx context.Context, req Request) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	toks, err := lex(req.Source)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(req.Targets))
	for _, name := range req.Targets {
		want[name] = true
	}

	out := make(map[string][]string)
	depth := 0
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind == tokPunct {
			switch t.text {
			case "{", "(", "[":
				depth++
			case "}", ")", "]":
				depth--
				if depth < 0 {
					return nil, fmt.Errorf("offset %d: unbalanced %q", t.pos, t.text)
				}
			}
			continue
		}
		if depth != 0 || t.kind != tokIdent || !want[t.text] {
			continue
		}
		if i+3 >= len(toks) || toks[i+1].text != "(" || toks[i+2].text != ")" || toks[i+3].text != "{" {
			continue
		}
		end, decls, err := scanBody(req.Source, toks, i+3)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.text, err)
		}
		out[t.text] = decls
		i = end
	}
	if depth != 0 {
		return nil, errors.New("unbalanced delimiters at end of input")
	}
	return out, nil
}

// scanBody walks the body opened at toks[open] and returns the index of its
// closing brace with the declarations found directly inside it.
func scanBody(src string, toks []token, open int) (int, []string, error) {
	decls := []string{}
	i := open + 1
	for i < len(toks) {
		if toks[i].kind == tokPunct {
			switch toks[i].text {
			case "}":
				return i, decls, nil
			case ";":
				i++
				continue
			}
		}
		end, err := statementEnd(toks, i)
		if err != nil {
			return 0, nil, err
		}
		if toks[end].kind == tokPunct && toks[end].text == ";" && isDecl(toks[i:end]) {
			decls = append(decls, render(src, toks[i:end]))
		}
		i = end + 1
	}
	return 0, nil, errUnterminated
}

// statementEnd returns the index of the last token of the statement that
// starts at toks[start]: its ';', the brace closing its block, or the token
// before the enclosing body's closing brace.
func statementEnd(toks []token, start int) (int, error) {
	depth := 0
	for i := start; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			if depth > 0 {
				depth--
			}
		case "{":
			if depth == 0 && opensBlock(toks, start, i) {
				return matchBrace(toks, i)
			}
			depth++
		case "}":
			if depth == 0 {
				return i - 1, nil
			}
			depth--
		case ";":
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errUnterminated
}

// opensBlock reports whether the brace at toks[i] opens a compound
// statement rather than an initializer or a class body.
func opensBlock(toks []token, start, i int) bool {
	if i == start {
		return true
	}
	depth := 0
	for _, t := range toks[start:i] {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case "=":
			if depth == 0 {
				return false
			}
		}
	}
	prev := toks[i-1]
	if prev.kind == tokIdent {
		return prev.text == "else" || prev.text == "do" || prev.text == "try"
	}
	return true
}

func matchBrace(toks []token, open int) (int, error) {
	depth := 0
	for j := open; j < len(toks); j++ {
		if toks[j].kind != tokPunct {
			continue
		}
		switch toks[j].text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, errUnterminated
}

var (
	qualifiers = map[string]bool{
		"const": true, "volatile": true, "static": true, "constexpr": true,
		"consteval": true, "constinit": true, "register": true,
		"thread_local": true, "inline": true, "mutable": true, "extern": true,
	}
	builtinTypes = map[string]bool{
		"void": true, "bool": true, "char": true, "wchar_t": true,
		"char8_t": true, "char16_t": true, "char32_t": true, "short": true,
		"int": true, "long": true, "signed": true, "unsigned": true,
		"float": true, "double": true, "auto": true,
	}
	elaborated = map[string]bool{
		"struct": true, "class": true, "union": true, "enum": true,
	}
	// Words that never begin or name a type.
	reserved = map[string]bool{
		"return": true, "if": true, "else": true, "for": true, "while": true,
		"do": true, "switch": true, "case": true, "default": true,
		"goto": true, "break": true, "continue": true, "try": true,
		"catch": true, "throw": true, "new": true, "delete": true,
		"sizeof": true, "alignof": true, "typeid": true, "this": true,
		"true": true, "false": true, "nullptr": true, "operator": true,
		"static_cast": true, "dynamic_cast": true, "reinterpret_cast": true,
		"const_cast": true, "co_return": true, "co_await": true,
		"co_yield": true, "decltype": true, "static_assert": true,
	}
)

// isDecl reports whether a statement, without its ';', is a declaration.
func isDecl(toks []token) bool {
	if len(toks) == 0 || toks[0].kind != tokIdent {
		return false
	}
	switch first := toks[0].text; {
	case first == "using" || first == "typedef":
		return true
	case elaborated[first]:
		return len(toks) > 1
	}

	i := 0
	sawType, sawAuto := false, false
	for i < len(toks) && toks[i].kind == tokIdent {
		w := toks[i].text
		if qualifiers[w] {
			i++
		} else if builtinTypes[w] {
			sawType = true
			sawAuto = sawAuto || w == "auto"
			i++
		} else {
			break
		}
	}
	if i >= len(toks) {
		return false
	}

	if !sawType {
		if toks[i].kind == tokPunct && toks[i].text == "::" {
			i++
		}
		if i >= len(toks) || toks[i].kind != tokIdent || reserved[toks[i].text] {
			return false
		}
		i++
		for i+1 < len(toks) && toks[i].text == "::" && toks[i+1].kind == tokIdent {
			i += 2
		}
		if i < len(toks) && toks[i].text == "<" {
			if i = skipAngles(toks, i); i < 0 {
				return false
			}
		}
	}

	for i < len(toks) && isDeclaratorPrefix(toks[i]) {
		i++
	}
	if i >= len(toks) {
		return false
	}
	// Structured binding: auto [a, b] = ...
	if sawAuto && toks[i].text == "[" {
		return true
	}
	if toks[i].kind != tokIdent || reserved[toks[i].text] || qualifiers[toks[i].text] {
		return false
	}
	i++
	if i == len(toks) {
		return true
	}
	switch toks[i].text {
	case "=", "[", "(", "{", ",":
		return true
	}
	return false
}

func isDeclaratorPrefix(t token) bool {
	switch t.text {
	case "*", "&", "&&", "const", "volatile":
		return true
	}
	return false
}

// skipAngles returns the index just past the template argument list opened
// at toks[i], or -1 if it does not close.
func skipAngles(toks []token, i int) int {
	depth := 0
	for ; i < len(toks); i++ {
		switch toks[i].text {
		case "<":
			depth++
		case ">":
			depth--
		case ">>":
			depth -= 2
		case ";", "{", "}":
			return -1
		}
		if depth <= 0 {
			return i + 1
		}
	}
	return -1
}
