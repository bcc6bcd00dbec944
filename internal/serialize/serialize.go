// Package serialize renders the ledger into one compilable buffer.
package serialize

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/roach88/offload/internal/ir"
)

// Layout selects how entries are arranged in the buffer.
type Layout int

const (
	// LayoutWrapped emits every entry in ledger order at file scope, with
	// statements inside their wrapper functions. The hoister and the device
	// compiler consume this form.
	LayoutWrapped Layout = iota
	// LayoutMain emits declarations first, then every statement body inside
	// a single int main().
	LayoutMain
)

// ParseLayout converts a profile layout name.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "wrapped", "":
		return LayoutWrapped, nil
	case "main":
		return LayoutMain, nil
	default:
		return 0, fmt.Errorf("unknown layout %q: must be wrapped or main", s)
	}
}

func (l Layout) String() string {
	if l == LayoutMain {
		return "main"
	}
	return "wrapped"
}

// Walker iterates entries in ledger order.
type Walker interface {
	Each(fn func(*ir.Entry) bool)
}

// Terminator returns what follows text of the given kind in the buffer.
//
//	Decl:      '}' -> ";\n", otherwise "\n"
//	Statement: ';' -> "\n",  otherwise ";\n"
func Terminator(kind ir.Kind, text string) string {
	last := lastNonSpace(text)
	if kind == ir.KindDecl {
		if last == '}' {
			return ";\n"
		}
		return "\n"
	}
	if last == ';' {
		return "\n"
	}
	return ";\n"
}

func lastNonSpace(s string) rune {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	if trimmed == "" {
		return 0
	}
	r := []rune(trimmed)
	return r[len(r)-1]
}

// Render serializes the entries from w.
func Render(w Walker, layout Layout) string {
	if layout == LayoutMain {
		return renderMain(w)
	}
	var b strings.Builder
	w.Each(func(e *ir.Entry) bool {
		b.WriteString(e.Text)
		b.WriteString(Terminator(e.Kind, e.Text))
		return true
	})
	return b.String()
}

func renderMain(w Walker) string {
	var decls, stmts strings.Builder
	w.Each(func(e *ir.Entry) bool {
		if e.Kind == ir.KindDecl {
			decls.WriteString(e.Text)
			decls.WriteString(Terminator(e.Kind, e.Text))
			return true
		}
		stmts.WriteString(e.Body)
		stmts.WriteString(Terminator(e.Kind, e.Body))
		return true
	})
	return decls.String() + "int main(){\n" + stmts.String() + "}"
}

// WriteFile truncates path and writes buffer to it.
func WriteFile(path, buffer string) error {
	if err := os.WriteFile(path, []byte(buffer), 0o644); err != nil {
		return fmt.Errorf("write buffer %s: %w", path, err)
	}
	return nil
}
