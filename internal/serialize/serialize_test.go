package serialize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/ledger"
	"github.com/roach88/offload/internal/wrap"
)

func build(t *testing.T, units ...ir.Unit) *ledger.Ledger {
	t.Helper()
	l := ledger.New()
	s := wrap.NewSynthesizer(nil)
	for _, u := range units {
		require.NoError(t, l.Append(s.Entry(u, ir.NoTx)))
	}
	return l
}

func TestTerminator(t *testing.T) {
	tests := []struct {
		name string
		kind ir.Kind
		text string
		want string
	}{
		{"decl ending in brace", ir.KindDecl, "struct S { int a; }", ";\n"},
		{"decl ending in brace with trailing space", ir.KindDecl, "void f() {}  \n", ";\n"},
		{"decl ending in semicolon", ir.KindDecl, "int x = 5;", "\n"},
		{"decl without terminator", ir.KindDecl, "int x = 5", "\n"},
		{"statement with semicolon", ir.KindStatement, "x++;", "\n"},
		{"statement with semicolon and tab", ir.KindStatement, "x++;\t", "\n"},
		{"statement without semicolon", ir.KindStatement, "x++", ";\n"},
		{"wrapper statement", ir.KindStatement, "void __offload_stmt_1() { x++ ; }", ";\n"},
		{"empty statement", ir.KindStatement, "", ";\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terminator(tt.kind, tt.text))
		})
	}
}

// Scenario A: a declaration then a statement.
func TestRenderWrappedScenarioA(t *testing.T) {
	l := build(t,
		ir.Unit{Kind: ir.KindDecl, Text: "int x = 5;"},
		ir.Unit{Kind: ir.KindStatement, Text: "x++"},
	)

	got := Render(l, LayoutWrapped)
	assert.Equal(t, "int x = 5;\nvoid __offload_stmt_2() { x++ ; };\n", got)
}

func TestRenderMainLayout(t *testing.T) {
	l := build(t,
		ir.Unit{Kind: ir.KindDecl, Text: "int x = 5;"},
		ir.Unit{Kind: ir.KindStatement, Text: "x++"},
		ir.Unit{Kind: ir.KindDecl, Text: "struct P { int a; }"},
		ir.Unit{Kind: ir.KindStatement, Text: "x--;"},
	)

	got := Render(l, LayoutMain)
	assert.Equal(t, "int x = 5;\nstruct P { int a; };\nint main(){\nx++;\nx--;\n}", got)
}

func TestRenderPreservesOrderPerKind(t *testing.T) {
	var units []ir.Unit
	for i := 0; i < 20; i++ {
		kind := ir.KindDecl
		if i%3 == 0 {
			kind = ir.KindStatement
		}
		units = append(units, ir.Unit{Kind: kind, Text: "v" + string(rune('a'+i)) + ";"})
	}
	l := build(t, units...)

	for _, layout := range []Layout{LayoutWrapped, LayoutMain} {
		buf := Render(l, layout)
		lastDecl, lastStmt := -1, -1
		for _, u := range units {
			pos := strings.Index(buf, u.Text)
			require.GreaterOrEqual(t, pos, 0, "%s missing from %s buffer", u.Text, layout)
			if u.Kind == ir.KindDecl {
				assert.Greater(t, pos, lastDecl)
				lastDecl = pos
			} else {
				assert.Greater(t, pos, lastStmt)
				lastStmt = pos
			}
		}
	}
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout("main")
	require.NoError(t, err)
	assert.Equal(t, LayoutMain, l)

	l, err = ParseLayout("")
	require.NoError(t, err)
	assert.Equal(t, LayoutWrapped, l)

	_, err = ParseLayout("flat")
	assert.Error(t, err)
}

func TestWriteFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.cpp")
	require.NoError(t, WriteFile(path, "a much longer first buffer\n"))
	require.NoError(t, WriteFile(path, "short\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(data))
}
