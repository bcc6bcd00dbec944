package hoist

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/offload/internal/device"
	"github.com/roach88/offload/internal/wrap"
)

type dumpRunner struct {
	out  string
	err  error
	args []string
}

func (r *dumpRunner) Run(_ context.Context, cmd device.Command) error {
	r.args = cmd.Args
	if r.err != nil {
		return r.err
	}
	_, err := fmt.Fprint(cmd.Stdout, r.out)
	return err
}

// declStmtJSON builds a DeclStmt node spanning text inside src.
func declStmtJSON(t *testing.T, src, text string) string {
	t.Helper()
	begin := strings.Index(src, text)
	require.GreaterOrEqual(t, begin, 0)
	last := begin + len(text) - 1
	return fmt.Sprintf(`{"kind":"DeclStmt","range":{"begin":{"offset":%d,"tokLen":3},"end":{"offset":%d,"tokLen":1}}}`, begin, last)
}

func TestClangFrontEndFilteredDump(t *testing.T) {
	src := "int x = 5;\n" + wrap.Statement(2, "int  y = 10; y++;") + ";\n"
	decl := declStmtJSON(t, src, "int  y = 10;")
	dump := fmt.Sprintf("Dumping %s:\n{\"kind\":\"FunctionDecl\",\"name\":%q,\"inner\":[{\"kind\":\"CompoundStmt\",\"inner\":[%s,{\"kind\":\"UnaryOperator\"}]}]}\n",
		wrap.Name(2), wrap.Name(2), decl)
	runner := &dumpRunner{out: dump}

	fe := ClangFrontEnd{Compiler: "clang++", Runner: runner}
	got, err := fe.Extract(context.Background(), Request{
		Source:  src,
		Path:    "dump.cpp",
		Args:    []string{"-std=c++17", "-w", "dump.cpp"},
		Targets: []string{wrap.Name(2)},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{wrap.Name(2): {"int y = 10"}}, got)
	assert.Equal(t, []string{
		"-fsyntax-only", "-Xclang", "-ast-dump=json", "-Xclang", "-ast-dump-filter=" + wrap.Prefix,
		"-std=c++17", "-w", "dump.cpp",
	}, runner.args)
}

func TestClangFrontEndTranslationUnitDump(t *testing.T) {
	src := wrap.Statement(1, "int a = 1;") + ";\n" + wrap.Statement(2, "int b = 2;") + ";\n"
	dump := fmt.Sprintf(`{"kind":"TranslationUnitDecl","inner":[
		{"kind":"FunctionDecl","name":%q,"inner":[{"kind":"CompoundStmt","inner":[%s]}]},
		{"kind":"FunctionDecl","name":%q,"inner":[{"kind":"CompoundStmt","inner":[%s]}]}
	]}`, wrap.Name(1), declStmtJSON(t, src, "int a = 1;"), wrap.Name(2), declStmtJSON(t, src, "int b = 2;"))

	fe := ClangFrontEnd{Compiler: "clang++", Runner: &dumpRunner{out: dump}}
	got, err := fe.Extract(context.Background(), Request{Source: src, Path: "dump.cpp", Targets: []string{wrap.Name(2)}})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{wrap.Name(2): {"int b = 2"}}, got)
}

func TestClangFrontEndAppendsPath(t *testing.T) {
	fe := ClangFrontEnd{}
	argv := fe.Argv(Request{Path: "dump.cpp", Args: []string{"-w"}})
	assert.Equal(t, "dump.cpp", argv[len(argv)-1])
}

func TestClangFrontEndExpansionLoc(t *testing.T) {
	src := wrap.Statement(1, "DECL;")
	begin := strings.Index(src, "DECL")
	dump := fmt.Sprintf(`{"kind":"FunctionDecl","name":%q,"inner":[{"kind":"CompoundStmt","inner":[
		{"kind":"DeclStmt","range":{"begin":{"spellingLoc":{},"expansionLoc":{"offset":%d,"tokLen":4}},"end":{"offset":%d,"tokLen":1}}}
	]}]}`, wrap.Name(1), begin, begin+4)

	fe := ClangFrontEnd{Runner: &dumpRunner{out: dump}}
	got, err := fe.Extract(context.Background(), Request{Source: src, Targets: []string{wrap.Name(1)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"DECL"}, got[wrap.Name(1)])
}

func TestClangFrontEndFailures(t *testing.T) {
	src := wrap.Statement(1, "int a = 1;")
	tests := []struct {
		name   string
		runner *dumpRunner
	}{
		{"non-zero exit", &dumpRunner{err: &device.ExitError{Name: "clang++", Code: 1}}},
		{"bad json", &dumpRunner{out: "Dumping x:\n{not json"}},
		{"range outside buffer", &dumpRunner{out: fmt.Sprintf(
			`{"kind":"FunctionDecl","name":%q,"inner":[{"kind":"CompoundStmt","inner":[{"kind":"DeclStmt","range":{"begin":{"offset":1},"end":{"offset":9999,"tokLen":1}}}]}]}`,
			wrap.Name(1))}},
		{"missing offsets", &dumpRunner{out: fmt.Sprintf(
			`{"kind":"FunctionDecl","name":%q,"inner":[{"kind":"CompoundStmt","inner":[{"kind":"DeclStmt","range":{"begin":{},"end":{}}}]}]}`,
			wrap.Name(1))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ClangFrontEnd{Compiler: "clang++", Runner: tt.runner}
			_, err := fe.Extract(context.Background(), Request{Source: src, Targets: []string{wrap.Name(1)}})
			assert.Error(t, err)
		})
	}
}
