package cli

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interrupt stands for a ^C keypress in a scripted reader.
const interrupt = "\x03"

// scriptedReader replays lines and records prompt changes.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == interrupt {
		return "", readline.ErrInterrupt
	}
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) {
	r.prompts = append(r.prompts, prompt)
}

func newTestRepl(t *testing.T) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	sess, _ := newTestSession(t)
	var out, errOut bytes.Buffer
	return &repl{
		session:  sess,
		compiler: "clang++",
		out:      &out,
		errOut:   &OutputFormatter{Format: "text", Writer: &errOut},
	}, &out, &errOut
}

func TestRepl_ContinuationPrompt(t *testing.T) {
	r, out, errOut := newTestRepl(t)
	in := &scriptedReader{lines: []string{"void g() {", "}", ".buffer"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Equal(t, []string{promptContinue, promptMain}, in.prompts)
	assert.Equal(t, "void g() {\n};\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRepl_QuitStopsReading(t *testing.T) {
	r, _, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{".quit", "int never();"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Equal(t, []string{"int never();"}, in.lines)
	assert.Empty(t, r.session.Engine().Entries())
}

func TestRepl_InterruptDiscardsOpenUnit(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{"void g() {", interrupt, ".entries"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.False(t, r.session.Pending())
	assert.Equal(t, []string{promptContinue, promptMain}, in.prompts)
	assert.Empty(t, out.String())
}

func TestRepl_DotCommandInsideOpenUnitIsSource(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{"struct S {", ".buffer", "};"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Empty(t, out.String())
	entries := r.session.Engine().Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Body, ".buffer")
}

func TestRepl_Undo(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{"int f() { return 1; }", "f();", ".undo", ".undo", ".undo"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Equal(t, "removed 1 entries\nremoved 1 entries\nnothing to undo\n", out.String())
	assert.Empty(t, r.session.Engine().Entries())
}

func TestRepl_ReportsCompileFailure(t *testing.T) {
	sess, runner := newTestSession(t)
	var out, errOut bytes.Buffer
	r := &repl{
		session:  sess,
		compiler: "clang++",
		out:      &out,
		errOut:   &OutputFormatter{Format: "text", Writer: &errOut},
	}
	runner.FailNext(1)

	in := &scriptedReader{lines: []string{"x++;"}}
	require.NoError(t, r.loop(context.Background(), in))

	assert.Contains(t, errOut.String(), "Error [COMPILE_FAILED]")
	assert.Empty(t, sess.Engine().Entries())
}

func TestRepl_ArgCommands(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{".arg", ".arg -D NDEBUG", ".argv"}}

	require.NoError(t, r.loop(context.Background(), in))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Equal(t, "usage: .arg FLAG [VALUE]", string(lines[0]))
	assert.Contains(t, string(lines[1]), "clang++ ")
	assert.Contains(t, string(lines[1]), " -D NDEBUG -c -o ")
}

func TestRepl_HeaderAndEntries(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{".header", "int f() { return 1; }", ".header", ".entries"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Equal(t,
		"no active header\n"+
			"// device integration header 1\n"+
			"   1  decl       owner=tx-1 committed=false  int f() { return 1; }\n",
		out.String())
}

func TestRepl_UnknownCommand(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{".frobnicate"}}

	require.NoError(t, r.loop(context.Background(), in))

	assert.Equal(t, "unknown command: .frobnicate (type .help for commands)\n", out.String())
}

func TestRepl_Help(t *testing.T) {
	r, out, _ := newTestRepl(t)
	in := &scriptedReader{lines: []string{".help"}}

	require.NoError(t, r.loop(context.Background(), in))

	for _, c := range []string{".buffer", ".entries", ".undo", ".arg", ".argv", ".header", ".quit"} {
		assert.Contains(t, out.String(), c)
	}
}

func TestRepl_InterruptedContextKeepsCompiling(t *testing.T) {
	r, _, errOut := newTestRepl(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := &scriptedReader{lines: []string{"int a = 1;", "int b = 2;"}}
	require.NoError(t, r.loop(ctx, in))

	assert.Empty(t, errOut.String())
	assert.Len(t, r.session.Engine().Entries(), 2)
}
