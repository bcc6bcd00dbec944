package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/offload/internal/engine"
	"github.com/roach88/offload/internal/ir"
	"github.com/roach88/offload/internal/profile"
	"github.com/roach88/offload/internal/testutil"
)

func newTestSession(t *testing.T) (*Session, *testutil.ScriptedRunner) {
	t.Helper()

	prof := profile.Default()
	prof.WorkDir = t.TempDir()
	runner := testutil.NewScriptedRunner()

	sess, err := newSession(sessionConfig{
		Profile: prof,
		Runner:  runner,
		TxGen:   testutil.NewCountingTxGenerator(""),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess, runner
}

func owners(entries []ir.Entry) []ir.TxID {
	out := make([]ir.TxID, len(entries))
	for i, e := range entries {
		out[i] = e.Owner
	}
	return out
}

func TestSession_EachSubmissionGetsItsOwnTransaction(t *testing.T) {
	ctx := context.Background()
	sess, runner := newTestSession(t)

	tx1, err := sess.Submit(ctx, "int f() { return 1; }")
	require.NoError(t, err)
	tx2, err := sess.Submit(ctx, "f();")
	require.NoError(t, err)

	assert.Equal(t, ir.TxID("tx-1"), tx1)
	assert.Equal(t, ir.TxID("tx-2"), tx2)
	assert.Equal(t, []ir.TxID{"tx-1", "tx-2"}, owners(sess.Engine().Entries()))
	assert.Equal(t, 2, runner.Runs())
	assert.Equal(t, 1, sess.Host().Live())
}

func TestSession_UndoRemovesLatestSubmission(t *testing.T) {
	ctx := context.Background()
	sess, runner := newTestSession(t)

	_, err := sess.Submit(ctx, "int f() { return 1; }")
	require.NoError(t, err)
	_, err = sess.Submit(ctx, "f();")
	require.NoError(t, err)

	removed, err := sess.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, removed)
	assert.Equal(t, []ir.TxID{"tx-1"}, owners(sess.Engine().Entries()))
	assert.NotContains(t, sess.Engine().Buffer(), "__offload_stmt_2")
	assert.Equal(t, 3, runner.Runs(), "undo recompiles the remaining buffer")

	removed, err = sess.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, removed)
	assert.Empty(t, sess.Engine().Entries())

	_, err = sess.Undo(ctx)
	assert.ErrorIs(t, err, errNothingToUndo)
}

func TestSession_ContinuationSharesTransaction(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)

	tx, err := sess.Submit(ctx, "void g() {")
	assert.True(t, engine.IsIncomplete(err))
	assert.True(t, sess.Pending())
	assert.Equal(t, ir.TxID("tx-1"), tx)

	tx, err = sess.Submit(ctx, "}")
	require.NoError(t, err)
	assert.Equal(t, ir.TxID("tx-1"), tx)
	assert.False(t, sess.Pending())

	entries := sess.Engine().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ir.KindDecl, entries[0].Kind)
	assert.Contains(t, entries[0].Body, "void g() {")

	tx, err = sess.Submit(ctx, "g();")
	require.NoError(t, err)
	assert.Equal(t, ir.TxID("tx-2"), tx)

	// One undo per submission, however many lines it spanned.
	_, err = sess.Undo(ctx)
	require.NoError(t, err)
	_, err = sess.Undo(ctx)
	require.NoError(t, err)
	_, err = sess.Undo(ctx)
	assert.ErrorIs(t, err, errNothingToUndo)
}

func TestSession_CompileFailureLeavesNothingToUndo(t *testing.T) {
	ctx := context.Background()
	sess, runner := newTestSession(t)

	runner.FailNext(1)
	_, err := sess.Submit(ctx, "x++;")
	assert.True(t, engine.IsCompileError(err))
	assert.Empty(t, sess.Engine().Entries())

	_, err = sess.Undo(ctx)
	assert.ErrorIs(t, err, errNothingToUndo)
}

func TestSession_Discard(t *testing.T) {
	ctx := context.Background()
	sess, _ := newTestSession(t)

	_, err := sess.Submit(ctx, "void g() {")
	require.True(t, engine.IsIncomplete(err))

	sess.Discard()
	assert.False(t, sess.Pending())

	tx, err := sess.Submit(ctx, "int h();")
	require.NoError(t, err)
	assert.Equal(t, ir.TxID("tx-2"), tx)
	require.Len(t, sess.Engine().Entries(), 1)
	assert.Equal(t, "int h();", sess.Engine().Entries()[0].Body)
}

func TestSession_CancelledContextStillCompiles(t *testing.T) {
	sess, runner := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sess.Submit(ctx, "int f() { return 1; }")
	require.NoError(t, err)
	_, err = sess.Submit(ctx, "f();")
	require.NoError(t, err)
	assert.Len(t, sess.Engine().Entries(), 2)

	_, err = sess.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, runner.Runs())
}
