package device

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ctx := context.Background()

	var out bytes.Buffer
	err := ExecRunner{}.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo ok"}, Stdout: &out})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out.String())

	err = ExecRunner{}.Run(ctx, Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	var exit *ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 3, exit.Code)
	assert.Equal(t, "sh exited with status 3", exit.Error())
}

func TestExecRunnerMissingBinary(t *testing.T) {
	err := ExecRunner{}.Run(context.Background(), Command{Name: "offload-no-such-compiler"})
	require.Error(t, err)

	var exit *ExitError
	assert.NotErrorAs(t, err, &exit)
}
