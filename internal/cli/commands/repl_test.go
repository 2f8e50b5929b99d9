package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridstack-labs/gridstyle/internal/config"
	"github.com/gridstack-labs/gridstyle/internal/engine"
	"github.com/gridstack-labs/gridstyle/internal/testutil"
)

// newReplTestEngine builds an engine over the test project, optionally
// with the feed loaded.
func newReplTestEngine(t *testing.T, withFeed bool) *engine.Engine {
	t.Helper()

	dir := setupProject(t)
	cfg := &config.Config{ProjectRoot: dir}
	if withFeed {
		cfg.FeedPath = "feed.csv"
	}
	cfg.ApplyDefaults()

	eng, err := engine.New(context.Background(), cfg, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	if withFeed {
		require.NoError(t, eng.EnsureFeed())
	}
	return eng
}

// newReplTestCommand returns a command with captured output buffers.
func newReplTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd, out, errOut
}

func TestHandleReplCommand_Help(t *testing.T) {
	eng := newReplTestEngine(t, true)
	cmd, out, _ := newReplTestCommand()
	row := 0

	handled := handleReplCommand(cmd, eng, ".help", &row)
	assert.True(t, handled)
	assert.Contains(t, out.String(), ".columns")
	assert.Contains(t, out.String(), ".quit / .exit")
}

func TestHandleReplCommand_Quit(t *testing.T) {
	eng := newReplTestEngine(t, true)
	cmd, out, _ := newReplTestCommand()
	row := 0

	assert.True(t, handleReplCommand(cmd, eng, ".quit", &row))
	assert.True(t, handleReplCommand(cmd, eng, ".exit", &row))
	assert.Empty(t, out.String())
}

func TestHandleReplCommand_Columns(t *testing.T) {
	eng := newReplTestEngine(t, true)
	cmd, out, _ := newReplTestCommand()
	row := 0

	handled := handleReplCommand(cmd, eng, ".columns", &row)
	assert.True(t, handled)

	output := out.String()
	assert.Contains(t, output, "[symbol] = AAPL")
	assert.Contains(t, output, "[change] = 1.5")
	assert.Contains(t, output, "[status] = open")
}

func TestHandleReplCommand_ColumnsNoFeed(t *testing.T) {
	eng := newReplTestEngine(t, false)
	cmd, out, _ := newReplTestCommand()
	row := 0

	handled := handleReplCommand(cmd, eng, ".columns", &row)
	assert.True(t, handled)
	assert.Contains(t, out.String(), "(no feed loaded)")
}

func TestHandleReplCommand_Row(t *testing.T) {
	eng := newReplTestEngine(t, true)

	t.Run("show current", func(t *testing.T) {
		cmd, out, _ := newReplTestCommand()
		row := 0
		handleReplCommand(cmd, eng, ".row", &row)
		assert.Contains(t, out.String(), "Current row: 0 of 3")
	})

	t.Run("switch row", func(t *testing.T) {
		cmd, out, _ := newReplTestCommand()
		row := 0
		handleReplCommand(cmd, eng, ".row 2", &row)
		assert.Equal(t, 2, row)
		assert.Contains(t, out.String(), "[symbol] = GME")
	})

	t.Run("out of range", func(t *testing.T) {
		cmd, _, errOut := newReplTestCommand()
		row := 1
		handleReplCommand(cmd, eng, ".row 99", &row)
		assert.Equal(t, 1, row, "row should be unchanged")
		assert.Contains(t, errOut.String(), "Invalid row (feed has 3 rows)")
	})
}

func TestHandleReplCommand_Rules(t *testing.T) {
	eng := newReplTestEngine(t, true)
	cmd, out, _ := newReplTestCommand()
	row := 0

	handled := handleReplCommand(cmd, eng, ".rules", &row)
	assert.True(t, handled)

	output := out.String()
	assert.Contains(t, output, "Negative red: [change] < 0")
	assert.Contains(t, output, "Positive green: [change] > 0")
}

func TestHandleReplCommand_Unknown(t *testing.T) {
	eng := newReplTestEngine(t, true)
	cmd, _, errOut := newReplTestCommand()
	row := 0

	handled := handleReplCommand(cmd, eng, ".frobnicate", &row)
	assert.True(t, handled)
	assert.Contains(t, errOut.String(), "Unknown command: .frobnicate")
}

func TestNewExprCompleter(t *testing.T) {
	eng := newReplTestEngine(t, true)

	completer := newExprCompleter(eng)
	require.NotNil(t, completer)

	// Field references, function names, and dot-commands
	children := completer.GetChildren()
	assert.GreaterOrEqual(t, len(children), 3+7)
}
