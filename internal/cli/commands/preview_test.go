package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewCommand_Table(t *testing.T) {
	setupProject(t)

	cmd := NewPreviewCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--feed", "feed.csv"})

	err := cmd.Execute()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "GME")
	assert.Contains(t, out, "(3 rows)")
}

func TestPreviewCommand_NoFeed(t *testing.T) {
	setupProject(t)

	cmd := NewPreviewCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data feed configured")
}

func TestPreviewCommand_FeedFromEnv(t *testing.T) {
	setupProject(t)
	t.Setenv("GRIDSTYLE_FEED", "feed.csv")

	cmd := NewPreviewCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--limit", "1"})

	err := cmd.Execute()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "(1 of 3 rows)")
}

func TestPreviewCommand_JSON(t *testing.T) {
	setupProject(t)

	cmd := NewPreviewCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--feed", "feed.csv", "--format", "json"})

	err := cmd.Execute()
	require.NoError(t, err)

	var result GridJSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	require.Len(t, result.Columns, 3)
	require.Len(t, result.Rows, 3)

	// MSFT's change is negative, so the "Negative red" rule paints it.
	msftChange := result.Rows[1][1]
	assert.Equal(t, "-2", msftChange.Display)
	assert.Contains(t, msftChange.Classes, "gs-grid-neg")
	assert.Equal(t, "#c62828", msftChange.Style["color"])

	// The symbol column is outside the rule's scope.
	assert.Empty(t, result.Rows[1][0].Classes)
}

func TestPreviewCommand_CSV(t *testing.T) {
	setupProject(t)

	cmd := NewPreviewCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--feed", "feed.csv", "--format", "csv"})

	err := cmd.Execute()
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "symbol,change,status")
	assert.Contains(t, out, "GME,0,halted")
}
