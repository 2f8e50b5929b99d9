package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listProfileJSON runs `rules --format json` and decodes the result.
func listProfileJSON(t *testing.T) RulesJSONOutput {
	t.Helper()

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--format", "json"})
	require.NoError(t, cmd.Execute())

	var result RulesJSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	return result
}

func TestRulesCreate(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"create",
		"--name", "Big move",
		"--expression", "ABS([change]) > 2",
		"--color", "#ff6f00",
		"--columns", "change",
	})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `Created rule "Big move"`)

	result := listProfileJSON(t)
	require.Equal(t, 3, result.Count.Total)

	created := result.Rules[2] // placed after the existing priorities
	assert.Equal(t, "Big move", created.Name)
	assert.Equal(t, 3, created.Priority)
	assert.True(t, created.Enabled)
	assert.Equal(t, "#ff6f00", created.Formatting.Style["color"])
	assert.Equal(t, []string{"change"}, created.Scope.ApplyToColumns)
}

func TestRulesCreate_RequiresExpression(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"create", "--name", "No expression"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--expression is required")
}

func TestRulesCreate_InvalidScope(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"create", "--expression", "[x] > 1", "--scope", "diagonal"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be cell or row")
}

func TestRulesCreate_JSON(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"create",
		"--name", "Halted",
		"--expression", `[status] == "halted"`,
		"--scope", "row", "--entire-row",
		"--format", "json",
	})

	err := cmd.Execute()
	require.NoError(t, err)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &created))
	assert.Equal(t, "Halted", created["name"])
	assert.Equal(t, true, created["enabled"])
	assert.Equal(t, float64(3), created["priority"])
}

func TestRulesCreate_DefaultHighlight(t *testing.T) {
	setupProject(t)

	// No style flags: the rule keeps the default highlight so it is
	// visible immediately.
	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"create", "--expression", "[change] == 0", "--format", "json"})
	require.NoError(t, cmd.Execute())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &created))
	assert.Equal(t, "New Rule", created["name"])

	formatting, ok := created["formatting"].(map[string]interface{})
	require.True(t, ok)
	style, ok := formatting["style"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, style["backgroundColor"])
}

func TestRulesDuplicate(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"duplicate", "neg"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `Duplicated rule "Negative red" as "Negative red (Copy)"`)

	result := listProfileJSON(t)
	require.Equal(t, 3, result.Count.Total)
	copied := result.Rules[2]
	assert.Equal(t, "Negative red (Copy)", copied.Name)
	assert.Equal(t, "[change] < 0", copied.Expression)
	assert.NotEqual(t, "neg", copied.ID)
}

func TestRulesDelete(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"delete", "pos"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `Deleted rule "Positive green" from profile "default"`)

	result := listProfileJSON(t)
	require.Equal(t, 1, result.Count.Total)
	assert.Equal(t, "neg", result.Rules[0].ID)
}

func TestRulesDelete_NotFound(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"delete", "no-such-rule"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRulesValidate_AllValid(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"validate"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All 2 rules are valid")
}

func TestRulesValidate_Invalid(t *testing.T) {
	dir := setupProject(t)

	// A rule with no formatting effect and a non-positive priority. It is
	// complete enough to survive the tolerant store, but fails validation.
	profile := `[
  {"id": "neg", "name": "Negative red", "enabled": true, "priority": 1,
   "expression": "[change] < 0",
   "formatting": {"style": {"color": "#c62828"}},
   "scope": {"target": "cell"}},
  {"id": "bad", "name": "Broken", "enabled": true, "priority": 0,
   "expression": "[change] >= 0",
   "formatting": {},
   "scope": {"target": "cell"}}
]`
	path := filepath.Join(dir, ".gridstyle", "profiles", "default.json")
	require.NoError(t, os.WriteFile(path, []byte(profile), 0o644))

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"validate"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 rules failed validation")
	assert.Contains(t, buf.String(), "rule has no formatting effect")
}

func TestRulesValidate_JSON(t *testing.T) {
	setupProject(t)

	cmd := NewRulesCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"validate", "--format", "json"})

	err := cmd.Execute()
	require.NoError(t, err)

	var result RuleValidationJSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "default", result.Profile)
	assert.Equal(t, 2, result.Valid)
	assert.Equal(t, 0, result.Invalid)
	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].IsValid)
}

func TestBuildStyle(t *testing.T) {
	t.Run("empty options", func(t *testing.T) {
		assert.Empty(t, buildStyle(&RuleCreateOptions{}))
	})

	t.Run("all flags", func(t *testing.T) {
		style := buildStyle(&RuleCreateOptions{
			Background: "#000",
			Color:      "#fff",
			Bold:       true,
			Italic:     true,
			Underline:  true,
		})
		assert.Equal(t, "#000", style["backgroundColor"])
		assert.Equal(t, "#fff", style["color"])
		assert.Equal(t, "bold", style["fontWeight"])
		assert.Equal(t, "italic", style["fontStyle"])
		assert.Equal(t, "underline", style["textDecoration"])
	})
}
