package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSchema(t *testing.T) {
	out, err := execute(t, "validate", socialSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ schema valid")
	assert.Contains(t, out, "visits")
	assert.Contains(t, out, "sort=[age] ASC")
	assert.Contains(t, out, "indexes=[followsByTime]")
	assert.NotContains(t, out, "~exists")
	assert.NotContains(t, out, "follows#", "index names are listed without their type")
}

func TestValidateSchemaJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", socialSchema)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)

	byName := make(map[string]TypeSummary)
	for _, ts := range resp.Data.Types {
		byName[ts.Name] = ts
	}
	require.Contains(t, byName, "speaks")
	assert.Equal(t, []string{"lang", "weight"}, byName["speaks"].SortKey)
	assert.Equal(t, "edge-label", byName["speaks"].Kind)
	require.Contains(t, byName, "tags")
	assert.Equal(t, "simple", byName["tags"].Multiplicity)
	assert.Equal(t, "string", byName["tags"].DataType)
	assert.NotContains(t, byName, "followsByTime", "indexes are listed under their type")
	assert.Equal(t, []string{"followsByTime"}, byName["follows"].Indexes)
}

func TestValidateInvalidSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`edgeLabels: knows: {multiplicity: "sometimes"}`+"\n"), 0644))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SCHEMA]")
}

func TestValidateMissingFile(t *testing.T) {
	out, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "schema file not found")
}
