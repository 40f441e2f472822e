package commands //nolint:testpackage // tests drive the unexported command constructors.

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// seedTree inserts key=key*10 for every key into a fresh file.
func seedTree(t *testing.T, keys ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tree.bin")

	for _, key := range keys {
		// "--" lets negative keys through as arguments.
		res := execute(t, "-q", "insert", "--", path, key, key+"0")
		require.NoError(t, res.err)
	}

	return path
}

// tableValue returns the second cell of the first table row labelled label.
func tableValue(t *testing.T, out, label string) string {
	t.Helper()

	for line := range strings.SplitSeq(out, "\n") {
		cells := strings.Split(line, "│")
		if len(cells) >= 3 && strings.TrimSpace(cells[1]) == label {
			return strings.TrimSpace(cells[2])
		}
	}

	t.Fatalf("row %q not found in:\n%s", label, out)

	return ""
}

func TestStatsCommand(t *testing.T) {
	t.Parallel()

	path := seedTree(t, "5", "3", "8", "-1")

	res := execute(t, "stats", path)
	require.NoError(t, res.err)

	assert.Equal(t, "4", tableValue(t, res.stdout, "Nodes"))
	assert.Equal(t, "3", tableValue(t, res.stdout, "Depth"))
	assert.Equal(t, "-1", tableValue(t, res.stdout, "Min key"))
	assert.Equal(t, "8", tableValue(t, res.stdout, "Max key"))
	assert.Equal(t, "64 B", tableValue(t, res.stdout, "File size"))
	assert.Equal(t, "16 B", tableValue(t, res.stdout, "Record width"))
}

func TestStatsCommand_MissingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.bin")

	res := execute(t, "stats", path)
	require.NoError(t, res.err)

	assert.Equal(t, "0", tableValue(t, res.stdout, "Nodes"))
	assert.Equal(t, "0", tableValue(t, res.stdout, "Depth"))
	assert.Equal(t, "-", tableValue(t, res.stdout, "Min key"))
	assert.Equal(t, "-", tableValue(t, res.stdout, "File size"))
	assert.NoFileExists(t, path)
}

func TestDumpCommand_JSON(t *testing.T) {
	t.Parallel()

	path := seedTree(t, "5", "3", "8", "-1")

	res := execute(t, "dump", path, "--format", "json")
	require.NoError(t, res.err)

	var records []record

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	assert.Equal(t, []record{{-1, -10}, {3, 30}, {5, 50}, {8, 80}}, records)
}

func TestDumpCommand_YAML(t *testing.T) {
	t.Parallel()

	path := seedTree(t, "2", "1")

	res := execute(t, "dump", path, "-f", "yaml")
	require.NoError(t, res.err)

	var records []record

	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &records))
	assert.Equal(t, []record{{1, 10}, {2, 20}}, records)
}

func TestDumpCommand_Table(t *testing.T) {
	t.Parallel()

	path := seedTree(t, "2", "1", "3")

	res := execute(t, "dump", path)
	require.NoError(t, res.err)

	out := strings.ToLower(res.stdout)
	assert.Contains(t, out, "key")
	assert.Contains(t, out, "total: 3 records")
	assert.Less(t, strings.Index(out, "10"), strings.Index(out, "30"))
}

func TestDumpCommand_EmptyTree(t *testing.T) {
	t.Parallel()

	res := execute(t, "dump", filepath.Join(t.TempDir(), "none.bin"), "--format", "json")
	require.NoError(t, res.err)
	assert.JSONEq(t, "[]", res.stdout)
}

func TestDumpCommand_UnknownFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tree.bin")

	res := execute(t, "dump", path, "--format", "xml")
	require.ErrorIs(t, res.err, ErrUnknownFormat)
	assert.Contains(t, res.err.Error(), `"xml"`)
	assert.Empty(t, res.stderr)
}
