package runner_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/internal/config"
	"github.com/joshuapare/hivebatch/internal/runner"
	"github.com/joshuapare/hivebatch/internal/testutil"
)

func TestDumpKey(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteHive(t, dir, "SOFTWARE", testutil.SampleSoftware())
	r, out := newRun(t, config.Config{File: path, Recover: true})

	h, err := r.Open(path)
	require.NoError(t, err)
	defer h.Close()

	jsonDir := filepath.Join(dir, "json")
	require.NoError(t, r.DumpKey(h, runner.KeyRequest{KeyName: runPath, JSONDir: jsonDir}))

	text := out.String()
	assert.Contains(t, text, `Key path: 'Microsoft\Windows\CurrentVersion\Run'`)
	assert.Contains(t, text, "Last write time: 2021-03-04 05:06:07.123456")
	assert.Contains(t, text, "Subkey count: 2")
	assert.Contains(t, text, "Values count: 3")
	assert.Contains(t, text, "Subkey #1 (DELETED)")
	assert.Contains(t, text, "Name: Flags (REG_DWORD)")
	assert.Contains(t, text, "Data: 42")

	b, err := os.ReadFile(filepath.Join(jsonDir, "Run.json"))
	require.NoError(t, err)
	var exported runner.KeyJSON
	require.NoError(t, json.Unmarshal(b, &exported))
	assert.Equal(t, runPath, exported.Path)
	require.Len(t, exported.SubKeys, 2)
	assert.Equal(t, "Nested", exported.SubKeys[0].Name)
	assert.Equal(t, "Inner", exported.SubKeys[0].Values[0].Name)
	assert.True(t, exported.SubKeys[1].Deleted)
}

func TestDumpValueSaveTo(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteHive(t, dir, "SOFTWARE", testutil.SampleSoftware())
	r, out := newRun(t, config.Config{File: path})

	h, err := r.Open(path)
	require.NoError(t, err)
	defer h.Close()

	saveTo := filepath.Join(dir, "dump", "blob.bin")
	require.NoError(t, r.DumpKey(h, runner.KeyRequest{KeyName: `Classes\.txt`, ValueName: "blob", SaveTo: saveTo}))
	assert.Contains(t, out.String(), "Value name: 'Blob' (REG_BINARY)")
	assert.Contains(t, out.String(), "Value data: DE-AD-BE-EF-01-02")

	b, err := os.ReadFile(saveTo)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02}, b)
}

func TestDumpKeyMissing(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteHive(t, dir, "SOFTWARE", testutil.SampleSoftware())
	r, out := newRun(t, config.Config{File: path})

	h, err := r.Open(path)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, r.DumpKey(h, runner.KeyRequest{KeyName: `No\Such`}))
	require.NoError(t, r.DumpKey(h, runner.KeyRequest{KeyName: runPath, ValueName: "nope"}))
	assert.Empty(t, out.String())
}
