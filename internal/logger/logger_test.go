package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, LevelFor(false, false))
	assert.Equal(t, slog.LevelDebug, LevelFor(true, false))
	assert.Equal(t, LevelTrace, LevelFor(true, true))
	assert.Equal(t, LevelTrace, LevelFor(false, true))
}

func TestConsoleLevels(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Writer: &buf, Level: slog.LevelDebug})
	require.NoError(t, err)
	defer closer.Close()

	log.Log(context.Background(), LevelTrace, "hidden")
	log.Debug("shown", "key", "Run")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "key=Run")
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Writer: &buf, Level: LevelTrace})
	require.NoError(t, err)
	log.Log(context.Background(), LevelTrace, "deep")
	assert.Contains(t, buf.String(), "level=TRACE")
}

func TestLogDir(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, logPrefix+"2000-01-01"+logSuffix)
	require.NoError(t, os.WriteFile(old, []byte("{}\n"), 0o644))
	unrelated := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(unrelated, nil, 0o644))

	var console bytes.Buffer
	log, closer, err := New(Options{Writer: &console, Level: slog.LevelInfo, LogDir: dir})
	require.NoError(t, err)
	log.Debug("file only")
	log.Info("both")
	require.NoError(t, closer.Close())

	assert.NoFileExists(t, old)
	assert.FileExists(t, unrelated)
	assert.NotContains(t, console.String(), "file only")

	today := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(today)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg":"file only"`)
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
