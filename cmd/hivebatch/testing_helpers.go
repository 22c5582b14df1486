package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/hivebatch/internal/runner"
	"github.com/joshuapare/hivebatch/internal/testutil"
)

// sampleHive writes the shared SOFTWARE test hive into dir.
func sampleHive(t *testing.T, dir string) string {
	t.Helper()
	return testutil.WriteHive(t, dir, "SOFTWARE", testutil.SampleSoftware())
}

// writeDoc writes a batch document into dir.
func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// resetFlags restores every package level flag to its default so commands
// can be executed more than once in a test binary.
func resetFlags() {
	hiveFile, hiveDir, csvDir, csvName, dateFormat = "", "", "", "", ""
	pluginDir, configPath, logDir, metricsFile = "", "", "", ""
	recoverDel, noLogs, debug, trace, quiet = true, false, false, false, true
	batchName = ""
	query = runner.Query{}
	keyReq = runner.KeyRequest{}
	pluginsJSON = false
	versionJSON = false
}

// execArgs runs the root command with args and captures stdout.
func execArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	rootCmd.SetArgs(args)
	return captureOutput(t, rootCmd.Execute)
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.Bytes()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return string(<-done), fnErr
}
