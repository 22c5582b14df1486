package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/internal/output"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hivebatch.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	l := Loader{ConfigPath: "", Getenv: envMap(nil)}
	t.Chdir(t.TempDir())

	cfg, err := l.Load(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, output.DefaultDateFormat, cfg.DateFormat)
	assert.True(t, cfg.Recover)
	assert.Equal(t, "Plugins", cfg.PluginDir)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, `
csvDir: from-file
dateFormat: yyyy
recover: false
debug: true
pluginDir: file-plugins
`)
	env := envMap(map[string]string{
		envCSVDir:  "from-env",
		envRecover: "true",
	})
	no := false
	cfg, err := Loader{ConfigPath: path, Getenv: env}.Load(Overrides{
		CSVDir: "from-flag",
		Debug:  &no,
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.CSVDir)
	assert.Equal(t, "yyyy", cfg.DateFormat)
	assert.True(t, cfg.Recover, "env overrides file")
	assert.False(t, cfg.Debug, "flag overrides file")
	assert.Equal(t, "file-plugins", cfg.PluginDir)
}

func TestLoadErrors(t *testing.T) {
	_, err := Loader{ConfigPath: filepath.Join(t.TempDir(), "missing.yml"), Getenv: envMap(nil)}.Load(Overrides{})
	assert.Error(t, err, "explicit config file must exist")

	_, err = Loader{ConfigPath: writeConfig(t, "csvDir: [\n"), Getenv: envMap(nil)}.Load(Overrides{})
	assert.Error(t, err)

	t.Chdir(t.TempDir())
	_, err = Loader{Getenv: envMap(map[string]string{envTrace: "maybe"})}.Load(Overrides{})
	assert.ErrorContains(t, err, envTrace)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "SYSTEM")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name    string
		cfg     Config
		csv     bool
		wantErr string
	}{
		{"no source", Config{}, false, "-f"},
		{"both sources", Config{File: file, Directory: dir}, false, "mutually exclusive"},
		{"batch without csv", Config{File: file}, true, "--csv"},
		{"missing file", Config{File: filepath.Join(dir, "nope")}, false, "hive file"},
		{"directory is file", Config{Directory: file}, false, "not a directory"},
		{"file ok", Config{File: file, CSVDir: dir}, true, ""},
		{"dir ok", Config{Directory: dir}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.csv)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
