// Package config merges hivebatch settings from defaults, an optional YAML
// file, HIVEBATCH_* environment variables and command line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshuapare/hivebatch/internal/output"
)

const (
	DefaultConfigPath = "hivebatch.yml"

	envFile        = "HIVEBATCH_FILE"
	envDirectory   = "HIVEBATCH_DIRECTORY"
	envCSVDir      = "HIVEBATCH_CSV_DIR"
	envCSVName     = "HIVEBATCH_CSV_NAME"
	envDateFormat  = "HIVEBATCH_DATE_FORMAT"
	envPluginDir   = "HIVEBATCH_PLUGIN_DIR"
	envRecover     = "HIVEBATCH_RECOVER"
	envNoLogs      = "HIVEBATCH_NO_LOGS"
	envDebug       = "HIVEBATCH_DEBUG"
	envTrace       = "HIVEBATCH_TRACE"
	envLogDir      = "HIVEBATCH_LOG_DIR"
	envMetricsFile = "HIVEBATCH_METRICS_FILE"
)

// Loader merges configuration coming from files, environment variables and
// CLI flags.
type Loader struct {
	ConfigPath string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// Config is the fully merged run configuration.
type Config struct {
	File      string
	Directory string

	CSVDir     string
	CSVName    string
	DateFormat string
	PluginDir  string

	Recover bool
	NoLogs  bool

	Debug       bool
	Trace       bool
	LogDir      string
	MetricsFile string
}

// Overrides captures values from one layer. Zero values and nil pointers
// leave the lower layer in place.
type Overrides struct {
	File        string
	Directory   string
	CSVDir      string
	CSVName     string
	DateFormat  string
	PluginDir   string
	Recover     *bool
	NoLogs      *bool
	Debug       *bool
	Trace       *bool
	LogDir      string
	MetricsFile string
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		DateFormat: output.DefaultDateFormat,
		PluginDir:  "Plugins",
		Recover:    true,
	}
}

// Load resolves the final configuration. A missing file at the default
// path is not an error; an explicitly named one is.
func (l Loader) Load(flags Overrides) (Config, error) {
	cfg := Default()

	path := l.ConfigPath
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath
	}
	fileOv, err := loadFromFile(path)
	switch {
	case err == nil:
		cfg.apply(fileOv)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	getenv := l.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	envOv, err := overridesFromEnv(getenv)
	if err != nil {
		return cfg, err
	}
	cfg.apply(envOv)
	cfg.apply(flags)
	return cfg, nil
}

// Validate checks that a hive source was given and, when csvRequired, an
// output directory.
func (c Config) Validate(csvRequired bool) error {
	if c.File == "" && c.Directory == "" {
		return errors.New("either a hive file (-f) or a directory (-d) is required")
	}
	if c.File != "" && c.Directory != "" {
		return errors.New("-f and -d are mutually exclusive")
	}
	if csvRequired && c.CSVDir == "" {
		return errors.New("--csv is required for batch processing")
	}
	if c.File != "" {
		if _, err := os.Stat(c.File); err != nil {
			return fmt.Errorf("hive file: %w", err)
		}
	}
	if c.Directory != "" {
		fi, err := os.Stat(c.Directory)
		if err != nil {
			return fmt.Errorf("directory: %w", err)
		}
		if !fi.IsDir() {
			return fmt.Errorf("%s is not a directory", c.Directory)
		}
	}
	return nil
}

func (c *Config) apply(src Overrides) {
	setString(&c.File, src.File)
	setString(&c.Directory, src.Directory)
	setString(&c.CSVDir, src.CSVDir)
	setString(&c.CSVName, src.CSVName)
	setString(&c.DateFormat, src.DateFormat)
	setString(&c.PluginDir, src.PluginDir)
	setString(&c.LogDir, src.LogDir)
	setString(&c.MetricsFile, src.MetricsFile)
	setBool(&c.Recover, src.Recover)
	setBool(&c.NoLogs, src.NoLogs)
	setBool(&c.Debug, src.Debug)
	setBool(&c.Trace, src.Trace)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	type rawConfig struct {
		CSVDir      string `yaml:"csvDir"`
		CSVName     string `yaml:"csvName"`
		DateFormat  string `yaml:"dateFormat"`
		PluginDir   string `yaml:"pluginDir"`
		Recover     *bool  `yaml:"recover"`
		NoLogs      *bool  `yaml:"noLogs"`
		Debug       *bool  `yaml:"debug"`
		Trace       *bool  `yaml:"trace"`
		LogDir      string `yaml:"logDir"`
		MetricsFile string `yaml:"metricsFile"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}
	return Overrides{
		CSVDir:      raw.CSVDir,
		CSVName:     raw.CSVName,
		DateFormat:  raw.DateFormat,
		PluginDir:   raw.PluginDir,
		Recover:     raw.Recover,
		NoLogs:      raw.NoLogs,
		Debug:       raw.Debug,
		Trace:       raw.Trace,
		LogDir:      raw.LogDir,
		MetricsFile: raw.MetricsFile,
	}, nil
}

func overridesFromEnv(getenv func(string) string) (Overrides, error) {
	ov := Overrides{
		File:        getenv(envFile),
		Directory:   getenv(envDirectory),
		CSVDir:      getenv(envCSVDir),
		CSVName:     getenv(envCSVName),
		DateFormat:  getenv(envDateFormat),
		PluginDir:   getenv(envPluginDir),
		LogDir:      getenv(envLogDir),
		MetricsFile: getenv(envMetricsFile),
	}
	for name, dst := range map[string]**bool{
		envRecover: &ov.Recover,
		envNoLogs:  &ov.NoLogs,
		envDebug:   &ov.Debug,
		envTrace:   &ov.Trace,
	} {
		v := strings.TrimSpace(getenv(name))
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ov, fmt.Errorf("%s: %w", name, err)
		}
		*dst = &b
	}
	return ov, nil
}
