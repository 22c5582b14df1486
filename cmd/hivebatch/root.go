package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivebatch/internal/config"
	"github.com/joshuapare/hivebatch/internal/logger"
	"github.com/joshuapare/hivebatch/internal/runner"
)

var (
	// Global flags
	hiveFile    string
	hiveDir     string
	csvDir      string
	csvName     string
	dateFormat  string
	pluginDir   string
	configPath  string
	logDir      string
	metricsFile string
	recoverDel  bool
	noLogs      bool
	debug       bool
	trace       bool
	quiet       bool
)

var rootCmd = &cobra.Command{
	Use:   "hivebatch",
	Short: "Extract and search registry data in offline hive files",
	Long: `hivebatch applies batch documents (YAML rule sets) to offline Windows
registry hives, writing the matched keys and values to CSV, and searches hives
by key name, value name, value data, value slack, size or base64 content.

Hives are read with their transaction logs applied when dirty, and keys
recovered from free space are included and flagged as deleted.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&hiveFile, "file", "f", "", "Hive file to process")
	pf.StringVarP(&hiveDir, "dir", "d", "", "Directory to look for hives, recursively")
	pf.StringVar(&csvDir, "csv", "", "Directory to save CSV formatted results to")
	pf.StringVar(&csvName, "csvf", "", "File name to save CSV formatted results to")
	pf.StringVar(&dateFormat, "dt", "", "Custom date/time format for timestamps (default \"yyyy-MM-dd HH:mm:ss.fffffff\")")
	pf.StringVar(&pluginDir, "plugins", "", "Directory holding RegistryPlugin.*.so files (default \"Plugins\")")
	pf.StringVar(&configPath, "config", "", "Configuration file (default \"hivebatch.yml\" when present)")
	pf.StringVar(&logDir, "log-dir", "", "Also write JSON logs to a daily file in this directory")
	pf.StringVar(&metricsFile, "metrics-file", "", "Write run metrics in Prometheus textfile format")
	pf.BoolVar(&recoverDel, "recover", true, "Recover deleted keys and values")
	pf.BoolVar(&noLogs, "nl", false, "Process dirty hives without transaction logs")
	pf.BoolVar(&debug, "debug", false, "Show debug information during processing")
	pf.BoolVar(&trace, "trace", false, "Show trace information during processing")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress informational output")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// session is what every hive processing command needs.
type session struct {
	cfg   config.Config
	log   *slog.Logger
	run   *runner.Run
	close func()
}

// newSession merges the configuration layers, builds the logger and the
// run context. csvRequired makes --csv mandatory.
func newSession(cmd *cobra.Command, csvRequired bool) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(csvRequired); err != nil {
		return nil, err
	}

	level := logger.LevelFor(cfg.Debug, cfg.Trace)
	if quiet && !cfg.Debug && !cfg.Trace {
		level = slog.LevelWarn
	}
	log, closer, err := logger.New(logger.Options{Writer: os.Stderr, Level: level, LogDir: cfg.LogDir})
	if err != nil {
		return nil, fmt.Errorf("set up logging: %w", err)
	}
	log.Debug("configuration", "file", cfg.File, "dir", cfg.Directory, "csv", cfg.CSVDir,
		"recover", cfg.Recover, "no_logs", cfg.NoLogs, "plugins", cfg.PluginDir)

	run := runner.New(cfg, log, os.Stdout)
	return &session{
		cfg: cfg,
		log: log,
		run: run,
		close: func() {
			if err := run.Close(); err != nil {
				log.Error("closing run", "err", err)
			}
			_ = closer.Close()
		},
	}, nil
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	ov := config.Overrides{
		File:        hiveFile,
		Directory:   hiveDir,
		CSVDir:      csvDir,
		CSVName:     csvName,
		DateFormat:  dateFormat,
		PluginDir:   pluginDir,
		LogDir:      logDir,
		MetricsFile: metricsFile,
	}
	flags := cmd.Flags()
	for name, dst := range map[string]**bool{
		"recover": &ov.Recover,
		"nl":      &ov.NoLogs,
		"debug":   &ov.Debug,
		"trace":   &ov.Trace,
	} {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			if err != nil {
				return config.Config{}, err
			}
			*dst = &v
		}
	}
	return config.Loader{ConfigPath: configPath}.Load(ov)
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
