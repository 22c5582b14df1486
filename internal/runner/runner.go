// Package runner owns the state of one hivebatch invocation: the plugin
// registry, the row aggregator, the highlighter, metrics and the run
// timestamp. Hives are processed one at a time, in input order, and a
// failing hive never stops the run.
package runner

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshuapare/hivebatch/internal/config"
	"github.com/joshuapare/hivebatch/internal/highlight"
	"github.com/joshuapare/hivebatch/internal/metrics"
	"github.com/joshuapare/hivebatch/internal/output"
	"github.com/joshuapare/hivebatch/internal/plugin"
	"github.com/joshuapare/hivebatch/internal/translog"
	"github.com/joshuapare/hivebatch/pkg/hive"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// skipExtensions are never treated as hives in directory mode.
var skipExtensions = map[string]bool{
	".log1": true,
	".log2": true,
	".dll":  true,
	".csv":  true,
	".exe":  true,
	".txt":  true,
	".ini":  true,
}

// ErrDirtyNoLogs is returned for a dirty hive without transaction logs when
// logs are required.
var ErrDirtyNoLogs = errors.New("hive is dirty and no transaction logs were found; use --nl to process it anyway")

// Summary accumulates results across the hives of a run.
type Summary struct {
	Files         int
	Failed        int
	HivesWithHits int
	Hits          int
	Rows          int
	Elapsed       time.Duration
	OutputFile    string
}

// Run is the context of one invocation.
type Run struct {
	cfg config.Config
	log *slog.Logger
	out io.Writer

	Registry  *plugin.Registry
	Output    *output.Aggregator
	Highlight *highlight.Highlighter
	Metrics   *metrics.Metrics
	Started   time.Time
}

// New builds the run context. Plugins are loaded from cfg.PluginDir when it
// exists. Console output for search results goes to out.
func New(cfg config.Config, log *slog.Logger, out io.Writer) *Run {
	now := time.Now().UTC()
	r := &Run{
		cfg:       cfg,
		log:       log,
		out:       out,
		Registry:  plugin.NewRegistry(log),
		Highlight: highlight.New(highlight.MatchStyle),
		Metrics:   metrics.New(),
		Started:   now,
	}
	r.Output = output.New(output.Options{
		Dir:        cfg.CSVDir,
		CSVName:    cfg.CSVName,
		DateFormat: cfg.DateFormat,
		RunTime:    now,
	}, log)

	if cfg.PluginDir != "" {
		if fi, err := os.Stat(cfg.PluginDir); err == nil && fi.IsDir() {
			if _, err := r.Registry.LoadDir(cfg.PluginDir); err != nil {
				log.Error("loading plugins", "dir", cfg.PluginDir, "err", err)
			}
		} else {
			log.Debug("plugin directory not found", "dir", cfg.PluginDir)
		}
	}
	return r
}

// Close writes the metrics file when one is configured.
func (r *Run) Close() error {
	if r.cfg.MetricsFile == "" {
		return nil
	}
	if err := r.Metrics.WriteFile(r.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	r.log.Debug("metrics written", "path", r.cfg.MetricsFile)
	return nil
}

// Hives returns the files to process: the configured file, or every hive
// below the configured directory.
func (r *Run) Hives() ([]string, error) {
	if r.cfg.File != "" {
		return []string{r.cfg.File}, nil
	}
	return Discover(r.cfg.Directory, r.log)
}

// Discover walks dir and returns, in lexical order, every file that is not
// a known non-hive extension and starts with a regf signature.
func Discover(dir string, log *slog.Logger) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable path", "path", path, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if skipExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if !hive.IsHiveFile(path) {
			log.Debug("skipping non-hive file", "path", path)
			return nil
		}
		out = append(out, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	log.Info("hives found", "dir", dir, "count", len(out))
	return out, nil
}

// Open opens a hive and deals with a dirty base block. Logs next to the hive
// are replayed unless --nl is set; without logs a dirty hive is refused
// unless --nl is set.
func (r *Run) Open(path string) (*hive.Hive, error) {
	h, err := hive.Open(path, hive.Options{RecoverDeleted: r.cfg.Recover})
	if err != nil {
		return nil, err
	}
	if h.Dirty() {
		if err := r.cleanDirty(h); err != nil {
			_ = h.Close()
			return nil, err
		}
	}

	// Parsing happens here, after any replay, so the tree reflects the logs.
	deleted, err := h.DeletedKeys()
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	r.log.Debug("hive opened", "hive", path, "type", h.Type(), "version", h.Version(),
		"embedded_name", h.EmbeddedName(), "deleted_keys", deleted)
	return h, nil
}

func (r *Run) cleanDirty(h *hive.Hive) error {
	path := h.Path()
	logs, err := translog.FindLogs(path)
	if err != nil {
		r.log.Warn("searching for transaction logs", "hive", path, "err", err)
	}
	switch {
	case r.cfg.NoLogs:
		r.log.Warn("hive is dirty, processing without transaction logs", "hive", path)
	case len(logs) == 0:
		return ErrDirtyNoLogs
	default:
		res, err := h.ReplayLogs(logs)
		if err != nil {
			return fmt.Errorf("replay logs: %w", err)
		}
		r.log.Info("transaction logs replayed", "hive", path, "logs", len(logs),
			"applied", res.Applied, "skipped", res.Skipped, "sequence", res.Sequence)
	}
	return nil
}

// Each opens every hive in turn and calls fn with it. Open failures, errors
// and panics from fn are logged and the next hive is processed.
func (r *Run) Each(hives []string, fn func(h *hive.Hive) error) Summary {
	var sum Summary
	for _, path := range hives {
		sum.Files++
		start := time.Now()
		r.log.Info("processing hive", "hive", path)

		outcome := "ok"
		h, err := r.Open(path)
		switch {
		case errors.Is(err, ErrDirtyNoLogs):
			outcome = "skipped"
			sum.Failed++
			r.log.Error("skipping hive", "hive", path, "err", err)
		case err != nil:
			outcome = "failed"
			sum.Failed++
			r.log.Error("could not open hive", "hive", path, "err", err, "kind", errKind(err))
		default:
			if err := safeCall(fn, h); err != nil {
				outcome = "failed"
				sum.Failed++
				r.log.Error("there was an error processing hive", "hive", path, "err", err)
			}
			for _, p := range h.Problems() {
				r.log.Debug("hive problem", "hive", path, "problem", p)
			}
			_ = h.Close()
		}

		d := time.Since(start)
		sum.Elapsed += d
		r.Metrics.HiveDone(outcome, d)
	}
	return sum
}

func safeCall(fn func(*hive.Hive) error, h *hive.Hive) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(h)
}

func errKind(err error) string {
	var te *types.Error
	if !errors.As(err, &te) {
		return "io"
	}
	switch te.Kind {
	case types.ErrKindFormat:
		return "format"
	case types.ErrKindCorrupt:
		return "corrupt"
	case types.ErrKindUnsupported:
		return "unsupported"
	case types.ErrKindNotFound:
		return "not found"
	case types.ErrKindState:
		return "state"
	}
	return "unknown"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
