// Package output accumulates batch rows for a run and writes them, together
// with the per-plugin detail files, as CSV.
package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshuapare/hivebatch/internal/plugin"
)

// Options configures where and how output is written.
type Options struct {
	// Dir receives the main CSV and plugin detail files.
	Dir string
	// CSVName overrides the main file name. Plugin files then derive their
	// names from it.
	CSVName string
	// DateFormat is a .NET style format for timestamps.
	DateFormat string
	// RunTime stamps the default file names.
	RunTime time.Time
}

// Aggregator is the run-scoped, append-only list of rows.
type Aggregator struct {
	opts  Options
	log   *slog.Logger
	rows  []Row
	files map[string]string
}

// New returns an empty aggregator.
func New(opts Options, log *slog.Logger) *Aggregator {
	if opts.DateFormat == "" {
		opts.DateFormat = DefaultDateFormat
	}
	if opts.RunTime.IsZero() {
		opts.RunTime = time.Now().UTC()
	}
	return &Aggregator{opts: opts, log: log, files: make(map[string]string)}
}

// Append adds r. Rows are never modified after they are appended.
func (a *Aggregator) Append(r Row) {
	a.rows = append(a.rows, r)
}

// Rows returns the rows in append order.
func (a *Aggregator) Rows() []Row { return a.rows }

// Len returns the number of rows.
func (a *Aggregator) Len() int { return len(a.rows) }

// RunStamp returns the timestamp prefix used in default file names.
func (a *Aggregator) RunStamp() string {
	return FormatTime(a.opts.RunTime, RunTimestampFormat)
}

// MainFileName returns the name of the main CSV for the batch document at
// batchPath.
func (a *Aggregator) MainFileName(batchPath string) string {
	if a.opts.CSVName != "" {
		return filepath.Base(a.opts.CSVName)
	}
	base := strings.TrimSuffix(filepath.Base(batchPath), filepath.Ext(batchPath))
	return fmt.Sprintf("%s_RECmd_Batch_%s_Output.csv", a.RunStamp(), base)
}

// Flush writes every row to dir/name with a header line, creating dir when
// needed, and returns the path written.
func (a *Aggregator) Flush(dir, name string) (string, error) {
	if err := ensureDir(dir, a.log); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		f.Close()
		return "", err
	}
	for _, r := range a.rows {
		if err := w.Write(r.Record(a.opts.DateFormat)); err != nil {
			f.Close()
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// PluginFileName returns the detail file name for a plugin and hive.
func (a *Aggregator) PluginFileName(pluginName, hivePath string) string {
	if a.opts.CSVName != "" {
		base := filepath.Base(a.opts.CSVName)
		ext := filepath.Ext(base)
		return fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), pluginName, ext)
	}
	return fmt.Sprintf("%s_%s_%s.csv", a.RunStamp(), pluginName, sanitizeHivePath(hivePath))
}

// PluginFile appends entries to the plugin's detail file, writing the header
// when the file is created. Key path and value name are always the first two
// columns. It returns the file path, or "" when entries is empty.
func (a *Aggregator) PluginFile(pluginName, hivePath string, entries []plugin.Entry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := ensureDir(a.opts.Dir, a.log); err != nil {
		return "", err
	}
	path := filepath.Join(a.opts.Dir, a.PluginFileName(pluginName, hivePath))

	_, statErr := os.Stat(path)
	exists := statErr == nil
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open plugin file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if !exists {
		header := append([]string{"KeyPath", "ValueName"}, entries[0].Columns()...)
		if err := w.Write(header); err != nil {
			return "", err
		}
	}
	for _, e := range entries {
		rec := append([]string{e.KeyPath(), e.ValueName()}, e.Record()...)
		if err := w.Write(rec); err != nil {
			return "", fmt.Errorf("write plugin file %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write plugin file %s: %w", path, err)
	}
	a.files[pluginName] = path
	return path, nil
}

// PluginFiles returns the detail file written for each plugin name.
func (a *Aggregator) PluginFiles() map[string]string { return a.files }

func ensureDir(dir string, log *slog.Logger) error {
	if dir == "" {
		return nil
	}
	_, err := os.Stat(dir)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	log.Warn("output directory does not exist, creating it", "dir", dir)
	return os.MkdirAll(dir, 0o755)
}

func sanitizeHivePath(p string) string {
	r := strings.NewReplacer(":", "", `\`, "_", "/", "_")
	return strings.Trim(r.Replace(p), "_")
}
