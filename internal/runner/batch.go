package runner

import (
	"fmt"

	"github.com/joshuapare/hivebatch/internal/batch"
	"github.com/joshuapare/hivebatch/internal/rules"
	"github.com/joshuapare/hivebatch/pkg/hive"
)

// Batch applies rs to every hive and writes the main CSV when rows were
// produced. batchPath names the default output file.
func (r *Run) Batch(rs *rules.RuleSet, batchPath string, hives []string) (Summary, error) {
	eng := batch.New(r.Registry, r.Output, r.Output, r.log)

	var total batch.Stats
	sum := r.Each(hives, func(h *hive.Hive) error {
		st, err := eng.Run(rs, h)
		total.Add(st)
		r.Metrics.AddRows(st.Rows-st.PluginRows, st.PluginRows)
		r.Metrics.AddPluginErrors(st.PluginErrors)
		r.Metrics.AddSkippedRules(st.Skipped)
		return err
	})
	sum.Rows = r.Output.Len()

	r.log.Debug("batch totals", "rules", total.Rules, "skipped", total.Skipped, "keys", total.Keys,
		"plugin_rows", total.PluginRows, "plugin_errors", total.PluginErrors)

	if sum.Rows == 0 {
		r.log.Info("no key/value pairs found", "files", sum.Files)
		return sum, nil
	}

	r.log.Info(fmt.Sprintf("Found %s across %s", plural(sum.Rows, "key/value pair"), plural(sum.Files, "file")))
	r.log.Info(fmt.Sprintf("Total search time: %.3f seconds", sum.Elapsed.Seconds()))

	path, err := r.Output.Flush(r.cfg.CSVDir, r.Output.MainFileName(batchPath))
	if err != nil {
		return sum, fmt.Errorf("save batch output: %w", err)
	}
	sum.OutputFile = path
	r.log.Info("saved batch mode CSV file", "path", path)
	for name, detail := range r.Output.PluginFiles() {
		r.log.Info("saved plugin detail file", "plugin", name, "path", detail)
	}
	return sum, nil
}
