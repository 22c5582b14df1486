// Package batch applies a rule set to one hive, dispatching matched keys to
// plugins or flattening their values into output rows.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joshuapare/hivebatch/internal/logger"
	"github.com/joshuapare/hivebatch/internal/match"
	"github.com/joshuapare/hivebatch/internal/output"
	"github.com/joshuapare/hivebatch/internal/plugin"
	"github.com/joshuapare/hivebatch/internal/rules"
	"github.com/joshuapare/hivebatch/pkg/hive"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// Sink receives rows in emission order.
type Sink interface {
	Append(output.Row)
}

// DetailWriter persists plugin entries to a per-plugin detail file and
// returns its path.
type DetailWriter interface {
	PluginFile(pluginName, hivePath string, entries []plugin.Entry) (string, error)
}

// Stats counts what one Run did.
type Stats struct {
	Rules        int // rules whose hive type matched
	Skipped      int // rules skipped for a missing key or value
	Keys         int // keys dispatched, including recursion
	Rows         int
	PluginRows   int
	PluginErrors int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Rules += o.Rules
	s.Skipped += o.Skipped
	s.Keys += o.Keys
	s.Rows += o.Rows
	s.PluginRows += o.PluginRows
	s.PluginErrors += o.PluginErrors
}

// Engine runs rule sets. It holds no per-hive state and may be reused for
// every hive of a run.
type Engine struct {
	reg     *plugin.Registry
	sink    Sink
	details DetailWriter
	log     *slog.Logger
}

// New returns an engine writing rows to sink and plugin detail files to
// details. A nil details disables detail files.
func New(reg *plugin.Registry, sink Sink, details DetailWriter, log *slog.Logger) *Engine {
	return &Engine{reg: reg, sink: sink, details: details, log: log}
}

// Run applies every rule of rs that targets h's hive type.
func (e *Engine) Run(rs *rules.RuleSet, h *hive.Hive) (Stats, error) {
	var st Stats
	if _, err := h.Root(); err != nil {
		return st, fmt.Errorf("read %s: %w", h.Path(), err)
	}
	for _, r := range rs.Keys {
		if r.HiveType != h.Type() {
			e.log.Debug("skipping rule, hive type differs",
				"key_path", r.KeyPath, "rule_hive_type", r.HiveType, "hive_type", h.Type())
			continue
		}
		st.Rules++
		e.log.Debug("processing rule", "key_path", r.KeyPath, "rule", r.Line)
		e.log.Log(context.Background(), logger.LevelTrace, r.Summary())

		keys, err := e.resolve(h, r)
		if err != nil {
			return st, err
		}
		if len(keys) == 0 {
			e.log.Warn("key not found", "key_path", r.KeyPath, "hive", h.Path())
			st.Skipped++
			continue
		}
		for _, k := range keys {
			if r.ValueName != "" {
				if _, ok := k.Value(r.ValueName); !ok {
					e.log.Warn("value not found", "value_name", r.ValueName, "key_path", k.Path(), "hive", h.Path())
					st.Skipped++
					continue
				}
				e.log.Info("found key and value", "key_path", k.Path(), "value_name", r.ValueName)
			} else {
				e.log.Info("found key", "key_path", k.Path())
			}
			e.dump(h, r, k, &st)
		}
	}
	return st, nil
}

// resolve returns the keys a rule addresses. A wildcard path selects every
// key whose path matches it, in tree order.
func (e *Engine) resolve(h *hive.Hive, r rules.Rule) ([]*hive.Key, error) {
	if !match.HasWildcard(r.KeyPath) {
		k, err := h.GetKey(r.KeyPath)
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*hive.Key{k}, nil
	}
	var keys []*hive.Key
	err := h.Walk(func(k *hive.Key) error {
		if k.Parent() != nil && match.Path(r.KeyPath, k.Path()) {
			keys = append(keys, k)
		}
		return nil
	})
	return keys, err
}

// dump emits rows for k and, for recursive rules, its descendants. The walk
// is pre-order over an explicit stack; plugins are selected again for every
// visited key.
func (e *Engine) dump(h *hive.Hive, r rules.Rule, start *hive.Key, st *Stats) {
	stack := []*hive.Key{start}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		st.Keys++

		e.log.Debug("batch dumping key", "key_path", k.Path(), "hive", h.Path(), "recursive", r.Recursive)
		base := baseRow(h, r, k)

		if plugins := e.reg.SelectFor(k.Path(), r.ValueName); len(plugins) > 0 {
			for _, p := range plugins {
				e.runPlugin(h, p, k, base, st)
			}
			continue
		}

		if r.ValueName != "" {
			if v, ok := k.Value(r.ValueName); ok {
				e.emit(output.WithValue(base, v), st)
			}
			continue
		}

		for _, v := range k.Values() {
			e.emit(output.WithValue(base, v), st)
		}
		if r.Recursive {
			subs := k.SubKeys()
			for i := len(subs) - 1; i >= 0; i-- {
				stack = append(stack, subs[i])
			}
		}
	}
}

func (e *Engine) emit(row output.Row, st *Stats) {
	e.sink.Append(row)
	st.Rows++
}

func (e *Engine) runPlugin(h *hive.Hive, p plugin.Plugin, k *hive.Key, base output.Row, st *Stats) {
	res, err := process(p, k)
	if err != nil {
		st.PluginErrors++
		e.log.Error("plugin failed", "plugin", p.Name(), "key_path", k.Path(), "err", err)
		return
	}
	if len(res.Errors) > 0 {
		st.PluginErrors += len(res.Errors)
		e.log.Warn("plugin reported errors", "plugin", p.Name(), "key_path", k.Path(), "errors", strings.Join(res.Errors, ", "))
	}

	var detail string
	if e.details != nil && len(res.Entries) > 0 {
		detail, err = e.details.PluginFile(p.Name(), h.Path(), res.Entries)
		if err != nil {
			e.log.Error("write plugin detail file", "plugin", p.Name(), "err", err)
		}
	}
	for _, ent := range res.Entries {
		row := base
		row.ValueName = ent.ValueName()
		row.ValueType = output.PluginValueType
		row.ValueData, row.ValueData2, row.ValueData3 = ent.Data()
		row.PluginDetailFile = detail
		e.emit(row, st)
		st.PluginRows++
	}
}

// process calls p, turning a panic into an error.
func process(p plugin.Plugin, k *hive.Key) (res plugin.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin %s panicked: %v", p.Name(), rec)
		}
	}()
	return p.ProcessValues(k)
}

func baseRow(h *hive.Hive, r rules.Rule, k *hive.Key) output.Row {
	return output.Row{
		Deleted:            k.Deleted(),
		Description:        r.Description,
		Category:           r.Category,
		Comment:            r.Comment,
		HivePath:           h.Path(),
		HiveType:           r.HiveType.String(),
		KeyPath:            r.KeyPath,
		LastWriteTimestamp: k.LastWrite(),
		Recursive:          r.Recursive,
		SourceKeyPath:      k.Path(),
	}
}
