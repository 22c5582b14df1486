// Package plugin defines the contract for key decoding plugins and the
// registry that selects them for a visited key.
//
// Plugins are linked in with Register from an init function, the way
// database/sql drivers are, or loaded at run time from shared objects named
// RegistryPlugin.*.so that export a symbol called Plugin.
package plugin

import (
	"sync"

	"github.com/joshuapare/hivebatch/pkg/hive"
)

// Plugin decodes the values of a key into structured entries.
type Plugin interface {
	// ID is a GUID that uniquely identifies the plugin.
	ID() string
	// Name is a short type name used in side-channel file names.
	Name() string
	// KeyPaths lists the patterns, relative to the hive root, the plugin
	// handles. A pattern may contain one "*".
	KeyPaths() []string
	// ValueName restricts the plugin to rules naming this value. Empty means
	// the plugin handles whole keys.
	ValueName() string
	// ProcessValues decodes key. It must not retain key after returning.
	ProcessValues(key *hive.Key) (Result, error)
}

// Entry is one decoded item.
type Entry interface {
	KeyPath() string
	ValueName() string
	// Data returns the three summary columns copied into the main output.
	Data() (string, string, string)
	// Columns names the plugin specific detail columns. Key path and value
	// name are always written first and are not part of Columns.
	Columns() []string
	// Record returns the detail values in Columns order.
	Record() []string
}

// Result is what a plugin produced for one key.
type Result struct {
	Entries []Entry
	Errors  []string
}

// Descriptor is the identifying metadata of a plugin.
type Descriptor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	KeyPaths  []string `json:"key_paths"`
	ValueName string   `json:"value_name,omitempty"`
}

// Describe returns p's descriptor.
func Describe(p Plugin) Descriptor {
	return Descriptor{
		ID:        p.ID(),
		Name:      p.Name(),
		KeyPaths:  append([]string(nil), p.KeyPaths()...),
		ValueName: p.ValueName(),
	}
}

// Field is one named detail column.
type Field struct {
	Name  string
	Value string
}

// SimpleEntry is an Entry built from plain strings. Detail fields, when
// present, are the detail file columns and the summary data columns stay
// out of that file. Without detail fields the summary columns are written
// instead.
type SimpleEntry struct {
	Path   string
	Value  string
	Data1  string
	Data2  string
	Data3  string
	Detail []Field
}

var _ Entry = SimpleEntry{}

func (e SimpleEntry) KeyPath() string   { return e.Path }
func (e SimpleEntry) ValueName() string { return e.Value }

func (e SimpleEntry) Data() (string, string, string) {
	return e.Data1, e.Data2, e.Data3
}

func (e SimpleEntry) Columns() []string {
	if len(e.Detail) == 0 {
		return []string{"ValueData", "ValueData2", "ValueData3"}
	}
	cols := make([]string, len(e.Detail))
	for i, f := range e.Detail {
		cols[i] = f.Name
	}
	return cols
}

func (e SimpleEntry) Record() []string {
	if len(e.Detail) == 0 {
		return []string{e.Data1, e.Data2, e.Data3}
	}
	rec := make([]string, len(e.Detail))
	for i, f := range e.Detail {
		rec[i] = f.Value
	}
	return rec
}

var (
	builtinMu sync.Mutex
	builtins  []Plugin
)

// Register makes a plugin available to every Registry created afterwards
// with NewRegistry. It is meant to be called from init and panics on nil.
func Register(p Plugin) {
	if p == nil {
		panic("plugin: Register plugin is nil")
	}
	builtinMu.Lock()
	defer builtinMu.Unlock()
	builtins = append(builtins, p)
}

// Builtins returns the statically registered plugins in registration order.
func Builtins() []Plugin {
	builtinMu.Lock()
	defer builtinMu.Unlock()
	return append([]Plugin(nil), builtins...)
}
