package output

import (
	"time"

	"github.com/joshuapare/hivebatch/pkg/hive"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// BinaryPlaceholder replaces REG_BINARY data in the main output.
const BinaryPlaceholder = "(Binary data)"

// PluginValueType marks rows produced by a plugin.
const PluginValueType = "(plugin)"

// Header is the main CSV header, in column order.
var Header = []string{
	"ValueName", "Deleted", "Description", "Category", "Comment", "HivePath", "HiveType",
	"KeyPath", "LastWriteTimestamp", "Recursive", "ValueType", "ValueData", "ValueData2",
	"ValueData3", "PluginDetailFile",
}

// Row is one line of batch output.
type Row struct {
	ValueName          string
	Deleted            bool
	Description        string
	Category           string
	Comment            string
	HivePath           string
	HiveType           string
	KeyPath            string
	LastWriteTimestamp time.Time
	Recursive          bool
	ValueType          string
	ValueData          string
	ValueData2         string
	ValueData3         string
	PluginDetailFile   string

	// SourceKeyPath is the key the row was read from. It differs from
	// KeyPath, the rule's path, for recursive and wildcard rules and is not
	// written to the CSV.
	SourceKeyPath string
}

// WithValue fills the value columns of base from v. Binary data is masked.
func WithValue(base Row, v *hive.Value) Row {
	base.ValueName = v.DisplayName()
	base.ValueType = v.Type().String()
	if v.Type() == types.REG_BINARY {
		base.ValueData = BinaryPlaceholder
	} else {
		base.ValueData = v.Data()
	}
	base.Deleted = base.Deleted || v.Deleted()
	return base
}

// Record renders the row in Header order.
func (r Row) Record(dateFormat string) []string {
	return []string{
		r.ValueName,
		csvBool(r.Deleted),
		r.Description,
		r.Category,
		r.Comment,
		r.HivePath,
		r.HiveType,
		r.KeyPath,
		FormatTime(r.LastWriteTimestamp, dateFormat),
		csvBool(r.Recursive),
		r.ValueType,
		r.ValueData,
		r.ValueData2,
		r.ValueData3,
		r.PluginDetailFile,
	}
}

func csvBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
