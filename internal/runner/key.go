package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joshuapare/hivebatch/internal/highlight"
	"github.com/joshuapare/hivebatch/internal/output"
	"github.com/joshuapare/hivebatch/pkg/hive"
)

const keyTimeFormat = "yyyy-MM-dd HH:mm:ss.ffffff"

// KeyRequest describes a key dump.
type KeyRequest struct {
	KeyName   string
	ValueName string
	// SaveTo receives the raw bytes of ValueName.
	SaveTo string
	// JSONDir receives the key subtree as <key name>.json.
	JSONDir string
}

// KeyJSON is the exported form of a key subtree.
type KeyJSON struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	LastWrite time.Time   `json:"last_write"`
	Deleted   bool        `json:"deleted,omitempty"`
	Values    []ValueJSON `json:"values"`
	SubKeys   []*KeyJSON  `json:"sub_keys"`
}

// ValueJSON is the exported form of a value.
type ValueJSON struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Data    string `json:"data"`
	Raw     []byte `json:"raw"`
	Slack   string `json:"slack,omitempty"`
	Deleted bool   `json:"deleted,omitempty"`
}

// DumpKey prints a key, or one of its values, to the run's console output.
// A missing key or value is logged and is not an error.
func (r *Run) DumpKey(h *hive.Hive, req KeyRequest) error {
	k, err := h.GetKey(req.KeyName)
	if err != nil {
		r.log.Warn("key not found", "key", req.KeyName, "hive", h.Path())
		return nil
	}

	if req.ValueName != "" {
		v, ok := k.Value(req.ValueName)
		if !ok {
			r.log.Warn("value not found", "value", req.ValueName, "key", req.KeyName)
			return nil
		}
		if req.SaveTo != "" {
			if err := saveValue(req.SaveTo, v); err != nil {
				r.log.Error("save failed", "path", req.SaveTo, "err", err)
			} else {
				r.log.Info("saved value contents", "value", v.DisplayName(), "path", req.SaveTo)
			}
		}
		r.printKeyHeader(k)
		r.line(v.Deleted() || k.Deleted(), fmt.Sprintf("Value name: '%s' (%s)", v.DisplayName(), v.Type()))
		r.line(v.Deleted() || k.Deleted(), "Value data: "+valueData(v))
		return nil
	}

	if req.JSONDir != "" {
		path, err := exportJSON(req.JSONDir, k)
		if err != nil {
			r.log.Error("export key to json", "key", k.Path(), "dir", req.JSONDir, "err", err)
		} else {
			r.log.Info("saved key to json file", "path", path)
		}
	}

	r.printKeyHeader(k)
	fmt.Fprintf(r.out, "Subkey count: %d\n", len(k.SubKeys()))
	fmt.Fprintf(r.out, "Values count: %d\n\n", len(k.Values()))
	for i, sk := range k.SubKeys() {
		title := fmt.Sprintf("------------ Subkey #%d ------------", i)
		if sk.Deleted() {
			title = fmt.Sprintf("------------ Subkey #%d (DELETED) ------------", i)
		}
		r.line(sk.Deleted(), title)
		r.line(sk.Deleted(), fmt.Sprintf("Name: %s (Last write: %s) Value count: %d",
			sk.Name(), output.FormatTime(sk.LastWrite(), keyTimeFormat), len(sk.Values())))
	}
	fmt.Fprintln(r.out)
	for i, v := range k.Values() {
		del := k.Deleted() || v.Deleted()
		title := fmt.Sprintf("------------ Value #%d ------------", i)
		if del {
			title = fmt.Sprintf("------------ Value #%d (DELETED) ------------", i)
		}
		r.line(del, title)
		r.line(del, fmt.Sprintf("Name: %s (%s)", v.DisplayName(), v.Type()))
		r.line(del, "Data: "+valueData(v))
	}
	return nil
}

func (r *Run) printKeyHeader(k *hive.Key) {
	fmt.Fprintf(r.out, "Key path: '%s'\n", k.Path())
	fmt.Fprintf(r.out, "Last write time: %s\n", output.FormatTime(k.LastWrite(), keyTimeFormat))
	if k.Deleted() {
		r.line(true, "Deleted: TRUE")
	}
	fmt.Fprintln(r.out)
}

func (r *Run) line(deleted bool, s string) {
	if deleted {
		s = highlight.DeletedStyle.Render(s)
	}
	fmt.Fprintln(r.out, s)
}

func valueData(v *hive.Value) string {
	s := v.Data()
	if len(v.Slack()) > 0 {
		s += " (Slack: " + hive.HexString(v.Slack()) + ")"
	}
	return s
}

func saveValue(path string, v *hive.Value) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, v.Raw(), 0o644)
}

// BuildJSON converts the subtree rooted at k. The walk is pre-order, so a
// key's parent is always converted before the key itself.
func BuildJSON(k *hive.Key) *KeyJSON {
	nodes := make(map[*hive.Key]*KeyJSON)
	var root *KeyJSON
	_ = k.Walk(func(cur *hive.Key) error {
		n := &KeyJSON{
			Name:      cur.Name(),
			Path:      cur.Path(),
			LastWrite: cur.LastWrite(),
			Deleted:   cur.Deleted(),
			Values:    []ValueJSON{},
			SubKeys:   []*KeyJSON{},
		}
		for _, v := range cur.Values() {
			n.Values = append(n.Values, ValueJSON{
				Name:    v.DisplayName(),
				Type:    v.Type().String(),
				Data:    v.Data(),
				Raw:     v.Raw(),
				Slack:   hive.HexString(v.Slack()),
				Deleted: v.Deleted(),
			})
		}
		nodes[cur] = n
		if cur == k {
			root = n
		} else if p := nodes[cur.Parent()]; p != nil {
			p.SubKeys = append(p.SubKeys, n)
		}
		return nil
	})
	return root
}

var invalidFileChars = strings.NewReplacer(`<`, "_", `>`, "_", `:`, "_", `"`, "_", `/`, "_", `\`, "_", `|`, "_", `?`, "_", `*`, "_", "%", "", "\x00", "")

func exportJSON(dir string, k *hive.Key) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(BuildJSON(k), "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, invalidFileChars.Replace(k.Name())+".json")
	return path, os.WriteFile(path, b, 0o644)
}
