package hive

import (
	"strings"
	"time"
)

// Key is a read-only view of a registry key.
type Key struct {
	name      string
	path      string
	lastWrite time.Time
	deleted   bool
	parent    *Key
	subKeys   []*Key
	values    []*Value
	offset    uint32

	subkeyList  uint32
	subkeyCount uint32
}

// Name returns the key name. The root key keeps its stored name.
func (k *Key) Name() string { return k.name }

// Path returns the path below the root, without the root key name.
// The root key's path is empty.
func (k *Key) Path() string { return k.path }

// FullPath returns the path including the root key name.
func (k *Key) FullPath() string {
	r := k
	for r.parent != nil {
		r = r.parent
	}
	return joinPath(r.name, k.path)
}

// LastWrite returns the key's last write time in UTC.
func (k *Key) LastWrite() time.Time { return k.lastWrite }

// Deleted reports whether the key was recovered from a free cell.
func (k *Key) Deleted() bool { return k.deleted }

// Parent returns the parent key, or nil for the root.
func (k *Key) Parent() *Key { return k.parent }

// Offset returns the hive-bins relative offset of the key's cell.
func (k *Key) Offset() uint32 { return k.offset }

// SubKeys returns the subkeys in stored order, live keys first.
func (k *Key) SubKeys() []*Key { return k.subKeys }

// Values returns the key's values in stored order.
func (k *Key) Values() []*Value { return k.values }

// SubKey returns the first subkey named name, ignoring case.
func (k *Key) SubKey(name string) *Key {
	for _, c := range k.subKeys {
		if strings.EqualFold(c.name, name) {
			return c
		}
	}
	return nil
}

// Value returns the value named name, ignoring case. "(default)" and the
// empty string both select the default value.
func (k *Key) Value(name string) (*Value, bool) {
	if strings.EqualFold(name, DefaultValueName) {
		name = ""
	}
	for _, v := range k.values {
		if strings.EqualFold(v.name, name) {
			return v, true
		}
	}
	return nil, false
}

// Walk visits k and its descendants depth-first in pre-order.
func (k *Key) Walk(fn func(*Key) error) error {
	stack := []*Key{k}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(cur); err != nil {
			return err
		}
		for i := len(cur.subKeys) - 1; i >= 0; i-- {
			stack = append(stack, cur.subKeys[i])
		}
	}
	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + `\` + name
}
