// Package mmfile maps hive files into memory. Mappings are private and
// writable so transaction log replay can patch pages copy-on-write without
// touching the file on disk.
package mmfile

import "sync"

// Mapping is a private view of a file.
type Mapping struct {
	data  []byte
	once  sync.Once
	unmap func([]byte) error
	err   error
}

// Bytes returns the mapped contents. The slice is invalid after Close.
func (m *Mapping) Bytes() []byte {
	if m == nil {
		return nil
	}
	return m.data
}

// Len returns the size of the mapping.
func (m *Mapping) Len() int {
	return len(m.Bytes())
}

// Close releases the mapping. Calling Close more than once is a no-op.
func (m *Mapping) Close() error {
	if m == nil {
		return nil
	}
	m.once.Do(func() {
		if m.unmap != nil && len(m.data) > 0 {
			m.err = m.unmap(m.data)
		}
		m.data = nil
	})
	return m.err
}

// FromBytes wraps an in-memory buffer so callers can treat it like a mapping.
func FromBytes(b []byte) *Mapping {
	return &Mapping{data: b}
}
