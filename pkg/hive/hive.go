package hive

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joshuapare/hivebatch/internal/format"
	"github.com/joshuapare/hivebatch/internal/mmfile"
	"github.com/joshuapare/hivebatch/internal/translog"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// Options controls how a hive is opened.
type Options struct {
	// RecoverDeleted attaches keys recovered from free cells to the tree.
	RecoverDeleted bool
}

// Hive is an opened hive file. It is not safe for concurrent use until the
// tree has been parsed; afterwards every view is read-only.
type Hive struct {
	path string
	opts Options
	m    *mmfile.Mapping
	buf  []byte
	hdr  format.Header
	typ  types.HiveType

	root     *Key
	byOffset map[uint32]*Key
	deleted  int
	problems []string
	closed   bool
}

// Open maps the hive at path and validates its base block. The key tree is
// parsed on first use so dirty hives can be patched first.
func Open(path string, opts Options) (*Hive, error) {
	m, err := mmfile.Map(path)
	if err != nil {
		return nil, wrapIOErr(fmt.Errorf("open hive: %w", err))
	}
	h, err := newHive(path, m, opts)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	return h, nil
}

// OpenBytes creates a hive backed by buf. path is used for display and for
// hive type detection only.
func OpenBytes(path string, buf []byte, opts Options) (*Hive, error) {
	return newHive(path, mmfile.FromBytes(buf), opts)
}

func newHive(path string, m *mmfile.Mapping, opts Options) (*Hive, error) {
	buf := m.Bytes()
	hdr, err := format.ParseHeader(buf)
	if err != nil {
		return nil, wrapFormatErr(err)
	}
	return &Hive{
		path: path,
		opts: opts,
		m:    m,
		buf:  buf,
		hdr:  hdr,
		typ:  types.DetectHiveType(hdr.FileName(), path),
	}, nil
}

// IsHiveFile reports whether the file at path starts with a "regf" signature.
func IsHiveFile(path string) bool {
	m, err := mmfile.Map(path)
	if err != nil {
		return false
	}
	defer m.Close()
	b := m.Bytes()
	return len(b) >= len(format.REGFSignature) && bytes.Equal(b[:len(format.REGFSignature)], format.REGFSignature)
}

// Path returns the path the hive was opened from.
func (h *Hive) Path() string { return h.path }

// Name returns the file name of the hive.
func (h *Hive) Name() string { return filepath.Base(h.path) }

// Type returns the detected hive type.
func (h *Hive) Type() types.HiveType { return h.typ }

// Dirty reports whether the base block sequence numbers disagree.
func (h *Hive) Dirty() bool { return h.hdr.Dirty() }

// EmbeddedName returns the file name stored in the base block.
func (h *Hive) EmbeddedName() string { return h.hdr.FileName() }

// Version returns the hive format version as "major.minor".
func (h *Hive) Version() string {
	return fmt.Sprintf("%d.%d", h.hdr.MajorVersion, h.hdr.MinorVersion)
}

// ReplayLogs applies the transaction logs at paths to the in-memory image.
// It must be called before the tree is first accessed.
func (h *Hive) ReplayLogs(paths []string) (translog.Result, error) {
	if err := h.ensureOpen(); err != nil {
		return translog.Result{}, err
	}
	if h.root != nil {
		return translog.Result{}, &types.Error{Kind: types.ErrKindState, Msg: "logs must be replayed before the hive is parsed"}
	}
	if len(paths) == 0 {
		return translog.Result{}, types.ErrDirty
	}
	logs := make([][]byte, 0, len(paths))
	for _, p := range paths {
		lm, err := mmfile.Map(p)
		if err != nil {
			return translog.Result{}, wrapIOErr(fmt.Errorf("open log %s: %w", p, err))
		}
		logs = append(logs, bytes.Clone(lm.Bytes()))
		_ = lm.Close()
	}
	buf, res, err := translog.Replay(h.buf, logs...)
	if err != nil {
		return res, &types.Error{Kind: types.ErrKindState, Msg: "replay transaction logs", Err: err}
	}
	hdr, err := format.ParseHeader(buf)
	if err != nil {
		return res, wrapFormatErr(err)
	}
	h.buf, h.hdr = buf, hdr
	return res, nil
}

// Root returns the root key, parsing the hive on first use.
func (h *Hive) Root() (*Key, error) {
	if err := h.ensureOpen(); err != nil {
		return nil, err
	}
	if h.root == nil {
		if err := h.parse(); err != nil {
			return nil, err
		}
	}
	return h.root, nil
}

// GetKey resolves a backslash separated path. A leading root key name is
// ignored, as are empty segments.
func (h *Hive) GetKey(path string) (*Key, error) {
	root, err := h.Root()
	if err != nil {
		return nil, err
	}
	parts := SplitPath(path)
	if len(parts) > 0 && strings.EqualFold(parts[0], root.name) {
		parts = parts[1:]
	}
	k := root
	for _, p := range parts {
		next := k.SubKey(p)
		if next == nil {
			return nil, &types.Error{Kind: types.ErrKindNotFound, Msg: fmt.Sprintf("key %q", path), Err: types.ErrNotFound}
		}
		k = next
	}
	return k, nil
}

// Walk visits every key depth-first in pre-order, subkeys in stored order.
// Returning an error from fn stops the walk and returns that error.
func (h *Hive) Walk(fn func(*Key) error) error {
	root, err := h.Root()
	if err != nil {
		return err
	}
	return root.Walk(fn)
}

// DeletedKeys returns the number of recovered deleted keys, parsing the hive
// on first use.
func (h *Hive) DeletedKeys() (int, error) {
	if _, err := h.Root(); err != nil {
		return 0, err
	}
	return h.deleted, nil
}

// Problems lists non-fatal structural issues found while parsing.
func (h *Hive) Problems() []string { return h.problems }

// Close releases the mapping. Keys and values remain usable.
func (h *Hive) Close() error {
	if h == nil || h.closed {
		return nil
	}
	h.closed = true
	h.buf = nil
	return h.m.Close()
}

func (h *Hive) ensureOpen() error {
	if h.closed {
		return &types.Error{Kind: types.ErrKindState, Msg: "hive closed"}
	}
	return nil
}

// SplitPath splits a registry path on backslashes, dropping empty segments.
func SplitPath(path string) []string {
	raw := strings.Split(path, `\`)
	out := raw[:0]
	for _, p := range raw {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func wrapIOErr(err error) error {
	return &types.Error{Kind: types.ErrKindState, Msg: err.Error(), Err: err}
}

func wrapFormatErr(err error) error {
	switch {
	case errors.Is(err, format.ErrSignatureMismatch):
		return types.ErrNotHive
	case errors.Is(err, format.ErrTruncated):
		return &types.Error{Kind: types.ErrKindFormat, Msg: "hive truncated", Err: err}
	default:
		return &types.Error{Kind: types.ErrKindCorrupt, Msg: err.Error(), Err: err}
	}
}
