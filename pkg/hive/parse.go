package hive

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/joshuapare/hivebatch/internal/format"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// parse builds the key tree from the root cell using an explicit stack.
func (h *Hive) parse() error {
	h.byOffset = make(map[uint32]*Key)
	rootOff := h.hdr.RootCellOffset
	root, err := h.readKey(rootOff, nil, false)
	if err != nil {
		return fmt.Errorf("root key: %w", err)
	}
	root.path = ""
	h.byOffset[rootOff] = root

	stack := []*Key{root}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		offs, err := h.subkeyOffsets(k.subkeyList, k.subkeyCount)
		if err != nil {
			h.problem("key %q subkey list: %v", k.path, err)
			continue
		}
		for _, off := range offs {
			if _, seen := h.byOffset[off]; seen {
				h.problem("key %q: subkey cell %#x referenced twice", k.path, off)
				continue
			}
			child, err := h.readKey(off, k, false)
			if err != nil {
				h.problem("key %q: subkey at %#x: %v", k.path, off, err)
				continue
			}
			h.byOffset[off] = child
			k.subKeys = append(k.subKeys, child)
		}
		for i := len(k.subKeys) - 1; i >= 0; i-- {
			stack = append(stack, k.subKeys[i])
		}
	}

	h.root = root
	if h.opts.RecoverDeleted {
		h.recoverDeleted()
	}
	return nil
}

// cell returns the payload of the cell at a hive-bins relative offset. Free
// cells are returned too; callers decide whether that matters.
func (h *Hive) cell(off uint32) ([]byte, bool, error) {
	if off == format.InvalidOffset {
		return nil, false, fmt.Errorf("cell: invalid offset: %w", types.ErrCorrupt)
	}
	abs := format.HeaderSize + int(off)
	if abs < format.HeaderSize || abs+format.CellHeaderSize > len(h.buf) {
		return nil, false, fmt.Errorf("cell %#x out of range: %w", off, types.ErrCorrupt)
	}
	c, err := format.ParseCell(h.buf[abs:])
	if err != nil {
		return nil, false, fmt.Errorf("cell %#x: %w", off, err)
	}
	return c.Data, c.Free, nil
}

func (h *Hive) readKey(off uint32, parent *Key, deleted bool) (*Key, error) {
	payload, _, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	nk, err := format.DecodeNK(payload)
	if err != nil {
		return nil, err
	}
	return h.newKey(off, nk, parent, deleted), nil
}

func (h *Hive) newKey(off uint32, nk format.NKRecord, parent *Key, deleted bool) *Key {
	k := &Key{
		name:        nk.Name(),
		lastWrite:   format.FiletimeToTime(nk.LastWriteRaw),
		deleted:     deleted,
		parent:      parent,
		offset:      off,
		subkeyList:  nk.SubkeyListOffset,
		subkeyCount: nk.SubkeyCount,
	}
	if parent != nil {
		k.path = joinPath(parent.path, k.name)
	}
	if nk.ValueCount > 0 && nk.ValueListOffset != format.InvalidOffset {
		k.values = h.readValues(k, nk.ValueListOffset, nk.ValueCount, deleted)
	}
	return k
}

func (h *Hive) subkeyOffsets(listOff, count uint32) ([]uint32, error) {
	if count == 0 || listOff == format.InvalidOffset {
		return nil, nil
	}
	payload, _, err := h.cell(listOff)
	if err != nil {
		return nil, err
	}
	if !format.IsRIList(payload) {
		return format.DecodeSubkeyList(payload)
	}
	lists, err := format.DecodeSubkeyList(payload)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for _, l := range lists {
		sub, _, err := h.cell(l)
		if err != nil {
			return out, err
		}
		if format.IsRIList(sub) {
			return out, fmt.Errorf("nested ri list at %#x: %w", l, types.ErrCorrupt)
		}
		offs, err := format.DecodeSubkeyList(sub)
		if err != nil {
			return out, err
		}
		out = append(out, offs...)
	}
	return out, nil
}

func (h *Hive) readValues(k *Key, listOff, count uint32, deleted bool) []*Value {
	payload, _, err := h.cell(listOff)
	if err != nil {
		h.problem("key %q value list: %v", k.path, err)
		return nil
	}
	offs, err := format.DecodeValueList(payload, count)
	if err != nil {
		h.problem("key %q value list: %v", k.path, err)
		return nil
	}
	out := make([]*Value, 0, len(offs))
	for _, off := range offs {
		v, err := h.readValue(off, deleted)
		if err != nil {
			if !deleted {
				h.problem("key %q value at %#x: %v", k.path, off, err)
			}
			continue
		}
		v.key = k
		out = append(out, v)
	}
	return out
}

func (h *Hive) readValue(off uint32, deleted bool) (*Value, error) {
	payload, _, err := h.cell(off)
	if err != nil {
		return nil, err
	}
	vk, err := format.DecodeVK(payload)
	if err != nil {
		return nil, err
	}
	raw, slack, err := h.valueData(vk)
	if err != nil {
		return nil, err
	}
	return &Value{
		name:    vk.Name(),
		typ:     types.RegType(vk.Type),
		raw:     raw,
		slack:   slack,
		deleted: deleted,
		offset:  off,
	}, nil
}

// valueData returns copies of the logical data and the bytes left over in
// the data cell after it.
func (h *Hive) valueData(vk format.VKRecord) ([]byte, []byte, error) {
	n := vk.Length()
	if vk.DataInline() {
		var b [format.DWORDSize]byte
		binary.LittleEndian.PutUint32(b[:], vk.DataOffset)
		return bytes.Clone(b[:min(n, format.DWORDSize)]), nil, nil
	}
	if n == 0 {
		return []byte{}, nil, nil
	}
	payload, _, err := h.cell(vk.DataOffset)
	if err != nil {
		return nil, nil, err
	}
	if n > format.BigDataBlockSize && format.IsDBRecord(payload) {
		raw, err := h.bigData(payload, n)
		return raw, nil, err
	}
	if n > len(payload) {
		return nil, nil, fmt.Errorf("value data: %w (need %d, cell holds %d)", format.ErrTruncated, n, len(payload))
	}
	return bytes.Clone(payload[:n]), bytes.Clone(payload[n:]), nil
}

func (h *Hive) bigData(payload []byte, n int) ([]byte, error) {
	db, err := format.DecodeDB(payload)
	if err != nil {
		return nil, err
	}
	list, _, err := h.cell(db.BlocklistOffset)
	if err != nil {
		return nil, err
	}
	blocks, err := format.DecodeValueList(list, uint32(db.NumBlocks))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for _, blk := range blocks {
		data, _, err := h.cell(blk)
		if err != nil {
			return nil, err
		}
		take := min(len(data), format.BigDataBlockSize, n-len(out))
		out = append(out, data[:take]...)
		if len(out) == n {
			break
		}
	}
	if len(out) < n {
		return nil, fmt.Errorf("big data: %w (have %d of %d bytes)", format.ErrTruncated, len(out), n)
	}
	return out, nil
}

func (h *Hive) problem(f string, args ...any) {
	h.problems = append(h.problems, fmt.Sprintf(f, args...))
}
