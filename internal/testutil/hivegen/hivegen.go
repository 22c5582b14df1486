// Package hivegen builds small synthetic REGF images for tests. Images contain
// a single hive bin holding every cell; keys get "lf" subkey lists (or "ri"
// index roots when requested), values larger than one cell are written as
// big-data records, and deleted keys are emitted as free cells that still
// point at their former parent.
package hivegen

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/joshuapare/hivebatch/internal/format"
	"github.com/joshuapare/hivebatch/pkg/types"
)

// DefaultTime is the last-write time stamped on keys that do not set one.
var DefaultTime = time.Date(2021, 3, 4, 5, 6, 7, 123456700, time.UTC)

// Value describes a value to emit.
type Value struct {
	Name  string
	Type  types.RegType
	Data  []byte
	Slack []byte
}

// Key describes a key and its subtree.
type Key struct {
	Name      string
	LastWrite time.Time
	Values    []Value
	Children  []*Key

	offset uint32
}

// Child returns the named child, creating it when missing.
func (k *Key) Child(name string) *Key {
	for _, c := range k.Children {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	c := &Key{Name: name}
	k.Children = append(k.Children, c)
	return c
}

// Set appends a value and returns k for chaining.
func (k *Key) Set(name string, typ types.RegType, data []byte) *Key {
	k.Values = append(k.Values, Value{Name: name, Type: typ, Data: data})
	return k
}

// SetWithSlack appends a value whose data cell carries trailing slack bytes.
func (k *Key) SetWithSlack(name string, typ types.RegType, data, slack []byte) *Key {
	k.Values = append(k.Values, Value{Name: name, Type: typ, Data: data, Slack: slack})
	return k
}

type deleted struct {
	parent string
	key    *Key
}

// Builder accumulates a key tree and serialises it.
type Builder struct {
	Root *Key
	// IndexRoot emits "ri" lists pointing at "lf" lists of at most two
	// entries instead of a single "lf" list.
	IndexRoot bool
	// FileName is embedded in the base block.
	FileName string

	primary, secondary uint32
	deleted            []deleted
	buf                []byte
}

// New returns a builder whose root key is named rootName.
func New(rootName string) *Builder {
	return &Builder{Root: &Key{Name: rootName}, primary: 1, secondary: 1}
}

// Key returns the key at a backslash separated path below the root, creating
// intermediate keys as needed.
func (b *Builder) Key(path string) *Key {
	k := b.Root
	for _, part := range strings.Split(path, `\`) {
		if part == "" {
			continue
		}
		k = k.Child(part)
	}
	return k
}

// Deleted records a deleted key under parentPath. Its cells are written as
// free cells after the live tree.
func (b *Builder) Deleted(parentPath string, k *Key) {
	b.deleted = append(b.deleted, deleted{parent: parentPath, key: k})
}

// Sequence sets the base block sequence numbers. Unequal numbers make the
// hive dirty.
func (b *Builder) Sequence(primary, secondary uint32) {
	b.primary, b.secondary = primary, secondary
}

// Bytes serialises the hive.
func (b *Builder) Bytes() []byte {
	b.buf = make([]byte, format.HBINHeaderSize)
	b.writeKey(b.Root, format.InvalidOffset, true, false)
	for _, d := range b.deleted {
		parent := b.Key(d.parent)
		b.writeKey(d.key, parent.offset, false, true)
	}

	binSize := alignUp(len(b.buf)+format.CellHeaderSize, format.HBINAlignment)
	if tail := binSize - len(b.buf); tail > 0 {
		cell := make([]byte, tail)
		binary.LittleEndian.PutUint32(cell, uint32(tail))
		b.buf = append(b.buf, cell...)
	}
	copy(b.buf, format.HBINSignature)
	binary.LittleEndian.PutUint32(b.buf[format.HBINSizeOffset:], uint32(binSize))

	out := make([]byte, format.HeaderSize+binSize)
	le := binary.LittleEndian
	copy(out, format.REGFSignature)
	le.PutUint32(out[format.REGFPrimarySeqOffset:], b.primary)
	le.PutUint32(out[format.REGFSecondarySeqOffset:], b.secondary)
	le.PutUint64(out[format.REGFTimeStampOffset:], format.TimeToFiletime(DefaultTime))
	le.PutUint32(out[format.REGFMajorVersionOffset:], 1)
	le.PutUint32(out[format.REGFMinorVersionOffset:], 5)
	le.PutUint32(out[format.REGFRootCellOffset:], b.Root.offset)
	le.PutUint32(out[format.REGFDataSizeOffset:], uint32(binSize))
	le.PutUint32(out[format.REGFClusterOffset:], 1)
	name := format.EncodeUTF16(b.FileName)
	if len(name) > format.REGFFileNameSize {
		name = name[:format.REGFFileNameSize]
	}
	copy(out[format.REGFFileNameOffset:], name)
	le.PutUint32(out[format.REGFCheckSumOffset:], format.HeaderChecksum(out))
	copy(out[format.HeaderSize:], b.buf)
	return out
}

// alloc appends a cell and returns its offset relative to the first HBIN.
func (b *Builder) alloc(payload []byte, free bool) uint32 {
	size := alignUp(format.CellHeaderSize+len(payload), format.CellAlignment)
	off := len(b.buf)
	cell := make([]byte, size)
	if free {
		binary.LittleEndian.PutUint32(cell, uint32(size))
	} else {
		binary.LittleEndian.PutUint32(cell, uint32(-int32(size)))
	}
	copy(cell[format.CellHeaderSize:], payload)
	b.buf = append(b.buf, cell...)
	return uint32(off)
}

func (b *Builder) payload(off uint32) []byte {
	return b.buf[int(off)+format.CellHeaderSize:]
}

func (b *Builder) writeKey(k *Key, parent uint32, root, free bool) {
	name, compressed := encodeName(k.Name)
	nk := make([]byte, format.NKFixedHeaderSize+len(name))
	k.offset = b.alloc(nk, free)

	children := make([]uint32, 0, len(k.Children))
	for _, c := range k.Children {
		b.writeKey(c, k.offset, false, free)
		children = append(children, c.offset)
	}
	subList := uint32(format.InvalidOffset)
	if len(children) > 0 {
		subList = b.writeSubkeyList(k.Children, free)
	}
	valList := uint32(format.InvalidOffset)
	if len(k.Values) > 0 {
		offs := make([]byte, 0, len(k.Values)*format.OffsetFieldSize)
		for _, v := range k.Values {
			offs = binary.LittleEndian.AppendUint32(offs, b.writeValue(v, free))
		}
		valList = b.alloc(offs, free)
	}

	flags := uint16(0)
	if compressed {
		flags |= format.NKFlagCompressedName
	}
	if root {
		flags |= format.NKFlagRootKey
	}
	lw := k.LastWrite
	if lw.IsZero() {
		lw = DefaultTime
	}
	p := b.payload(k.offset)
	le := binary.LittleEndian
	copy(p, format.NKSignature)
	le.PutUint16(p[format.NKFlagsOffset:], flags)
	le.PutUint64(p[format.NKLastWriteOffset:], format.TimeToFiletime(lw))
	le.PutUint32(p[format.NKParentOffset:], parent)
	le.PutUint32(p[format.NKSubkeyCountOffset:], uint32(len(children)))
	le.PutUint32(p[format.NKSubkeyListOffset:], subList)
	le.PutUint32(p[format.NKValueCountOffset:], uint32(len(k.Values)))
	le.PutUint32(p[format.NKValueListOffset:], valList)
	le.PutUint32(p[format.NKSecurityOffset:], format.InvalidOffset)
	le.PutUint32(p[format.NKClassNameOffset:], format.InvalidOffset)
	le.PutUint16(p[format.NKNameLenOffset:], uint16(len(name)))
	copy(p[format.NKNameOffset:], name)
}

func (b *Builder) writeSubkeyList(children []*Key, free bool) uint32 {
	if !b.IndexRoot {
		return b.alloc(lfList(children), free)
	}
	var subs []uint32
	for i := 0; i < len(children); i += 2 {
		end := min(i+2, len(children))
		subs = append(subs, b.alloc(lfList(children[i:end]), free))
	}
	ri := make([]byte, format.ListHeaderSize, format.ListHeaderSize+len(subs)*format.OffsetFieldSize)
	copy(ri, format.RISignature)
	binary.LittleEndian.PutUint16(ri[format.SignatureSize:], uint16(len(subs)))
	for _, s := range subs {
		ri = binary.LittleEndian.AppendUint32(ri, s)
	}
	return b.alloc(ri, free)
}

func lfList(keys []*Key) []byte {
	out := make([]byte, format.ListHeaderSize, format.ListHeaderSize+len(keys)*format.LFEntrySize)
	copy(out, format.LFSignature)
	binary.LittleEndian.PutUint16(out[format.SignatureSize:], uint16(len(keys)))
	for _, k := range keys {
		out = binary.LittleEndian.AppendUint32(out, k.offset)
		hint := make([]byte, 4)
		copy(hint, k.Name)
		out = append(out, hint...)
	}
	return out
}

func (b *Builder) writeValue(v Value, free bool) uint32 {
	name, compressed := encodeName(v.Name)
	vk := make([]byte, format.VKMinSize+len(name))
	le := binary.LittleEndian
	copy(vk, format.VKSignature)
	le.PutUint16(vk[format.VKNameLenOffset:], uint16(len(name)))
	le.PutUint32(vk[format.VKTypeOffset:], uint32(v.Type))
	if compressed {
		le.PutUint16(vk[format.VKFlagsOffset:], format.VKFlagASCIIName)
	}
	copy(vk[format.VKNameOffset:], name)

	switch {
	case len(v.Data) <= format.DWORDSize && len(v.Slack) == 0:
		le.PutUint32(vk[format.VKDataLenOffset:], uint32(len(v.Data))|format.VKDataInlineBit)
		copy(vk[format.VKDataOffOffset:format.VKDataOffOffset+format.DWORDSize], v.Data)
	case len(v.Data) > format.BigDataBlockSize:
		le.PutUint32(vk[format.VKDataLenOffset:], uint32(len(v.Data)))
		le.PutUint32(vk[format.VKDataOffOffset:], b.writeBigData(v.Data, free))
	default:
		le.PutUint32(vk[format.VKDataLenOffset:], uint32(len(v.Data)))
		data := append(append([]byte{}, v.Data...), v.Slack...)
		le.PutUint32(vk[format.VKDataOffOffset:], b.alloc(data, free))
	}
	return b.alloc(vk, free)
}

func (b *Builder) writeBigData(data []byte, free bool) uint32 {
	var blocks []uint32
	for i := 0; i < len(data); i += format.BigDataBlockSize {
		end := min(i+format.BigDataBlockSize, len(data))
		blocks = append(blocks, b.alloc(data[i:end], free))
	}
	list := make([]byte, 0, len(blocks)*format.OffsetFieldSize)
	for _, blk := range blocks {
		list = binary.LittleEndian.AppendUint32(list, blk)
	}
	listOff := b.alloc(list, free)
	db := make([]byte, format.DBMinSize)
	copy(db, format.DBSignature)
	binary.LittleEndian.PutUint16(db[format.DBCountOffset:], uint16(len(blocks)))
	binary.LittleEndian.PutUint32(db[format.DBListOffset:], listOff)
	return b.alloc(db, free)
}

func encodeName(s string) ([]byte, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return format.EncodeUTF16(s), false
		}
	}
	return []byte(s), true
}

func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}
