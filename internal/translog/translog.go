// Package translog replays new-format (HvLE) registry transaction logs into a
// dirty primary hive image.
//
// A log file starts with a 512-byte copy of the base block followed by log
// entries. Each entry has the layout:
//
//	Offset  Size  Field
//	0x00    4     'H' 'v' 'L' 'E'
//	0x04    4     Entry size (multiple of 512)
//	0x08    4     Flags
//	0x0C    4     Sequence number
//	0x10    4     Hive bins data size
//	0x14    4     Dirty pages count
//	0x18    8     Hash-1
//	0x20    8     Hash-2
//	0x28    8*n   Dirty page references (offset, size)
//	...           Dirty pages, in reference order
package translog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joshuapare/hivebatch/internal/format"
)

const (
	logBaseBlockSize = 512
	entryAlignment   = 512
	entryHeaderSize  = 0x28
	pageRefSize      = 8

	entrySizeOffset     = 0x04
	entrySeqOffset      = 0x0C
	entryBinsSizeOffset = 0x10
	entryPageCntOffset  = 0x14
)

var entrySignature = []byte{'H', 'v', 'L', 'E'}

var (
	// ErrNoEntries indicates a log held no usable HvLE entries.
	ErrNoEntries = errors.New("translog: no log entries")
	// ErrNotLog indicates the file does not start with a base block copy.
	ErrNotLog = errors.New("translog: not a transaction log")
)

// Page is a dirty page carried by an entry. Offset is relative to the start
// of the hive bins data.
type Page struct {
	Offset uint32
	Data   []byte
}

// Entry is one decoded HvLE record.
type Entry struct {
	Sequence uint32
	BinsSize uint32
	Pages    []Page
}

// Result summarises a replay.
type Result struct {
	Applied  int
	Skipped  int
	Sequence uint32
}

// ParseLog decodes every valid entry from a log image. Decoding stops at the
// first malformed entry; entries before it are still returned.
func ParseLog(b []byte) ([]Entry, error) {
	if len(b) < logBaseBlockSize || !bytes.Equal(b[:4], format.REGFSignature) {
		return nil, ErrNotLog
	}
	le := binary.LittleEndian
	var out []Entry
	off := logBaseBlockSize
	for off+entryHeaderSize <= len(b) {
		head := b[off:]
		if !bytes.Equal(head[:4], entrySignature) {
			break
		}
		size := int(le.Uint32(head[entrySizeOffset:]))
		if size < entryHeaderSize || size%entryAlignment != 0 || off+size > len(b) {
			break
		}
		e := Entry{
			Sequence: le.Uint32(head[entrySeqOffset:]),
			BinsSize: le.Uint32(head[entryBinsSizeOffset:]),
		}
		count := int(le.Uint32(head[entryPageCntOffset:]))
		refsEnd := entryHeaderSize + count*pageRefSize
		if count < 0 || refsEnd > size {
			break
		}
		body := b[off : off+size]
		cursor := refsEnd
		valid := true
		for i := range count {
			ref := body[entryHeaderSize+i*pageRefSize:]
			pOff := le.Uint32(ref)
			pSize := int(le.Uint32(ref[4:]))
			if pSize <= 0 || cursor+pSize > size || uint64(pOff)+uint64(pSize) > uint64(e.BinsSize) {
				valid = false
				break
			}
			e.Pages = append(e.Pages, Page{Offset: pOff, Data: body[cursor : cursor+pSize]})
			cursor += pSize
		}
		if !valid {
			break
		}
		out = append(out, e)
		off += size
	}
	if len(out) == 0 {
		return nil, ErrNoEntries
	}
	return out, nil
}

// Replay applies the entries of logs to the hive image in sequence order,
// starting from the hive's secondary sequence number. The returned slice may
// alias hiveImage when the hive bins data did not grow. The base block is
// updated to a clean state with a fresh checksum.
func Replay(hiveImage []byte, logs ...[]byte) ([]byte, Result, error) {
	hdr, err := format.ParseHeader(hiveImage)
	if err != nil {
		return nil, Result{}, fmt.Errorf("translog: %w", err)
	}

	var entries []Entry
	var parseErrs []error
	for i, l := range logs {
		es, perr := ParseLog(l)
		if perr != nil {
			parseErrs = append(parseErrs, fmt.Errorf("log %d: %w", i, perr))
			continue
		}
		entries = append(entries, es...)
	}
	if len(entries) == 0 {
		if len(parseErrs) > 0 {
			return nil, Result{}, errors.Join(parseErrs...)
		}
		return nil, Result{}, ErrNoEntries
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })

	res := Result{Sequence: hdr.SecondarySequence}
	buf := hiveImage
	binsSize := hdr.HiveBinsDataSize
	for _, e := range entries {
		if e.Sequence < res.Sequence {
			res.Skipped++
			continue
		}
		if e.Sequence != res.Sequence {
			break
		}
		need := format.HeaderSize + int(e.BinsSize)
		if need > len(buf) {
			grown := make([]byte, need)
			copy(grown, buf)
			buf = grown
		}
		for _, p := range e.Pages {
			dst := format.HeaderSize + int(p.Offset)
			copy(buf[dst:dst+len(p.Data)], p.Data)
		}
		binsSize = e.BinsSize
		res.Applied++
		res.Sequence++
	}
	if res.Applied == 0 {
		return nil, res, fmt.Errorf("translog: no entry continues sequence %d: %w", hdr.SecondarySequence, ErrNoEntries)
	}

	le := binary.LittleEndian
	le.PutUint32(buf[format.REGFPrimarySeqOffset:], res.Sequence)
	le.PutUint32(buf[format.REGFSecondarySeqOffset:], res.Sequence)
	le.PutUint32(buf[format.REGFDataSizeOffset:], binsSize)
	le.PutUint32(buf[format.REGFCheckSumOffset:], format.HeaderChecksum(buf))
	return buf, res, nil
}

// FindLogs returns the transaction logs that sit next to hivePath, named
// "<hive>.LOG?" in either case.
func FindLogs(hivePath string) ([]string, error) {
	dir := filepath.Dir(hivePath)
	base := filepath.Base(hivePath)
	seen := map[string]bool{}
	var out []string
	for _, pat := range []string{base + ".LOG?", base + ".log?"} {
		matches, err := filepath.Glob(filepath.Join(dir, globEscape(pat)))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			if info, err := os.Stat(m); err != nil || info.IsDir() {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// globEscape escapes glob metacharacters in the hive name but keeps the
// trailing "?" that stands for the log index.
func globEscape(pat string) string {
	head, tail := pat[:len(pat)-1], pat[len(pat)-1:]
	r := strings.NewReplacer(`[`, `\[`, `*`, `\*`, `?`, `\?`)
	return r.Replace(head) + tail
}
