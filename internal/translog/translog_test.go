package translog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/hivebatch/internal/format"
)

func dirtyHive(primary, secondary uint32) []byte {
	buf := make([]byte, format.HeaderSize+format.HBINAlignment)
	copy(buf, format.REGFSignature)
	le := binary.LittleEndian
	le.PutUint32(buf[format.REGFPrimarySeqOffset:], primary)
	le.PutUint32(buf[format.REGFSecondarySeqOffset:], secondary)
	le.PutUint32(buf[format.REGFDataSizeOffset:], format.HBINAlignment)
	copy(buf[format.HeaderSize:], format.HBINSignature)
	return buf
}

type page struct {
	off  uint32
	data []byte
}

func logEntry(seq, binsSize uint32, pages ...page) []byte {
	size := entryHeaderSize + len(pages)*pageRefSize
	for _, p := range pages {
		size += len(p.data)
	}
	if rem := size % entryAlignment; rem != 0 {
		size += entryAlignment - rem
	}
	b := make([]byte, size)
	le := binary.LittleEndian
	copy(b, entrySignature)
	le.PutUint32(b[entrySizeOffset:], uint32(size))
	le.PutUint32(b[entrySeqOffset:], seq)
	le.PutUint32(b[entryBinsSizeOffset:], binsSize)
	le.PutUint32(b[entryPageCntOffset:], uint32(len(pages)))
	cursor := entryHeaderSize + len(pages)*pageRefSize
	for i, p := range pages {
		le.PutUint32(b[entryHeaderSize+i*pageRefSize:], p.off)
		le.PutUint32(b[entryHeaderSize+i*pageRefSize+4:], uint32(len(p.data)))
		copy(b[cursor:], p.data)
		cursor += len(p.data)
	}
	return b
}

func logFile(entries ...[]byte) []byte {
	b := make([]byte, logBaseBlockSize)
	copy(b, format.REGFSignature)
	for _, e := range entries {
		b = append(b, e...)
	}
	return b
}

func TestParseLog(t *testing.T) {
	l := logFile(
		logEntry(5, format.HBINAlignment, page{off: 0x100, data: []byte("abc")}),
		logEntry(6, format.HBINAlignment),
	)
	entries, err := ParseLog(l)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(5), entries[0].Sequence)
	require.Len(t, entries[0].Pages, 1)
	assert.Equal(t, "abc", string(entries[0].Pages[0].Data))
	assert.Empty(t, entries[1].Pages)
}

func TestParseLogRejectsGarbage(t *testing.T) {
	_, err := ParseLog([]byte("short"))
	require.ErrorIs(t, err, ErrNotLog)

	_, err = ParseLog(logFile())
	require.ErrorIs(t, err, ErrNoEntries)

	// page outside the declared bins size ends decoding
	_, err = ParseLog(logFile(logEntry(1, 0x10, page{off: 0x20, data: []byte("x")})))
	require.ErrorIs(t, err, ErrNoEntries)
}

func TestReplayAppliesInSequence(t *testing.T) {
	hive := dirtyHive(7, 5)
	log1 := logFile(
		logEntry(4, format.HBINAlignment, page{off: 0x40, data: []byte("old")}),
		logEntry(5, format.HBINAlignment, page{off: 0x40, data: []byte("one")}),
	)
	log2 := logFile(logEntry(6, format.HBINAlignment, page{off: 0x44, data: []byte("two")}))

	out, res, err := Replay(hive, log2, log1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Applied)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, uint32(7), res.Sequence)

	assert.Equal(t, "one", string(out[format.HeaderSize+0x40:format.HeaderSize+0x43]))
	assert.Equal(t, "two", string(out[format.HeaderSize+0x44:format.HeaderSize+0x47]))

	hdr, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.False(t, hdr.Dirty())
	assert.Equal(t, format.HeaderChecksum(out), hdr.CheckSum)
}

func TestReplayGrowsImage(t *testing.T) {
	hive := dirtyHive(2, 1)
	grown := uint32(2 * format.HBINAlignment)
	l := logFile(logEntry(1, grown, page{off: format.HBINAlignment, data: format.HBINSignature}))

	out, res, err := Replay(hive, l)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	require.Len(t, out, format.HeaderSize+int(grown))
	assert.Equal(t, "hbin", string(out[format.HeaderSize+format.HBINAlignment:][:4]))

	hdr, err := format.ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, grown, hdr.HiveBinsDataSize)
}

func TestReplaySequenceGap(t *testing.T) {
	hive := dirtyHive(9, 3)
	l := logFile(logEntry(8, format.HBINAlignment))
	_, _, err := Replay(hive, l)
	require.ErrorIs(t, err, ErrNoEntries)
}

func TestReplayNotAHive(t *testing.T) {
	_, _, err := Replay(make([]byte, 10), logFile())
	require.Error(t, err)
}

func TestFindLogs(t *testing.T) {
	dir := t.TempDir()
	hivePath := filepath.Join(dir, "SYSTEM")
	for _, name := range []string{"SYSTEM", "SYSTEM.LOG1", "SYSTEM.LOG2", "SYSTEM.LOG", "SOFTWARE.LOG1"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	logs, err := FindLogs(hivePath)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "SYSTEM.LOG1"),
		filepath.Join(dir, "SYSTEM.LOG2"),
	}, logs)
}
