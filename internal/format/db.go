package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DBRecord represents a "db" (Big Data) record used for values larger than a
// single cell. The record points to a blocklist cell whose entries are the
// offsets of the data blocks, concatenated in order.
//
//	Offset 0x00: Signature "db" (2 bytes)
//	Offset 0x02: Number of blocks (2 bytes)
//	Offset 0x04: Blocklist offset (4 bytes)
type DBRecord struct {
	NumBlocks       uint16
	BlocklistOffset uint32
}

// IsDBRecord checks if the given cell data starts with the "db" signature.
func IsDBRecord(b []byte) bool {
	return len(b) >= SignatureSize && bytes.Equal(b[:SignatureSize], DBSignature)
}

// DecodeDB decodes a Big Data (db) record from the given cell payload.
func DecodeDB(b []byte) (DBRecord, error) {
	if len(b) < DBMinSize {
		return DBRecord{}, fmt.Errorf("db: %w (need %d bytes, have %d)", ErrTruncated, DBMinSize, len(b))
	}
	if !IsDBRecord(b) {
		return DBRecord{}, fmt.Errorf("db: %w", ErrSignatureMismatch)
	}
	return DBRecord{
		NumBlocks:       binary.LittleEndian.Uint16(b[DBCountOffset:]),
		BlocklistOffset: binary.LittleEndian.Uint32(b[DBListOffset:]),
	}, nil
}
