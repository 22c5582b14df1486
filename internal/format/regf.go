package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header captures the subset of the REGF base block required to traverse a
// hive and decide whether it is dirty.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	 0x000   4    'r' 'e' 'g' 'f'
//	 0x004   4    Primary sequence number
//	 0x008   4    Secondary sequence number
//	 0x00C   8    Last write timestamp (FILETIME)
//	 0x014   4    Major version
//	 0x018   4    Minor version
//	 0x01C   4    Type (0 = primary, 1 = alternate)
//	 0x024   4    Offset (relative to first HBIN) of the root cell (NK)
//	 0x028   4    Total size of HBIN data
//	 0x02C   4    Clustering factor
//	 0x030  64    Embedded file name (UTF-16LE, often truncated)
//	 0x1FC   4    XOR checksum of the first 508 bytes
type Header struct {
	PrimarySequence   uint32
	SecondarySequence uint32
	LastWriteRaw      uint64
	MajorVersion      uint32
	MinorVersion      uint32
	Type              uint32
	RootCellOffset    uint32
	HiveBinsDataSize  uint32
	ClusteringFactor  uint32
	FileNameRaw       []byte
	CheckSum          uint32
}

// Dirty reports whether the sequence numbers disagree, meaning the last
// write to the primary file did not complete.
func (h Header) Dirty() bool {
	return h.PrimarySequence != h.SecondarySequence
}

// FileName decodes the embedded file name.
func (h Header) FileName() string {
	return DecodeUTF16(h.FileNameRaw)
}

// ParseHeader validates and extracts key fields from a REGF header.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("regf header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(REGFSignature)], REGFSignature) {
		return Header{}, fmt.Errorf("regf header: %w", ErrSignatureMismatch)
	}
	le := binary.LittleEndian
	return Header{
		PrimarySequence:   le.Uint32(b[REGFPrimarySeqOffset:]),
		SecondarySequence: le.Uint32(b[REGFSecondarySeqOffset:]),
		LastWriteRaw:      le.Uint64(b[REGFTimeStampOffset:]),
		MajorVersion:      le.Uint32(b[REGFMajorVersionOffset:]),
		MinorVersion:      le.Uint32(b[REGFMinorVersionOffset:]),
		Type:              le.Uint32(b[REGFTypeOffset:]),
		RootCellOffset:    le.Uint32(b[REGFRootCellOffset:]),
		HiveBinsDataSize:  le.Uint32(b[REGFDataSizeOffset:]),
		ClusteringFactor:  le.Uint32(b[REGFClusterOffset:]),
		FileNameRaw:       b[REGFFileNameOffset : REGFFileNameOffset+REGFFileNameSize],
		CheckSum:          le.Uint32(b[REGFCheckSumOffset:]),
	}, nil
}

// HeaderChecksum computes the XOR checksum over the first 508 bytes of the
// base block using the same special-casing Windows applies.
func HeaderChecksum(b []byte) uint32 {
	var sum uint32
	for i := 0; i+4 <= REGFChecksumRegionLen && i+4 <= len(b); i += 4 {
		sum ^= binary.LittleEndian.Uint32(b[i:])
	}
	switch sum {
	case 0:
		return 1
	case 0xFFFFFFFF:
		return 0xFFFFFFFE
	}
	return sum
}
