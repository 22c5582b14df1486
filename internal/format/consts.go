// Package format houses low-level decoders for the Windows Registry hive file
// format. Only the read path is covered: enough of REGF, HBIN, cells, NK, VK,
// subkey/value lists and big-data records to walk a hive and extract values.
package format

var (
	// REGFSignature is the four-byte signature at the start of every hive file.
	REGFSignature = []byte{'r', 'e', 'g', 'f'}

	// HBINSignature is the four-byte signature at the beginning of each hive bin.
	HBINSignature = []byte{'h', 'b', 'i', 'n'}

	// NKSignature identifies an NK (Node Key) cell payload.
	NKSignature = []byte{'n', 'k'}

	// VKSignature identifies a VK (Value Key) cell payload.
	VKSignature = []byte{'v', 'k'}

	// LFSignature, LHSignature, and LISignature identify subkey list variants.
	// LF/LH include hashed names, while LI is a linear list without hashes.
	LFSignature = []byte{'l', 'f'}
	LHSignature = []byte{'l', 'h'}
	LISignature = []byte{'l', 'i'}

	// RISignature identifies an RI (indirect) subkey list record used when
	// a key has many subkeys. RI lists contain offsets to multiple LF/LH lists.
	RISignature = []byte{'r', 'i'}

	// DBSignature identifies a Big Data (DB) record for large registry values.
	DBSignature = []byte{'d', 'b'}
)

const (
	// HeaderSize is the size of the REGF base block in bytes.
	HeaderSize = 4096

	// HBINHeaderSize is the size of the HBIN header in bytes.
	HBINHeaderSize = 0x20

	// CellHeaderSize is the number of bytes used by the cell header preceding
	// every allocation (free or in-use) within an HBIN.
	CellHeaderSize = 4

	// HBINAlignment is the required alignment of hive bins.
	HBINAlignment = 0x1000

	// CellAlignment is the required alignment of cells within HBINs.
	CellAlignment = 8

	// InvalidOffset is a placeholder value used for unused/invalid offset fields.
	InvalidOffset = 0xFFFFFFFF

	HBINFileOffsetField = 0x04
	HBINSizeOffset      = 0x08

	SignatureSize   = 2
	ListHeaderSize  = 4
	OffsetFieldSize = 4
	LFEntrySize     = 8
	DWORDSize       = 4
	QWORDSize       = 8
)

// REGF base block field offsets.
const (
	REGFPrimarySeqOffset   = 0x004
	REGFSecondarySeqOffset = 0x008
	REGFTimeStampOffset    = 0x00C
	REGFMajorVersionOffset = 0x014
	REGFMinorVersionOffset = 0x018
	REGFTypeOffset         = 0x01C
	REGFRootCellOffset     = 0x024
	REGFDataSizeOffset     = 0x028
	REGFClusterOffset      = 0x02C
	REGFFileNameOffset     = 0x030
	REGFFileNameSize       = 64
	REGFCheckSumOffset     = 0x1FC

	// REGFChecksumRegionLen is the span XORed into the header checksum.
	REGFChecksumRegionLen = 508
)

// NK field offsets within the record structure (payload start == "nk").
const (
	NKFlagsOffset        = 0x02
	NKLastWriteOffset    = 0x04
	NKParentOffset       = 0x10
	NKSubkeyCountOffset  = 0x14
	NKSubkeyListOffset   = 0x1C
	NKValueCountOffset   = 0x24
	NKValueListOffset    = 0x28
	NKSecurityOffset     = 0x2C
	NKClassNameOffset    = 0x30
	NKNameLenOffset      = 0x48
	NKClassLenOffset     = 0x4A
	NKNameOffset         = 0x4C
	NKFixedHeaderSize    = NKNameOffset
	NKFlagRootKey        = 0x04
	NKFlagCompressedName = 0x20
)

// VK field offsets.
const (
	VKNameLenOffset  = 0x02
	VKDataLenOffset  = 0x04
	VKDataOffOffset  = 0x08
	VKTypeOffset     = 0x0C
	VKFlagsOffset    = 0x10
	VKNameOffset     = 0x14
	VKMinSize        = VKNameOffset
	VKFlagASCIIName  = 0x0001
	VKDataInlineBit  = 0x80000000
	VKDataLengthMask = 0x7FFFFFFF
)

// DB (big data) field offsets.
const (
	DBCountOffset = 0x02
	DBListOffset  = 0x04
	DBMinSize     = 0x0C

	// BigDataBlockSize is the largest data segment stored per block.
	// Values longer than this in a version 1.4+ hive use a db record.
	BigDataBlockSize = 16344
)

// Sanity limits applied while decoding untrusted input.
const (
	MaxSubkeyCount  = 1 << 20
	MaxValueCount   = 1 << 20
	MaxNameLen      = 0xFFFF
	MaxValueDataLen = 1 << 30
)
