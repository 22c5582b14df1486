package hive

import (
	"github.com/joshuapare/hivebatch/internal/format"
)

type candidate struct {
	offset uint32
	nk     format.NKRecord
}

// recoverDeleted scans free cells for NK records and attaches every record
// whose parent is a known key. Candidates whose parent is itself a recovered
// key are attached on a later pass.
func (h *Hive) recoverDeleted() {
	cands := h.freeKeyCandidates()
	for progress := true; progress && len(cands) > 0; {
		progress = false
		rest := cands[:0]
		for _, c := range cands {
			parent, ok := h.byOffset[c.nk.ParentOffset]
			if !ok {
				rest = append(rest, c)
				continue
			}
			k := h.newKey(c.offset, c.nk, parent, true)
			h.byOffset[c.offset] = k
			parent.subKeys = append(parent.subKeys, k)
			h.deleted++
			progress = true
		}
		cands = rest
	}
}

func (h *Hive) freeKeyCandidates() []candidate {
	var out []candidate
	off := format.HeaderSize
	for off < len(h.buf) {
		bin, next, err := format.NextHBIN(h.buf, off)
		if err != nil {
			break
		}
		_ = format.WalkCells(h.buf, bin, func(c format.Cell) bool {
			if !c.Free {
				return true
			}
			for i := 0; i+format.NKFixedHeaderSize <= len(c.Data); i += format.CellAlignment {
				if c.Data[i] != 'n' || c.Data[i+1] != 'k' {
					continue
				}
				nk, err := format.DecodeNK(c.Data[i:])
				if err != nil || nk.NameLength == 0 || nk.IsRoot() {
					continue
				}
				rel := uint32(c.Offset - format.HeaderSize + i)
				if _, live := h.byOffset[rel]; live {
					continue
				}
				out = append(out, candidate{offset: rel, nk: nk})
			}
			return true
		})
		off = next
	}
	return out
}
