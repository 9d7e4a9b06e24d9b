package yenc

import (
	"sort"

	"github.com/javi11/nntppool/v4/errs"
)

// Assembler accumulates completed yEnc Frames for one multipart file and
// reassembles the original payload once every part has arrived (§4.7).
type Assembler struct {
	filename string
	total    int
	parts    map[int]Frame
}

// NewAssembler starts an assembler for a file with the given expected part
// count. total is typically discovered from the first frame's Total field.
func NewAssembler(filename string, total int) *Assembler {
	return &Assembler{filename: filename, total: total, parts: make(map[int]Frame, total)}
}

// Insert adds a completed, already-decoded Frame. It rejects frames that
// disagree with the assembler's filename/total, duplicate an already-seen
// part index, or fail their own CRC32 check.
func (a *Assembler) Insert(f Frame) error {
	if f.Part == 0 {
		return errs.New(errs.KindProtocol, "yEnc: cannot insert a single-part frame into a multipart assembler")
	}
	if f.Filename != a.filename {
		return errs.New(errs.KindProtocol, "yEnc: frame filename does not match assembler")
	}
	if f.Total != 0 && a.total != 0 && f.Total != a.total {
		return errs.New(errs.KindProtocol, "yEnc: frame total part count does not match assembler")
	}
	if _, exists := a.parts[f.Part]; exists {
		return errs.New(errs.KindProtocol, "yEnc: duplicate part index")
	}
	if !f.VerifyCRC32() {
		return errs.New(errs.KindProtocol, "yEnc: part CRC32 mismatch")
	}
	a.parts[f.Part] = f
	return nil
}

// IsComplete reports whether every part in [1, total] has been inserted.
func (a *Assembler) IsComplete() bool {
	if a.total == 0 {
		return false
	}
	return len(a.parts) == a.total
}

// MissingParts returns the sorted indices of parts not yet received.
func (a *Assembler) MissingParts() []int {
	missing := make([]int, 0)
	for i := 1; i <= a.total; i++ {
		if _, ok := a.parts[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// Assemble concatenates decoded payloads in ascending part order. It
// returns an error if the assembler is not yet complete — no gap-fill or
// reordering heuristics are applied (§4.7).
func (a *Assembler) Assemble() ([]byte, error) {
	if !a.IsComplete() {
		return nil, errs.New(errs.KindProtocol, "yEnc: assembler is not complete")
	}

	indices := make([]int, 0, len(a.parts))
	for idx := range a.parts {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	out := make([]byte, 0, a.totalDecodedSize())
	for _, idx := range indices {
		out = append(out, a.parts[idx].Decoded...)
	}
	return out, nil
}

func (a *Assembler) totalDecodedSize() int {
	n := 0
	for _, f := range a.parts {
		n += len(f.Decoded)
	}
	return n
}
