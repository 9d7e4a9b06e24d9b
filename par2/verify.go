package par2

import (
	"crypto/md5"
	"hash/crc32"

	"github.com/javi11/nntppool/v4/errs"
	"golang.org/x/sync/errgroup"
)

// MapSlices builds the global slice-index → owning-file mapping, in Main
// packet file order, the way verification.rs's map_slices does: each
// file contributes ceil(length / slice_size) slices, the last sized to
// whatever remains.
func (f *File) MapSlices() ([]SliceMapping, error) {
	sliceSize := f.SliceSize()
	if f.Main == nil || sliceSize == 0 {
		return nil, errs.New(errs.KindProtocol, "PAR2: no main packet found")
	}

	var mappings []SliceMapping
	for _, fileID := range f.Main.FileIDs {
		desc, ok := f.FileDescriptions[fileID]
		if !ok {
			return nil, errs.New(errs.KindProtocol, "PAR2: file id not found in file descriptions")
		}

		var fileSlices uint64
		if desc.Length != 0 {
			fileSlices = (desc.Length + sliceSize - 1) / sliceSize
		}

		for i := uint64(0); i < fileSlices; i++ {
			offset := i * sliceSize
			remaining := desc.Length - offset
			size := sliceSize
			if remaining < size {
				size = remaining
			}
			mappings = append(mappings, SliceMapping{
				FileID:         fileID,
				Filename:       desc.Name,
				FileSliceIndex: int(i),
				Offset:         offset,
				Size:           size,
			})
		}
	}
	return mappings, nil
}

// IdentifyDamagedSlices returns the global indices of damaged and missing
// slices across every file, given each file's actual bytes.
func (f *File) IdentifyDamagedSlices(fileData map[[16]byte][]byte) (damaged, missing []int, err error) {
	mappings, err := f.MapSlices()
	if err != nil {
		return nil, nil, err
	}

	for idx, mapping := range mappings {
		data, ok := fileData[mapping.FileID]
		if !ok || len(data) == 0 {
			missing = append(missing, idx)
			continue
		}

		ifsc, ok := f.IFSCPackets[mapping.FileID]
		if !ok {
			continue
		}
		if sliceDamaged(data, ifsc, mapping) {
			damaged = append(damaged, idx)
		}
	}
	return damaged, missing, nil
}

func sliceDamaged(fileData []byte, ifsc IFSCPacket, mapping SliceMapping) bool {
	if mapping.FileSliceIndex >= len(ifsc.Checksums) {
		return false
	}
	expected := ifsc.Checksums[mapping.FileSliceIndex]

	start := int(mapping.Offset)
	if start >= len(fileData) {
		return true // truncated
	}
	end := start + int(mapping.Size)
	if end > len(fileData) {
		end = len(fileData)
	}
	return crc32.ChecksumIEEE(fileData[start:end]) != expected
}

// SliceSummary returns a full slice-level view of the set, for recovery
// planning (§8's PAR2 testable properties).
func (f *File) SliceSummary(fileData map[[16]byte][]byte) (SliceSummary, error) {
	mappings, err := f.MapSlices()
	if err != nil {
		return SliceSummary{}, err
	}
	damaged, missing, err := f.IdentifyDamagedSlices(fileData)
	if err != nil {
		return SliceSummary{}, err
	}
	return SliceSummary{
		TotalDataSlices:    len(mappings),
		RecoverySliceCount: f.RecoverySliceCount(),
		SliceMappings:      mappings,
		DamagedSlices:      damaged,
		MissingSlices:      missing,
	}, nil
}

// VerifyFile checks one file's data against its PAR2 metadata: MD5 of the
// whole file, MD5 of the first 16KiB, and (if hashes mismatch) per-slice
// CRC32 via the file's IFSC packet.
func (f *File) VerifyFile(fileData []byte, fileID [16]byte) (FileVerification, error) {
	desc, ok := f.FileDescriptions[fileID]
	if !ok {
		return FileVerification{}, errs.New(errs.KindProtocol, "PAR2: file id not found")
	}

	if len(fileData) == 0 {
		return FileVerification{
			FileID:       fileID,
			Filename:     desc.Name,
			ExpectedSize: desc.Length,
			Status:       FileMissing,
		}, nil
	}

	if uint64(len(fileData)) != desc.Length {
		falseVal := false
		return FileVerification{
			FileID:       fileID,
			Filename:     desc.Name,
			ExpectedSize: desc.Length,
			Status:       FileDamaged,
			HashMatch:    &falseVal,
		}, nil
	}

	fileHash := md5.Sum(fileData)
	hashMatch := fileHash == desc.FileMD5

	head := fileData
	if len(head) > 16384 {
		head = head[:16384]
	}
	head16k := md5.Sum(head)
	hash16kMatch := head16k == desc.Hash16k

	if hashMatch && hash16kMatch {
		t := true
		return FileVerification{
			FileID:       fileID,
			Filename:     desc.Name,
			ExpectedSize: desc.Length,
			Status:       FileComplete,
			HashMatch:    &t,
			Hash16kMatch: &t,
		}, nil
	}

	var damagedSlices []int
	if ifsc, ok := f.IFSCPackets[fileID]; ok {
		damagedSlices = verifySlices(fileData, ifsc, f.SliceSize())
	}

	status := FileComplete
	if len(damagedSlices) > 0 || !hashMatch {
		status = FileDamaged
	}

	return FileVerification{
		FileID:        fileID,
		Filename:      desc.Name,
		ExpectedSize:  desc.Length,
		Status:        status,
		DamagedSlices: damagedSlices,
		HashMatch:     &hashMatch,
		Hash16kMatch:  &hash16kMatch,
	}, nil
}

// verifySlices checks each of a file's slices against its IFSC checksums,
// returning the 0-based indices of damaged (or truncated) slices.
func verifySlices(fileData []byte, ifsc IFSCPacket, sliceSize uint64) []int {
	var damaged []int
	for idx, expected := range ifsc.Checksums {
		start := idx * int(sliceSize)
		if start >= len(fileData) {
			damaged = append(damaged, idx)
			continue
		}
		end := start + int(sliceSize)
		if end > len(fileData) {
			end = len(fileData)
		}
		if crc32.ChecksumIEEE(fileData[start:end]) != expected {
			damaged = append(damaged, idx)
		}
	}
	return damaged
}

// VerifyAll verifies every file this PAR2 metadata describes, fanning the
// per-file MD5/CRC32 work out across goroutines with golang.org/x/sync's
// errgroup — the CPU-bound counterpart to the teacher's use of the same
// x/sync module's singleflight for collapsing concurrent requests
// (internal/arrs/data/manager.go); here there's no request to collapse,
// only independent hashing work to parallelize with a shared error.
func (f *File) VerifyAll(fileData map[[16]byte][]byte) ([]FileVerification, error) {
	fileIDs := make([][16]byte, 0, len(f.FileDescriptions))
	for fileID := range f.FileDescriptions {
		fileIDs = append(fileIDs, fileID)
	}

	results := make([]FileVerification, len(fileIDs))
	var g errgroup.Group
	for i, fileID := range fileIDs {
		i, fileID := i, fileID
		g.Go(func() error {
			v, err := f.VerifyFile(fileData[fileID], fileID)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// RecoveryPercentage returns the ratio of total recovery slices to total
// data slices across the set, as a percentage. 0.0 when there are no data
// slices, regardless of recovery slice count (§8).
func (s Set) RecoveryPercentage(fileData map[[16]byte][]byte) (float64, error) {
	summary, err := s.Main.SliceSummary(fileData)
	if err != nil {
		return 0, err
	}
	if summary.TotalDataSlices == 0 {
		return 0, nil
	}
	return float64(s.TotalRecoverySlices) / float64(summary.TotalDataSlices) * 100, nil
}

// CanRecover reports whether the set has enough recovery slices to repair
// every damaged and missing slice.
func (s Set) CanRecover(fileData map[[16]byte][]byte) (bool, error) {
	summary, err := s.Main.SliceSummary(fileData)
	if err != nil {
		return false, err
	}
	needed := len(summary.DamagedSlices) + len(summary.MissingSlices)
	return s.TotalRecoverySlices >= needed, nil
}
