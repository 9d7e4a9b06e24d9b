package par2

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func md5Sum(b []byte) [16]byte { return md5.Sum(b) }

var testSetID = [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

func buildPacket(packetType [16]byte, body []byte) []byte {
	total := packetHeaderSize + len(body)
	buf := make([]byte, total)
	copy(buf[0:8], MagicBytes[:])
	binary.LittleEndian.PutUint64(buf[8:16], uint64(total))
	// PacketMD5 (16:32) left zero — not verified by Parse.
	copy(buf[32:48], testSetID[:])
	copy(buf[48:64], packetType[:])
	copy(buf[64:], body)
	return buf
}

func buildMainPacket(sliceSize uint64, fileIDs [][16]byte) []byte {
	body := make([]byte, 12+len(fileIDs)*16)
	binary.LittleEndian.PutUint64(body[0:8], sliceSize)
	binary.LittleEndian.PutUint32(body[8:12], uint32(len(fileIDs)))
	for i, id := range fileIDs {
		copy(body[12+i*16:], id[:])
	}
	return buildPacket(PacketTypeMain, body)
}

func buildFileDescPacket(fileID [16]byte, length uint64, name string) []byte {
	nameBytes := []byte(name)
	// NUL-terminate and pad to a multiple of 4.
	nameBytes = append(nameBytes, 0)
	for len(nameBytes)%4 != 0 {
		nameBytes = append(nameBytes, 0)
	}

	body := make([]byte, 56+len(nameBytes))
	copy(body[0:16], fileID[:])
	// FileMD5 and Hash16k left zero for this test.
	binary.LittleEndian.PutUint64(body[48:56], length)
	copy(body[56:], nameBytes)
	return buildPacket(PacketTypeFileDesc, body)
}

func TestParseMainAndFileDescriptionSliceMapping(t *testing.T) {
	fileID := [16]byte{9, 9, 9}

	var buf bytes.Buffer
	buf.Write(buildMainPacket(100, [][16]byte{fileID}))
	buf.Write(buildFileDescPacket(fileID, 250, "file1.bin"))

	f, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), f.SliceSize())

	mappings, err := f.MapSlices()
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	assert.Equal(t, uint64(100), mappings[0].Size)
	assert.Equal(t, uint64(100), mappings[1].Size)
	assert.Equal(t, uint64(50), mappings[2].Size)
	assert.Equal(t, uint64(0), mappings[0].Offset)
	assert.Equal(t, uint64(100), mappings[1].Offset)
	assert.Equal(t, uint64(200), mappings[2].Offset)
}

func TestMapSlicesWithoutMainPacketErrors(t *testing.T) {
	f := NewFile()
	_, err := f.MapSlices()
	require.Error(t, err)
}

func TestVerifyFileMissing(t *testing.T) {
	fileID := [16]byte{1}
	f := NewFile()
	f.FileDescriptions[fileID] = FileDescriptor{FileID: fileID, Length: 1000, Name: "test.bin"}

	v, err := f.VerifyFile(nil, fileID)
	require.NoError(t, err)
	assert.Equal(t, FileMissing, v.Status)
	assert.Equal(t, "test.bin", v.Filename)
}

func TestVerifyFileSizeMismatch(t *testing.T) {
	fileID := [16]byte{1}
	f := NewFile()
	f.FileDescriptions[fileID] = FileDescriptor{FileID: fileID, Length: 1000, Name: "test.bin"}

	v, err := f.VerifyFile([]byte("too short"), fileID)
	require.NoError(t, err)
	assert.Equal(t, FileDamaged, v.Status)
	require.NotNil(t, v.HashMatch)
	assert.False(t, *v.HashMatch)
}

func TestRecoveryPercentageZeroWhenNoDataSlices(t *testing.T) {
	f := NewFile()
	f.Main = &MainPacket{SliceSize: 100}
	s := Set{Main: f, TotalRecoverySlices: 5}

	pct, err := s.RecoveryPercentage(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, pct)
}

func TestVerifyAllCoversEveryFile(t *testing.T) {
	idA := [16]byte{1}
	idB := [16]byte{2}
	f := NewFile()
	f.FileDescriptions[idA] = FileDescriptor{FileID: idA, Length: 4, Name: "a.bin", FileMD5: md5Sum([]byte("data")), Hash16k: md5Sum([]byte("data"))}
	f.FileDescriptions[idB] = FileDescriptor{FileID: idB, Length: 1000, Name: "b.bin"}

	results, err := f.VerifyAll(map[[16]byte][]byte{idA: []byte("data")})
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[[16]byte]FileVerification{}
	for _, r := range results {
		byID[r.FileID] = r
	}
	assert.Equal(t, FileComplete, byID[idA].Status)
	assert.Equal(t, FileMissing, byID[idB].Status)
}

func TestCanRecover(t *testing.T) {
	fileID := [16]byte{7}
	f := NewFile()
	f.Main = &MainPacket{SliceSize: 100, FileIDs: [][16]byte{fileID}}
	f.FileDescriptions[fileID] = FileDescriptor{FileID: fileID, Length: 250, Name: "a.bin"}

	s := Set{Main: f, TotalRecoverySlices: 3}
	ok, err := s.CanRecover(map[[16]byte][]byte{}) // all 3 slices missing
	require.NoError(t, err)
	assert.True(t, ok)

	s.TotalRecoverySlices = 2
	ok, err = s.CanRecover(map[[16]byte][]byte{})
	require.NoError(t, err)
	assert.False(t, ok)
}
