package par2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStreamMatchesParseOnTheSameBuffer(t *testing.T) {
	fileID := [16]byte{9, 9, 9}

	var buf bytes.Buffer
	buf.Write(buildMainPacket(100, [][16]byte{fileID}))
	buf.Write(buildFileDescPacket(fileID, 250, "file1.bin"))

	streamed, err := ParseStream(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	buffered, err := Parse(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, buffered.SetID, streamed.SetID)
	assert.Equal(t, buffered.SliceSize(), streamed.SliceSize())
	assert.Equal(t, buffered.FileDescriptions, streamed.FileDescriptions)

	mappings, err := streamed.MapSlices()
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	assert.Equal(t, uint64(50), mappings[2].Size)
}

func TestParseStreamSkipsUnknownPacketTypes(t *testing.T) {
	unknown := [16]byte{0xaa, 0xbb}
	var buf bytes.Buffer
	buf.Write(buildPacket(unknown, []byte("opaque body!")))
	buf.Write(buildMainPacket(64, nil))

	f, err := ParseStream(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(64), f.SliceSize())
}

func TestParseStreamRejectsMismatchedSetID(t *testing.T) {
	mainPkt := buildMainPacket(64, nil)

	otherSetID := [16]byte{9, 9, 9, 9}
	badPkt := buildPacket(PacketTypeCreator, []byte("mismatch\x00\x00\x00\x00"))
	copy(badPkt[32:48], otherSetID[:])

	var buf bytes.Buffer
	buf.Write(mainPkt)
	buf.Write(badPkt)

	_, err := ParseStream(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
}

func TestPacketReaderReadFileDescriptorRejectsWrongType(t *testing.T) {
	mainPkt := buildMainPacket(64, nil)
	pr := NewPacketReader(bytes.NewReader(mainPkt))

	header, err := pr.ReadHeader()
	require.NoError(t, err)

	_, err = pr.ReadFileDescriptor(header)
	require.Error(t, err)
}
