package yenc

import (
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSinglePartVector(t *testing.T) {
	// Encodes "Hello World" (11 bytes) per §4.7's X+42 mod 256 mapping,
	// none of whose encoded bytes collide with CR/LF/NUL/'=' so no '='
	// escape is needed. crc32=4a17b156 is CRC32("Hello World"), so the
	// vector is self-consistent with the decoder instead of asserting
	// against an unrelated trailer.
	body := []byte("=ybegin line=128 size=11 name=test.txt\r\nr\x8f\x96\x96\x99J\x81\x99\x9c\x96\x8e\r\n=yend size=11 crc32=4a17b156\r\n")

	f, err := Decode(body)
	require.NoError(t, err)

	assert.Equal(t, "test.txt", f.Filename)
	assert.Equal(t, int64(11), f.Size)
	assert.Equal(t, []byte("Hello World"), f.Decoded)
	assert.True(t, f.VerifyCRC32())
}

func TestDecodeMissingYbeginIsProtocolError(t *testing.T) {
	_, err := Decode([]byte("hello\r\n=yend size=5 crc32=00000000\r\n"))
	require.Error(t, err)
}

func TestDecodeMissingYendIsProtocolError(t *testing.T) {
	_, err := Decode([]byte("=ybegin line=128 size=5 name=a.txt\r\nhello\r\n"))
	require.Error(t, err)
}

func TestDecodeMultipartRequiresYpart(t *testing.T) {
	_, err := Decode([]byte("=ybegin part=1 total=2 line=128 size=20 name=a.txt\r\nhello\r\n=yend size=10 pcrc32=00000000\r\n"))
	require.Error(t, err)
}

func verifiedPart(part, total int, payload []byte) Frame {
	f := Frame{Filename: "a.txt", Total: total, Part: part, Decoded: payload, HasPCRC32: true}
	f.TrailerPCRC32 = crc32.ChecksumIEEE(payload)
	f.CalculatedCRC32 = f.TrailerPCRC32
	return f
}

func TestAssemblerAssemblesTwoParts(t *testing.T) {
	a := NewAssembler("a.txt", 2)

	part1 := verifiedPart(1, 2, make([]byte, 10))
	part2 := verifiedPart(2, 2, make([]byte, 10))

	require.NoError(t, a.Insert(part2))
	assert.False(t, a.IsComplete())
	assert.Equal(t, []int{1}, a.MissingParts())

	require.NoError(t, a.Insert(part1))
	assert.True(t, a.IsComplete())

	out, err := a.Assemble()
	require.NoError(t, err)
	assert.Len(t, out, 20)
}

func TestAssemblerRejectsDuplicatePart(t *testing.T) {
	a := NewAssembler("a.txt", 2)
	part1 := verifiedPart(1, 2, make([]byte, 10))

	require.NoError(t, a.Insert(part1))
	require.Error(t, a.Insert(part1))
}

func TestAssemblerRejectsFilenameMismatch(t *testing.T) {
	a := NewAssembler("a.txt", 2)
	other := verifiedPart(1, 2, make([]byte, 10))
	other.Filename = "b.txt"

	require.Error(t, a.Insert(other))
}
