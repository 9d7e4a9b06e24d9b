package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeBytesPassesThroughValidUTF8(t *testing.T) {
	assert.Equal(t, "héllo", DecodeBytes([]byte("héllo")))
}

func TestDecodeBytesFallsBackToLatin1(t *testing.T) {
	// 0xE9 is "é" in Latin-1 but not valid as a standalone UTF-8 byte.
	latin1 := []byte{'r', 0xE9, 's', 'u', 'm', 0xE9}
	assert.Equal(t, "résumé", DecodeBytes(latin1))
}
