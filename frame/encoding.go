package frame

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeBytes converts a raw wire byte sequence into a string, honoring
// spec.md §3's "UTF-8-or-Latin-1 byte sequences": valid UTF-8 is returned
// unchanged, anything else is treated as Latin-1 (ISO 8859-1), the same
// encoding/transform idiom the teacher uses for non-UTF-8 archive entry
// names (internal/importer/archive/sevenzip's unicode.UTF16 transform),
// generalized here to charmap's single-byte decoder.
func DecodeBytes(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), b)
	if err != nil {
		return string(b)
	}
	return string(out)
}
