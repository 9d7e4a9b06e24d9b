package nzb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNZB = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">
<nzb xmlns="http://www.newzbin.com/DTD/2003/nzb">
  <head>
    <meta type="title">Example Release</meta>
    <meta type="password">hunter2</meta>
  </head>
  <file poster="poster@example.com" date="1700000000" subject="[1/2] example.part01.rar">
    <groups>
      <group>alt.binaries.test</group>
    </groups>
    <segments>
      <segment bytes="500" number="2">part2@id</segment>
      <segment bytes="500" number="1">part1@id</segment>
    </segments>
  </file>
</nzb>`

func TestParseBasicDocument(t *testing.T) {
	n, err := Parse([]byte(sampleNZB))
	require.NoError(t, err)

	assert.Equal(t, "Example Release", n.Meta["title"])
	assert.Equal(t, "hunter2", n.Meta["password"])
	require.Len(t, n.Files, 1)

	f := n.Files[0]
	assert.Equal(t, "poster@example.com", f.Poster)
	assert.Equal(t, int64(1700000000), f.PostedAt)
	assert.Equal(t, []string{"alt.binaries.test"}, f.Groups)
	require.Len(t, f.Segments, 2)
	// Segments are recorded in document order, not sorted.
	assert.Equal(t, 2, f.Segments[0].Number)
	assert.Equal(t, 1, f.Segments[1].Number)
}

func TestTotalBytes(t *testing.T) {
	n, err := Parse([]byte(sampleNZB))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), n.TotalBytes())
}

func TestValidatePassesWithContiguousSegmentNumbers(t *testing.T) {
	n, err := Parse([]byte(sampleNZB))
	require.NoError(t, err)
	assert.NoError(t, n.Validate())
}

func TestValidateFailsWithNoFiles(t *testing.T) {
	n := NZB{Meta: map[string]string{}}
	assert.Error(t, n.Validate())
}

func TestValidateFailsWithGapInSegmentNumbers(t *testing.T) {
	n := NZB{
		Files: []File{{
			Segments: []Segment{
				{Number: 1, Bytes: 10, MessageID: "a"},
				{Number: 3, Bytes: 10, MessageID: "b"},
			},
		}},
	}
	assert.Error(t, n.Validate())
}

func TestParseAllParsesEachDocumentIndependently(t *testing.T) {
	results, err := ParseAll([][]byte{[]byte(sampleNZB), []byte(sampleNZB)})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Example Release", results[0].Meta["title"])
	assert.Equal(t, "Example Release", results[1].Meta["title"])
}

func TestParseAllPropagatesFirstError(t *testing.T) {
	_, err := ParseAll([][]byte{[]byte(sampleNZB), []byte("not xml")})
	require.Error(t, err)
}

func TestRoundTripParseEmitParse(t *testing.T) {
	original, err := Parse([]byte(sampleNZB))
	require.NoError(t, err)

	emitted, err := Emit(original)
	require.NoError(t, err)

	roundTripped, err := Parse(emitted)
	require.NoError(t, err)

	assert.Equal(t, len(original.Files), len(roundTripped.Files))
	assert.Equal(t, original.Meta, roundTripped.Meta)
	assert.Equal(t, original.TotalBytes(), roundTripped.TotalBytes())
}
