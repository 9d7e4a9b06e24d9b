package transport

import (
	"bufio"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// EnableDeflate switches both directions of conn to DEFLATE framing. It
// must be called exactly once, immediately after a 206 response to
// COMPRESS DEFLATE, before any further command is issued. This is raw
// DEFLATE (RFC 1951), not zlib-wrapped (RFC 1950): commercial providers
// negotiate and send unwrapped DEFLATE on the wire despite RFC 8054's
// text, so flate.NewReader/NewWriter are used rather than zlib's.
func (c *Conn) EnableDeflate() error {
	fr := flate.NewReader(c.Reader)
	c.Reader = bufio.NewReaderSize(&countingReader{r: fr, counter: &c.BytesDecompressed}, BufReaderCapacity)

	fw, err := flate.NewWriter(c.Conn, flate.DefaultCompression)
	if err != nil {
		return err
	}
	c.deflateWriter = fw
	c.Compression = CompressionDeflate
	return nil
}

// WriteCommand writes a full command line, flushing the compressor after
// every write when compression is active so the server sees each command
// as soon as it's sent.
func (c *Conn) WriteCommand(line string) error {
	if c.Compression == CompressionDeflate && c.deflateWriter != nil {
		n, err := c.deflateWriter.Write([]byte(line))
		c.BytesCompressed += uint64(n)
		if err != nil {
			return err
		}
		return c.deflateWriter.Flush()
	}
	_, err := c.Conn.Write([]byte(line))
	return err
}

// countingReader tallies bytes read through it into *counter, used to
// maintain the decompressed-byte telemetry counter from §4.4.
type countingReader struct {
	r       io.Reader
	counter *uint64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	*cr.counter += uint64(n)
	return n, err
}

// ReadGZIPResponse decompresses exactly one response body through gzip,
// implementing the XFEATURE COMPRESS GZIP per-response variant (§4.4, §9
// Open Question): unlike DEFLATE this does not alter the connection's
// steady-state framing, it only applies to the one response whose status
// line carried the "[COMPRESS=GZIP]" marker.
func ReadGZIPResponse(body []byte) ([]byte, error) {
	gr, err := gzip.NewReader(newByteReader(body))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(b []byte) *byteReader { return &byteReader{data: b} }

func (b *byteReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.pos:])
	b.pos += n
	return n, nil
}
