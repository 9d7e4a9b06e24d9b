package transport

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeflateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = w.Write([]byte("CAPABILITIES\r\n"))
	require.NoError(t, err)
	require.NoError(t, w.Flush())

	r := flate.NewReader(&buf)
	defer r.Close()
	out := make([]byte, 32)
	n, _ := r.Read(out)
	assert.Equal(t, "CAPABILITIES\r\n", string(out[:n]))
}

func TestGZIPResponseRoundTrip(t *testing.T) {
	// Build a tiny gzip payload the way a provider's [COMPRESS=GZIP]
	// response body would arrive, then verify ReadGZIPResponse recovers it.
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("224 overview follows\r\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	out, err := ReadGZIPResponse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "224 overview follows\r\n", string(out))
}

func TestBuildTLSConfigInsecure(t *testing.T) {
	cfg := buildTLSConfig(Config{Host: "news.example.com", InsecureTLS: true})
	assert.True(t, cfg.InsecureSkipVerify)
}

func TestBuildTLSConfigStrict(t *testing.T) {
	cfg := buildTLSConfig(Config{Host: "news.example.com"})
	assert.False(t, cfg.InsecureSkipVerify)
	assert.Equal(t, "news.example.com", cfg.ServerName)
}
