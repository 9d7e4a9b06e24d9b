// Package transport implements L2 of the NNTP client: TCP dialing with
// socket tuning, optional TLS, a buffered reader sized for high-throughput
// article downloads, and per-connection compression codecs (§4.2, §4.4).
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/javi11/nntppool/v4/errs"
	"github.com/klauspost/compress/flate"
)

const (
	// DefaultConnectTimeout bounds the TCP connect phase.
	DefaultConnectTimeout = 120 * time.Second
	// DefaultTLSHandshakeTimeout bounds the TLS handshake phase.
	DefaultTLSHandshakeTimeout = 60 * time.Second
	// BufReaderCapacity is the buffered-reader size used to coalesce
	// syscalls on large multi-line responses.
	BufReaderCapacity = 256 * 1024
	// defaultRecvBuffer and defaultSendBuffer mirror the original's socket2
	// tuning: large receive buffer for downloads, large send buffer for
	// pipelined command bursts.
	defaultRecvBuffer = 4 * 1024 * 1024
	defaultSendBuffer = 1 * 1024 * 1024
)

// Config describes how to reach and secure one connection to one server.
type Config struct {
	Host               string
	Port               int
	TLS                bool
	InsecureTLS        bool
	ConnectTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	Logger             *slog.Logger
}

// CompressionMode identifies the active per-connection compression codec.
type CompressionMode int

const (
	CompressionNone CompressionMode = iota
	CompressionDeflate
	// CompressionGZIPResponse marks that the *next single response* should
	// be read through a gzip reader rather than that the whole stream is
	// wrapped — the XFEATURE COMPRESS GZIP variant is per-response (§4.4,
	// §9 Open Question), unlike CompressionDeflate which wraps the stream.
	CompressionGZIPResponse
)

// Conn is a live transport connection: the raw network conn, a buffered
// reader over it (possibly compressed), and byte counters for telemetry.
type Conn struct {
	net.Conn
	Reader *bufio.Reader

	Compression       CompressionMode
	BytesCompressed   uint64
	BytesDecompressed uint64

	deflateWriter *flate.Writer

	log *slog.Logger
}

// Dial resolves, connects, tunes and (optionally) TLS-wraps a connection to
// cfg.Host:cfg.Port. It does not read the greeting — callers do that after
// Dial returns, per spec.md §4.2's layering ("Greeting" happens once
// transport is established).
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "transport")

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout == 0 {
		connectTimeout = DefaultConnectTimeout
	}
	handshakeTimeout := cfg.TLSHandshakeTimeout
	if handshakeTimeout == 0 {
		handshakeTimeout = DefaultTLSHandshakeTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	raw, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", addr)
	if err != nil {
		if dialCtx.Err() == context.DeadlineExceeded {
			return nil, errs.Wrap(errs.KindTimeout, "tcp connect timed out", err)
		}
		return nil, errs.Wrap(errs.KindIO, "tcp connect failed", err)
	}

	if tcpConn, ok := raw.(*net.TCPConn); ok {
		if rawConn, rcErr := tcpConn.SyscallConn(); rcErr == nil {
			actualRecv, actualSend, tuneErr := tuneSocket(rawConn, defaultRecvBuffer, defaultSendBuffer)
			if tuneErr != nil {
				log.WarnContext(ctx, "failed to tune socket buffers", "error", tuneErr)
			} else {
				log.DebugContext(ctx, "tuned tcp socket", "recv_buffer", actualRecv, "send_buffer", actualSend)
			}
		}
	}

	netConn := raw

	if cfg.TLS {
		tlsConfig := buildTLSConfig(cfg)
		tlsConn := tls.Client(raw, tlsConfig)

		handshakeCtx, hcancel := context.WithTimeout(ctx, handshakeTimeout)
		defer hcancel()

		if err := tlsConn.HandshakeContext(handshakeCtx); err != nil {
			_ = raw.Close()
			if handshakeCtx.Err() == context.DeadlineExceeded {
				return nil, errs.Wrap(errs.KindTimeout, "tls handshake timed out", err)
			}
			return nil, errs.Wrap(errs.KindTLS, "tls handshake failed", err)
		}
		netConn = tlsConn
	}

	conn := &Conn{
		Conn:   netConn,
		Reader: bufio.NewReaderSize(netConn, BufReaderCapacity),
		log:    log,
	}
	return conn, nil
}

// buildTLSConfig returns either a strict (platform root store) or an
// insecure (accept-any-certificate) TLS client config, per spec.md §4.2.
// The insecure config only sets InsecureSkipVerify; there is no custom
// verifier, and crypto/tls still advertises its default signature-scheme
// list, so the handshake completes.
func buildTLSConfig(cfg Config) *tls.Config {
	if !cfg.InsecureTLS {
		return &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}

	if cfg.Logger != nil {
		cfg.Logger.Warn("TLS certificate validation disabled - connection vulnerable to MITM attacks")
	}
	return &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
	}
}

// Write writes p straight to the underlying network connection. It does
// not go through the DEFLATE writer and updates no byte counter; only
// WriteCommand compresses.
func (c *Conn) Write(p []byte) (int, error) {
	return c.Conn.Write(p)
}

// Read satisfies io.Reader by delegating to the buffered reader so callers
// that hold a *Conn directly (rather than its Reader) still see buffering.
func (c *Conn) Read(p []byte) (int, error) {
	return c.Reader.Read(p)
}

var _ io.ReadWriteCloser = (*Conn)(nil)
