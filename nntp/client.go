// Package nntp implements L3 of the client: the protocol engine. It drives
// L1 (frame) and L2 (transport) through the command surface, the
// authentication/compression state machine, and article pipelining
// described in spec.md §4.3–§4.4.
package nntp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/frame"
	"github.com/javi11/nntppool/v4/transport"
)

// ServerConfig describes one server a Client can connect to (§6).
type ServerConfig struct {
	Host        string
	Port        int
	TLS         bool
	AllowInsecureTLS bool
	Username    string
	Password    string
}

// Client is a single NNTP session: one transport connection plus the
// protocol state machine layered over it. Not safe for concurrent use by
// multiple goroutines — callers own one Client per in-flight request,
// matching spec.md §5's "single-owner resource" rule.
type Client struct {
	conn   *transport.Conn
	config ServerConfig
	state  State

	currentGroup string
	broken       bool

	log *slog.Logger
}

// Dial connects to cfg's server, reads the greeting, and returns a Client
// in StateReady. It does not authenticate — call Authenticate afterward.
func Dial(ctx context.Context, cfg ServerConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "nntp-client", "host", cfg.Host)

	conn, err := transport.Dial(ctx, transport.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		TLS:         cfg.TLS,
		InsecureTLS: cfg.AllowInsecureTLS,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{conn: conn, config: cfg, state: StateReady, log: log}

	greeting, err := c.readStatusLine(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if greeting.Code != 200 && greeting.Code != 201 {
		_ = conn.Close()
		return nil, errs.Protocol(greeting.Code, greeting.Message)
	}

	log.DebugContext(ctx, "connected", "greeting_code", greeting.Code)
	return c, nil
}

// IsBroken reports whether the connection observed framing-invalid data,
// an I/O error, or a decompression failure and must be discarded (§5).
func (c *Client) IsBroken() bool { return c.broken }

// State returns the current authentication state.
func (c *Client) State() State { return c.state }

// CurrentGroup returns the currently selected newsgroup, if any.
func (c *Client) CurrentGroup() string { return c.currentGroup }

func (c *Client) markBroken() {
	c.broken = true
	c.state = StateBroken
}

// Close sends QUIT and closes the underlying transport, mirroring
// original_source/src/client/mod.rs's Drop debug log.
func (c *Client) Close(ctx context.Context) error {
	if c.state != StateClosed && c.state != StateBroken {
		_ = c.conn.WriteCommand(cmdQuit())
		_, _ = c.readStatusLine(ctx)
	}
	c.state = StateClosed
	c.log.DebugContext(ctx, "client closed")
	return c.conn.Close()
}

// readStatusLine reads and parses one status line, marking the connection
// Broken on any framing failure (§5's Broken-connection contract).
func (c *Client) readStatusLine(ctx context.Context) (frame.Response, error) {
	line, err := frame.ReadLine(c.conn.Reader)
	if err != nil {
		c.markBroken()
		return frame.Response{}, errs.Wrap(errs.KindIO, "failed to read status line", err)
	}
	resp, err := frame.ParseStatusLine(line)
	if err != nil {
		c.markBroken()
		return frame.Response{}, errs.Wrap(errs.KindInvalidResponse, "invalid status line", err)
	}
	return resp, nil
}

// readResponse reads a status line and, if its code is in the multi-line
// set, the following dot-terminated body.
func (c *Client) readResponse(ctx context.Context) (frame.Response, error) {
	resp, err := c.readStatusLine(ctx)
	if err != nil {
		return resp, err
	}
	if frame.IsMultiLine(resp.Code) {
		lines, err := frame.ReadMultiLineBody(c.conn.Reader)
		if err != nil {
			c.markBroken()
			return resp, errs.Wrap(errs.KindInvalidResponse, "truncated multi-line body", err)
		}
		resp.Lines = lines
	}
	return resp, nil
}

// sendCommand writes a single command line and reads back its response.
func (c *Client) sendCommand(ctx context.Context, line string) (frame.Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	}
	if err := c.conn.WriteCommand(line); err != nil {
		c.markBroken()
		return frame.Response{}, errs.Wrap(errs.KindIO, "failed to write command", err)
	}
	return c.readResponse(ctx)
}

// sendCommandStatusOnly writes a single command line and reads back only
// its status line, deliberately skipping readResponse's code-table-driven
// body read. Used by callers whose response code is ambiguous in the
// multi-line-or-not table (e.g. LISTGROUP's 211) and that must force or
// suppress the body read themselves.
func (c *Client) sendCommandStatusOnly(ctx context.Context, line string) (frame.Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	}
	if err := c.conn.WriteCommand(line); err != nil {
		c.markBroken()
		return frame.Response{}, errs.Wrap(errs.KindIO, "failed to write command", err)
	}
	return c.readStatusLine(ctx)
}

// Capabilities issues CAPABILITIES and returns the raw capability lines.
func (c *Client) Capabilities(ctx context.Context) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdCapabilities())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return resp.Lines, nil
}

// ModeReader issues MODE READER.
func (c *Client) ModeReader(ctx context.Context) error {
	resp, err := c.sendCommand(ctx, cmdModeReader())
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return protocolError(resp)
	}
	return nil
}

// Date issues DATE and returns the server's raw timestamp text (the text of
// its 111 reply).
func (c *Client) Date(ctx context.Context) (string, error) {
	resp, err := c.sendCommand(ctx, cmdDate())
	if err != nil {
		return "", err
	}
	if resp.Code != 111 {
		return "", protocolError(resp)
	}
	return resp.Message, nil
}

// Help issues HELP and returns the body lines.
func (c *Client) Help(ctx context.Context) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdHelp())
	if err != nil {
		return nil, err
	}
	return resp.Lines, nil
}

// SelectGroup issues GROUP <name>, updating currentGroup on success (§4.3).
func (c *Client) SelectGroup(ctx context.Context, name string) (GroupInfo, error) {
	resp, err := c.sendCommand(ctx, cmdGroup(name))
	if err != nil {
		return GroupInfo{}, err
	}
	info, err := parseGroupResponse(resp)
	if err != nil {
		if resp.Code == 411 {
			return GroupInfo{}, errs.FromResponseCode(411, resp.Message)
		}
		return GroupInfo{}, err
	}
	c.currentGroup = name
	return info, nil
}

// ListGroup issues LISTGROUP, returning the ordered article numbers.
//
// 211 is single-line for GROUP but multi-line (the article-number block,
// §4.3) for LISTGROUP, so it can't be keyed purely off frame.IsMultiLine's
// code table the way sendCommand's readResponse is. Read the status line
// with sendCommand's status-only path, then force the dot-terminated body
// read directly instead — leaving it unread would desync the connection
// for the next command.
func (c *Client) ListGroup(ctx context.Context, name, rng string) ([]uint64, error) {
	resp, err := c.sendCommandStatusOnly(ctx, cmdListgroup(name, rng))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	lines, err := frame.ReadMultiLineBody(c.conn.Reader)
	if err != nil {
		c.markBroken()
		return nil, errs.Wrap(errs.KindInvalidResponse, "truncated LISTGROUP body", err)
	}
	resp.Lines = lines
	nums := make([]uint64, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		var n uint64
		if _, scanErr := fmt.Sscanf(line, "%d", &n); scanErr == nil {
			nums = append(nums, n)
		}
	}
	if name != "" {
		c.currentGroup = name
	}
	return nums, nil
}

// Stat issues STAT <id>.
func (c *Client) Stat(ctx context.Context, id string) (ArticleInfo, error) {
	resp, err := c.sendCommand(ctx, cmdStat(id))
	if err != nil {
		return ArticleInfo{}, err
	}
	return parseArticleInfoResponse(resp)
}

// Next issues NEXT (§SUPPLEMENTED FEATURES).
func (c *Client) Next(ctx context.Context) (ArticleInfo, error) {
	resp, err := c.sendCommand(ctx, cmdNext())
	if err != nil {
		return ArticleInfo{}, err
	}
	return parseArticleInfoResponse(resp)
}

// Last issues LAST (§SUPPLEMENTED FEATURES).
func (c *Client) Last(ctx context.Context) (ArticleInfo, error) {
	resp, err := c.sendCommand(ctx, cmdLast())
	if err != nil {
		return ArticleInfo{}, err
	}
	return parseArticleInfoResponse(resp)
}

// deadlineFromContext returns ctx's deadline, or now plus fallback when ctx
// has none.
func deadlineFromContext(ctx context.Context, fallback time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(fallback)
}
