package nntp

import (
	"context"

	"github.com/javi11/nntppool/v4/errs"
)

// Authenticate drives the AUTHINFO USER/PASS state machine (§4.4). It must
// be called from StateReady. Re-authenticating from StateAuthenticated is
// rejected locally with a 502-shaped error without touching the wire,
// mirroring the RFC's "double authentication" rule.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.state == StateAuthenticated {
		return errs.Protocol(502, "already authenticated")
	}
	if c.config.Username == "" {
		return nil
	}

	resp, err := c.sendCommand(ctx, cmdAuthinfoUser(c.config.Username))
	if err != nil {
		return err
	}

	switch resp.Code {
	case 281:
		c.state = StateAuthenticated
		return nil
	case 381:
		c.state = StateInProgress
	case 481, 482:
		c.state = StateReady
		return errs.FromResponseCode(resp.Code, resp.Message)
	case 483:
		c.state = StateReady
		return errs.FromResponseCode(483, resp.Message)
	default:
		return protocolError(resp)
	}

	// RFC 4643 forbids pipelining AUTHINFO USER and PASS: the 381
	// continuation above must be observed before PASS is sent.
	passResp, err := c.sendCommand(ctx, cmdAuthinfoPass(c.config.Password))
	if err != nil {
		return err
	}
	switch passResp.Code {
	case 281:
		c.state = StateAuthenticated
		return nil
	case 481:
		c.state = StateReady
		return errs.FromResponseCode(481, passResp.Message)
	case 483:
		c.state = StateReady
		return errs.FromResponseCode(483, passResp.Message)
	default:
		return protocolError(passResp)
	}
}

// SASLMechanism is the small capability set for SASL auth mechanisms,
// the one place besides the TLS verifier where spec.md §9 allows dynamic
// dispatch over a closed set of implementations.
type SASLMechanism interface {
	Name() string
	InitialResponse() string
	ProcessChallenge(challenge string) (response string, err error)
	RequiresTLS() bool
}

// PlainSASL implements the PLAIN mechanism (RFC 4616) with no challenge
// round trip: the whole response is sent as the initial response.
type PlainSASL struct {
	Authzid  string
	Authcid  string
	Password string
}

func (p PlainSASL) Name() string { return "PLAIN" }

func (p PlainSASL) InitialResponse() string {
	return p.Authzid + "\x00" + p.Authcid + "\x00" + p.Password
}

func (p PlainSASL) ProcessChallenge(string) (string, error) { return "", nil }

func (p PlainSASL) RequiresTLS() bool { return true }

// AuthenticateSASL drives AUTHINFO SASL <mech> [initial-response], handling
// both the immediate-success (281/283) and challenge/continue (383) forms.
func (c *Client) AuthenticateSASL(ctx context.Context, mech SASLMechanism) error {
	if c.state == StateAuthenticated {
		return errs.Protocol(502, "already authenticated")
	}
	if mech.RequiresTLS() && !c.config.TLS {
		return errs.New(errs.KindEncryptionRequired, "SASL mechanism requires TLS")
	}

	resp, err := c.sendCommand(ctx, cmdAuthinfoSASL(mech.Name(), mech.InitialResponse()))
	if err != nil {
		return err
	}

	for resp.Code == 383 {
		response, perr := mech.ProcessChallenge(resp.Message)
		if perr != nil {
			return perr
		}
		resp, err = c.sendCommand(ctx, response+"\r\n")
		if err != nil {
			return err
		}
	}

	switch resp.Code {
	case 281, 283:
		c.state = StateAuthenticated
		return nil
	case 483:
		return errs.FromResponseCode(483, resp.Message)
	default:
		return errs.FromResponseCode(resp.Code, resp.Message)
	}
}

// TryEnableCompression attempts COMPRESS DEFLATE exactly once (§4.4). A
// non-2xx response (503/403/502/501) is not fatal: the connection stays
// usable uncompressed. Must be called after authentication and must not
// be followed by STARTTLS, AUTHINFO or MODE READER.
func (c *Client) TryEnableCompression(ctx context.Context) (bool, error) {
	resp, err := c.sendCommand(ctx, cmdCompressDeflate())
	if err != nil {
		return false, err
	}
	if resp.Code != 206 {
		c.log.DebugContext(ctx, "compression not activated", "code", resp.Code)
		return false, nil
	}
	if err := c.conn.EnableDeflate(); err != nil {
		return false, errs.Wrap(errs.KindIO, "failed to enable deflate codec", err)
	}
	c.log.DebugContext(ctx, "compression activated")
	return true, nil
}
