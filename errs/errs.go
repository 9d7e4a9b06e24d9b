// Package errs provides the tagged error taxonomy shared by every layer of
// the NNTP client: framing, transport, protocol, pooling and failover all
// report failures through a single Error type so callers can discriminate
// on Kind without parsing message strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for programmatic handling. Kinds map directly
// onto the taxonomy the protocol engine and pool observe on the wire.
type Kind string

const (
	KindIO                Kind = "io"
	KindTimeout           Kind = "timeout"
	KindTLS               Kind = "tls"
	KindInvalidResponse   Kind = "invalid_response"
	KindProtocol          Kind = "protocol"
	KindAuthFailed        Kind = "auth_failed"
	KindEncryptionRequired Kind = "encryption_required"
	KindNoSuchGroup       Kind = "no_such_group"
	KindNoSuchArticle     Kind = "no_such_article"
	KindNoGroupSelected   Kind = "no_group_selected"
	KindInvalidArticleNum Kind = "invalid_article_number"
	KindPostingNotAllowed Kind = "posting_not_permitted"
	KindPostingFailed     Kind = "posting_failed"
	KindArticleNotWanted  Kind = "article_not_wanted"
	KindTransferNotPossible Kind = "transfer_not_possible"
	KindTransferRejected  Kind = "transfer_rejected"
	KindConnectionClosed  Kind = "connection_closed"
	KindUTF8              Kind = "utf8"
	KindOther             Kind = "other"
)

// Error is the single error type surfaced across the module. Code is the
// raw NNTP response code when the error originated on the wire (0
// otherwise). Cause carries the underlying error for errors.Unwrap chains.
type Error struct {
	Kind    Kind
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("nntp error %d: %s", e.Code, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Kind so callers can do errors.Is(err, &errs.Error{Kind: errs.KindNoSuchArticle}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind == "" {
		return true
	}
	return t.Kind == e.Kind
}

// New builds a plain Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a Kind-classified Error.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Protocol builds a structured protocol error carrying the raw response
// code and text, per spec.md §7's Protocol{code, message} kind.
func Protocol(code int, message string) *Error {
	return &Error{Kind: KindProtocol, Code: code, Message: message}
}

// FromResponseCode maps a subset of well-known NNTP response codes to a
// specific, caller-convenient Kind. Codes with no specific mapping fall
// back to KindProtocol — callers still get Code and Message.
func FromResponseCode(code int, message string) *Error {
	switch code {
	case 411:
		return &Error{Kind: KindNoSuchGroup, Code: code, Message: message}
	case 412:
		return &Error{Kind: KindNoGroupSelected, Code: code, Message: message}
	case 420, 421, 422, 423:
		return &Error{Kind: KindInvalidArticleNum, Code: code, Message: message}
	case 430:
		return &Error{Kind: KindNoSuchArticle, Code: code, Message: message}
	case 435:
		return &Error{Kind: KindArticleNotWanted, Code: code, Message: message}
	case 436:
		return &Error{Kind: KindTransferNotPossible, Code: code, Message: message}
	case 437:
		return &Error{Kind: KindTransferRejected, Code: code, Message: message}
	case 440:
		return &Error{Kind: KindPostingNotAllowed, Code: code, Message: message}
	case 441:
		return &Error{Kind: KindPostingFailed, Code: code, Message: message}
	case 480, 481, 482:
		return &Error{Kind: KindAuthFailed, Code: code, Message: message}
	case 483:
		return &Error{Kind: KindEncryptionRequired, Code: code, Message: message}
	default:
		return &Error{Kind: KindProtocol, Code: code, Message: message}
	}
}

// IsNotFound reports whether err represents "no such article with that
// message-id" (430) — the one error the failover layer must not treat as
// a connection failure.
func IsNotFound(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindNoSuchArticle
}

// IsConnectionFailure reports whether err should trigger pool/failover
// handling (Broken connection, I/O, timeout, TLS) as opposed to an
// article-level protocol response that the caller must handle itself.
func IsConnectionFailure(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return true // unknown errors are treated conservatively as failures
	}
	switch e.Kind {
	case KindIO, KindTimeout, KindTLS, KindInvalidResponse, KindConnectionClosed:
		return true
	default:
		return false
	}
}
