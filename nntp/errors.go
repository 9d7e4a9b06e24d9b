package nntp

import (
	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/frame"
)

// protocolError maps a non-success Response to a Kind-classified error,
// using the well-known code table first and falling back to a generic
// Protocol error (§7).
func protocolError(resp frame.Response) error {
	return errs.FromResponseCode(resp.Code, resp.Message)
}

func invalidResponse(message string) error {
	return errs.New(errs.KindInvalidResponse, message)
}
