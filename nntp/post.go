package nntp

import (
	"context"
	"fmt"
	"strings"

	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/frame"
)

// SerializeArticle renders an Article for POST/IHAVE: headers in canonical
// order, a blank line, then the dot-stuffed, CRLF-terminated body (§4.3).
func SerializeArticle(art Article) string {
	var b strings.Builder

	writeHeader := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", name, value)
		}
	}

	writeHeader("Date", art.Date)
	writeHeader("From", art.From)
	writeHeader("Message-ID", art.MessageID)
	if len(art.Newsgroups) > 0 {
		writeHeader("Newsgroups", strings.Join(art.Newsgroups, ","))
	}
	writeHeader("Path", art.Path)
	writeHeader("Subject", art.Subject)

	if len(art.References) > 0 {
		writeHeader("References", strings.Join(art.References, " "))
	}
	writeHeader("Reply-To", art.ReplyTo)
	writeHeader("Organization", art.Organization)
	if len(art.FollowupTo) > 0 {
		writeHeader("Followup-To", strings.Join(art.FollowupTo, ","))
	}
	writeHeader("Expires", art.Expires)
	writeHeader("Control", art.Control)
	writeHeader("Distribution", art.Distribution)
	writeHeader("Keywords", art.Keywords)
	writeHeader("Summary", art.Summary)
	writeHeader("Supersedes", art.Supersedes)
	writeHeader("Approved", art.Approved)
	if art.Lines != 0 {
		writeHeader("Lines", fmt.Sprintf("%d", art.Lines))
	}
	writeHeader("User-Agent", art.UserAgent)
	writeHeader("Xref", art.Xref)

	for k, v := range art.Extra {
		writeHeader(k, v)
	}

	b.WriteString("\r\n")

	for _, line := range art.Body {
		b.WriteString(frame.Stuff(line))
		b.WriteString("\r\n")
	}
	b.WriteString(".\r\n")

	return b.String()
}

// Post issues POST, waits for the 340 continuation, then sends the
// serialized, dot-stuffed article and reads the final response (§4.3).
func (c *Client) Post(ctx context.Context, art Article) error {
	resp, err := c.sendCommand(ctx, cmdPost())
	if err != nil {
		return err
	}
	if resp.Code != 340 {
		switch resp.Code {
		case 440:
			return errs.FromResponseCode(440, resp.Message)
		default:
			return protocolError(resp)
		}
	}

	finalResp, err := c.sendCommand(ctx, bodyOnly(SerializeArticle(art)))
	if err != nil {
		return err
	}
	switch finalResp.Code {
	case 240:
		return nil
	case 441:
		return errs.FromResponseCode(441, finalResp.Message)
	default:
		return protocolError(finalResp)
	}
}

// IHave issues IHAVE <id>; on a 335 continuation it transfers the article
// body, otherwise the server has declined the article (435/436/437).
func (c *Client) IHave(ctx context.Context, id string, art Article) error {
	resp, err := c.sendCommand(ctx, cmdIHave(id))
	if err != nil {
		return err
	}
	switch resp.Code {
	case 335:
		// continue below
	case 435:
		return errs.FromResponseCode(435, resp.Message)
	case 436:
		return errs.FromResponseCode(436, resp.Message)
	case 437:
		return errs.FromResponseCode(437, resp.Message)
	default:
		return protocolError(resp)
	}

	finalResp, err := c.sendCommand(ctx, bodyOnly(SerializeArticle(art)))
	if err != nil {
		return err
	}
	switch finalResp.Code {
	case 235:
		return nil
	case 436:
		return errs.FromResponseCode(436, finalResp.Message)
	case 437:
		return errs.FromResponseCode(437, finalResp.Message)
	default:
		return protocolError(finalResp)
	}
}

// bodyOnly is a thin seam so Post/IHave's already-CRLF-terminated,
// dot-stuffed payload goes straight onto the wire via sendCommand without
// a second command-building pass.
func bodyOnly(serialized string) string { return serialized }
