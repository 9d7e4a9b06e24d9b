package nntp

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/javi11/nntppool/v4/errs"
	"github.com/javi11/nntppool/v4/frame"
)

// Article is a parsed article: fixed named header fields, optional named
// fields, an extras map for everything else, and the body lines (§3).
type Article struct {
	Date         string
	From         string
	MessageID    string
	Newsgroups   []string
	Path         string
	Subject      string
	References   []string
	ReplyTo      string
	Organization string
	FollowupTo   []string
	Expires      string
	Control      string
	Distribution string
	Keywords     string
	Summary      string
	Supersedes   string
	Approved     string
	Lines        int
	UserAgent    string
	Xref         string
	Extra        map[string]string

	Body []string
	Raw  string
}

// Article issues ARTICLE <id> and parses the full headers+body response.
func (c *Client) Article(ctx context.Context, id string) (Article, error) {
	resp, err := c.sendCommand(ctx, cmdArticle(id))
	if err != nil {
		return Article{}, err
	}
	if !resp.IsSuccess() {
		return Article{}, protocolError(resp)
	}
	return parseArticle(resp.Lines), nil
}

// Head issues HEAD <id> and parses only the headers.
func (c *Client) Head(ctx context.Context, id string) (Article, error) {
	resp, err := c.sendCommand(ctx, cmdHead(id))
	if err != nil {
		return Article{}, err
	}
	if !resp.IsSuccess() {
		return Article{}, protocolError(resp)
	}
	art := parseHeaders(resp.Lines)
	return art, nil
}

// Body issues BODY <id> and writes the body lines to w, each terminated by
// CRLF. The whole body is read into memory before the first write to w.
func (c *Client) Body(ctx context.Context, id string, w io.Writer) error {
	resp, err := c.sendCommand(ctx, cmdBody(id))
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return protocolError(resp)
	}
	for _, line := range resp.Lines {
		if _, err := io.WriteString(w, line+"\r\n"); err != nil {
			return errs.Wrap(errs.KindIO, "failed writing article body", err)
		}
	}
	return nil
}

// splitHeaderBody locates the blank-line boundary between headers and body
// in a full ARTICLE response's lines.
func splitHeaderBody(lines []string) ([]string, []string) {
	for i, line := range lines {
		if line == "" {
			return lines[:i], lines[i+1:]
		}
	}
	return lines, nil
}

func parseArticle(lines []string) Article {
	headerLines, bodyLines := splitHeaderBody(lines)
	art := parseHeaders(headerLines)
	art.Body = bodyLines
	art.Raw = strings.Join(lines, "\r\n")
	return art
}

func parseHeaders(lines []string) Article {
	art := Article{Extra: map[string]string{}}
	raw := map[string]string{}
	var lastKey string
	for _, line := range lines {
		if lastKey != "" && (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) {
			// RFC 5536 header folding: continuation of the previous field.
			appendFolded(&art, raw, lastKey, strings.TrimSpace(line))
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := frame.DecodeBytes([]byte(strings.TrimSpace(line[idx+1:])))
		lastKey = key
		raw[key] = value
		setHeader(&art, key, value)
	}
	return art
}

func appendFolded(art *Article, raw map[string]string, key, cont string) {
	raw[key] += " " + cont
	setHeader(art, key, raw[key])
}

func setHeader(art *Article, key, value string) {
	switch strings.ToLower(key) {
	case "date":
		art.Date = value
	case "from":
		art.From = value
	case "message-id":
		art.MessageID = value
	case "newsgroups":
		art.Newsgroups = splitCommaList(value)
	case "path":
		art.Path = value
	case "subject":
		art.Subject = value
	case "references":
		art.References = strings.Fields(value)
	case "reply-to":
		art.ReplyTo = value
	case "organization":
		art.Organization = value
	case "followup-to":
		art.FollowupTo = splitCommaList(value)
	case "expires":
		art.Expires = value
	case "control":
		art.Control = value
	case "distribution":
		art.Distribution = value
	case "keywords":
		art.Keywords = value
	case "summary":
		art.Summary = value
	case "supersedes":
		art.Supersedes = value
	case "approved":
		art.Approved = value
	case "lines":
		if n, err := strconv.Atoi(value); err == nil {
			art.Lines = n
		}
	case "user-agent":
		art.UserAgent = value
	case "xref":
		art.Xref = value
	default:
		art.Extra[key] = value
	}
}

func splitCommaList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
