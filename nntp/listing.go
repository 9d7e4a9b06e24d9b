package nntp

import "context"

// Over issues OVER <range> and parses each body line (§4.3).
func (c *Client) Over(ctx context.Context, rng string) ([]OverviewLine, error) {
	resp, err := c.sendCommand(ctx, cmdOver(rng))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	lines := make([]OverviewLine, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		lines = append(lines, parseOverviewLine(l))
	}
	return lines, nil
}

// XOver issues XOVER <range>, identical wire shape to OVER for servers
// that only implement the legacy command name.
func (c *Client) XOver(ctx context.Context, rng string) ([]OverviewLine, error) {
	resp, err := c.sendCommand(ctx, cmdXOver(rng))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	lines := make([]OverviewLine, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		lines = append(lines, parseOverviewLine(l))
	}
	return lines, nil
}

// ListOverviewFmt issues LIST OVERVIEW.FMT, returning the declared field
// order verbatim.
func (c *Client) ListOverviewFmt(ctx context.Context) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdListOverviewFmt())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return resp.Lines, nil
}

// Hdr issues HDR <field> <range|msgid> and parses each body line.
func (c *Client) Hdr(ctx context.Context, field, spec string) ([]HeaderLine, error) {
	resp, err := c.sendCommand(ctx, cmdHdr(field, spec))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	out := make([]HeaderLine, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		if hl, ok := parseHdrLine(l); ok {
			out = append(out, hl)
		}
	}
	return out, nil
}

// ListHeaders issues LIST HEADERS [MSGID|RANGE].
func (c *Client) ListHeaders(ctx context.Context, spec string) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdListHeaders(spec))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return resp.Lines, nil
}

// ListActive issues LIST ACTIVE [wildmat].
func (c *Client) ListActive(ctx context.Context, wildmat string) ([]ActiveGroup, error) {
	resp, err := c.sendCommand(ctx, cmdList("ACTIVE", wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return parseActiveGroupLines(resp.Lines), nil
}

// ListRaw issues LIST <keyword> [wildmat] for the remaining variants
// (ACTIVE.TIMES, NEWSGROUPS, COUNTS, DISTRIBUTIONS, MODERATORS, MOTD,
// SUBSCRIPTIONS) and returns the raw body lines for the caller to parse
// with ParseKeyValueLine / ParseModeratorsLine as appropriate.
func (c *Client) ListRaw(ctx context.Context, keyword, wildmat string) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdList(keyword, wildmat))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return resp.Lines, nil
}

// ParseKeyValueLine exposes the (key, value) first-whitespace split used
// by LIST NEWSGROUPS and LIST DISTRIBUTIONS (§4.3).
func ParseKeyValueLine(line string) (key, value string, ok bool) {
	return parseKeyValueLine(line)
}

// ParseModeratorsLine exposes the (key, value) first-colon split used by
// LIST MODERATORS (§4.3).
func ParseModeratorsLine(line string) (key, value string, ok bool) {
	return parseModeratorsLine(line)
}

// Newgroups issues NEWGROUPS <date> <time> [GMT] (§4.3).
func (c *Client) Newgroups(ctx context.Context, date, timeStr string, gmt bool) ([]ActiveGroup, error) {
	resp, err := c.sendCommand(ctx, cmdNewgroups(date, timeStr, gmt))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return parseActiveGroupLines(resp.Lines), nil
}

// Newnews issues NEWNEWS <wildmat> <date> <time> [GMT], returning the
// matched message-ids verbatim.
func (c *Client) Newnews(ctx context.Context, wildmat, date, timeStr string, gmt bool) ([]string, error) {
	resp, err := c.sendCommand(ctx, cmdNewnews(wildmat, date, timeStr, gmt))
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, protocolError(resp)
	}
	return resp.Lines, nil
}
