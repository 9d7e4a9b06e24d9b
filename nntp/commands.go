package nntp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/javi11/nntppool/v4/frame"
)

// Command builders are pure functions of their arguments, per §4.3.

func cmdCapabilities() string    { return "CAPABILITIES\r\n" }
func cmdModeReader() string      { return "MODE READER\r\n" }
func cmdQuit() string            { return "QUIT\r\n" }
func cmdHelp() string            { return "HELP\r\n" }
func cmdDate() string            { return "DATE\r\n" }
func cmdAuthinfoUser(u string) string { return fmt.Sprintf("AUTHINFO USER %s\r\n", u) }
func cmdAuthinfoPass(p string) string { return fmt.Sprintf("AUTHINFO PASS %s\r\n", p) }
func cmdAuthinfoSASL(mech, initial string) string {
	if initial == "" {
		return fmt.Sprintf("AUTHINFO SASL %s\r\n", mech)
	}
	return fmt.Sprintf("AUTHINFO SASL %s %s\r\n", mech, initial)
}
func cmdGroup(name string) string { return fmt.Sprintf("GROUP %s\r\n", name) }
func cmdListgroup(name, rng string) string {
	switch {
	case name == "":
		return "LISTGROUP\r\n"
	case rng == "":
		return fmt.Sprintf("LISTGROUP %s\r\n", name)
	default:
		return fmt.Sprintf("LISTGROUP %s %s\r\n", name, rng)
	}
}
func cmdArticle(id string) string { return fmt.Sprintf("ARTICLE %s\r\n", id) }
func cmdHead(id string) string    { return fmt.Sprintf("HEAD %s\r\n", id) }
func cmdBody(id string) string    { return fmt.Sprintf("BODY %s\r\n", id) }
func cmdStat(id string) string    { return fmt.Sprintf("STAT %s\r\n", id) }
func cmdNext() string             { return "NEXT\r\n" }
func cmdLast() string             { return "LAST\r\n" }
func cmdOver(rng string) string {
	if rng == "" {
		return "OVER\r\n"
	}
	return fmt.Sprintf("OVER %s\r\n", rng)
}
func cmdXOver(rng string) string {
	if rng == "" {
		return "XOVER\r\n"
	}
	return fmt.Sprintf("XOVER %s\r\n", rng)
}
func cmdListOverviewFmt() string { return "LIST OVERVIEW.FMT\r\n" }
func cmdHdr(field, spec string) string {
	if spec == "" {
		return fmt.Sprintf("HDR %s\r\n", field)
	}
	return fmt.Sprintf("HDR %s %s\r\n", field, spec)
}
func cmdListHeaders(spec string) string {
	if spec == "" {
		return "LIST HEADERS\r\n"
	}
	return fmt.Sprintf("LIST HEADERS %s\r\n", spec)
}
func cmdList(keyword, wildmat string) string {
	switch {
	case keyword == "":
		return "LIST\r\n"
	case wildmat == "":
		return fmt.Sprintf("LIST %s\r\n", keyword)
	default:
		return fmt.Sprintf("LIST %s %s\r\n", keyword, wildmat)
	}
}
func cmdNewgroups(date, timeStr string, gmt bool) string {
	if gmt {
		return fmt.Sprintf("NEWGROUPS %s %s GMT\r\n", date, timeStr)
	}
	return fmt.Sprintf("NEWGROUPS %s %s\r\n", date, timeStr)
}
func cmdNewnews(wildmat, date, timeStr string, gmt bool) string {
	if gmt {
		return fmt.Sprintf("NEWNEWS %s %s %s GMT\r\n", wildmat, date, timeStr)
	}
	return fmt.Sprintf("NEWNEWS %s %s %s\r\n", wildmat, date, timeStr)
}
func cmdCompressDeflate() string  { return "COMPRESS DEFLATE\r\n" }
func cmdPost() string             { return "POST\r\n" }
func cmdIHave(id string) string   { return fmt.Sprintf("IHAVE %s\r\n", id) }

// ArticleInfo is returned by STAT, NEXT and LAST (§4.3, §SUPPLEMENTED
// FEATURES — NEXT/LAST share STAT's parser per original_source's
// commands/article.rs).
type ArticleInfo struct {
	Number    uint64
	MessageID string
}

// parseArticleInfoResponse parses "22n N <msgid>" into (number, message-id).
// The message-id portion is everything after the first token, rejoined with
// single spaces — RFC forbids embedded spaces but we tolerate them.
func parseArticleInfoResponse(resp frame.Response) (ArticleInfo, error) {
	if !resp.IsSuccess() {
		return ArticleInfo{}, protocolError(resp)
	}
	parts := strings.Fields(resp.Message)
	if len(parts) < 2 {
		return ArticleInfo{}, invalidResponse(resp.Message)
	}
	n, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return ArticleInfo{}, invalidResponse(resp.Message)
	}
	return ArticleInfo{Number: n, MessageID: strings.Join(parts[1:], " ")}, nil
}

// GroupInfo is returned by GROUP (§4.3).
type GroupInfo struct {
	Count uint64
	First uint64
	Last  uint64
}

// parseGroupResponse parses "211 count first last name" (§4.3, §8).
func parseGroupResponse(resp frame.Response) (GroupInfo, error) {
	if !resp.IsSuccess() {
		return GroupInfo{}, protocolError(resp)
	}
	parts := strings.Fields(resp.Message)
	if len(parts) < 3 {
		return GroupInfo{}, invalidResponse(resp.Message)
	}
	count, err1 := strconv.ParseUint(parts[0], 10, 64)
	first, err2 := strconv.ParseUint(parts[1], 10, 64)
	last, err3 := strconv.ParseUint(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return GroupInfo{}, invalidResponse(resp.Message)
	}
	return GroupInfo{Count: count, First: first, Last: last}, nil
}

// ActiveGroup is one line of LIST ACTIVE / NEWGROUPS output
// (§4.3, §SUPPLEMENTED FEATURES).
type ActiveGroup struct {
	Name   string
	High   uint64
	Low    uint64
	Status string
}

// parseActiveGroupLines parses LIST ACTIVE / NEWGROUPS body lines
// ("name high low status"), silently skipping malformed lines (§4.3, §8).
func parseActiveGroupLines(lines []string) []ActiveGroup {
	var groups []ActiveGroup
	for _, line := range lines {
		parts := strings.Fields(line)
		if len(parts) < 4 {
			continue
		}
		high, _ := strconv.ParseUint(parts[1], 10, 64)
		low, _ := strconv.ParseUint(parts[2], 10, 64)
		groups = append(groups, ActiveGroup{
			Name:   parts[0],
			High:   high,
			Low:    low,
			Status: parts[3],
		})
	}
	return groups
}

// OverviewLine is one parsed OVER/XOVER record (§4.3, §8).
type OverviewLine struct {
	ArticleNumber uint64
	Subject       string
	From          string
	Date          string
	MessageID     string
	References    string
	Bytes         uint64
	Lines         uint64
	Extra         []string
}

// parseOverviewLine splits a TAB-separated OVER/XOVER line in the default
// field order {number, Subject, From, Date, Message-ID, References, :bytes,
// :lines} plus any trailing optional fields (e.g. "Xref:full"). Fields
// that fail to parse as integers report 0, per §8's testable property.
func parseOverviewLine(line string) OverviewLine {
	fields := strings.Split(line, "\t")
	var ol OverviewLine
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	n, _ := strconv.ParseUint(get(0), 10, 64)
	ol.ArticleNumber = n
	ol.Subject = get(1)
	ol.From = get(2)
	ol.Date = get(3)
	ol.MessageID = get(4)
	ol.References = get(5)
	b, _ := strconv.ParseUint(get(6), 10, 64)
	ol.Bytes = b
	l, _ := strconv.ParseUint(get(7), 10, 64)
	ol.Lines = l
	if len(fields) > 8 {
		ol.Extra = fields[8:]
	}
	return ol
}

// HeaderLine is one parsed HDR response record (§4.3).
type HeaderLine struct {
	ArticleNumber uint64
	Value         string
}

// parseHdrLine splits "number value" on the first space; value may contain
// further spaces (§4.3).
func parseHdrLine(line string) (HeaderLine, bool) {
	idx := strings.IndexByte(line, ' ')
	if idx < 0 {
		return HeaderLine{}, false
	}
	n, err := strconv.ParseUint(line[:idx], 10, 64)
	if err != nil {
		return HeaderLine{}, false
	}
	return HeaderLine{ArticleNumber: n, Value: line[idx+1:]}, true
}

// parseKeyValueLine parses LIST NEWSGROUPS/DISTRIBUTIONS lines as
// (key, value) split on the first whitespace run.
func parseKeyValueLine(line string) (string, string, bool) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], strings.TrimSpace(line[idx+1:]), true
}

// parseModeratorsLine parses LIST MODERATORS lines as (key, value) split on
// the first colon, per §4.3.
func parseModeratorsLine(line string) (string, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}
