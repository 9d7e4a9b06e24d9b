package nntp

import (
	"testing"

	"github.com/javi11/nntppool/v4/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupResponse(t *testing.T) {
	resp := frame.Response{Code: 211, Message: "3000 1 3000 free.pt"}
	info, err := parseGroupResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, GroupInfo{Count: 3000, First: 1, Last: 3000}, info)
}

func TestParseGroupResponseTooFewTokens(t *testing.T) {
	resp := frame.Response{Code: 211, Message: "3000 1"}
	_, err := parseGroupResponse(resp)
	require.Error(t, err)
}

func TestParseOverviewLine(t *testing.T) {
	line := "12345\tTest Subject\tauthor@example.com\tMon, 01 Jan 2024\t<msg@id>\t<ref@id>\t1234\t50"
	ol := parseOverviewLine(line)
	assert.Equal(t, uint64(12345), ol.ArticleNumber)
	assert.Equal(t, "Test Subject", ol.Subject)
	assert.Equal(t, uint64(1234), ol.Bytes)
	assert.Equal(t, uint64(50), ol.Lines)
}

func TestParseOverviewLineBadNumericFieldsAreZero(t *testing.T) {
	line := "abc\tsubj\tauthor\tdate\t<id>\t<ref>\tnotanumber\tnotalines"
	ol := parseOverviewLine(line)
	assert.Equal(t, uint64(0), ol.ArticleNumber)
	assert.Equal(t, uint64(0), ol.Bytes)
	assert.Equal(t, uint64(0), ol.Lines)
}

func TestParseActiveGroupLinesSkipsMalformed(t *testing.T) {
	lines := []string{
		"comp.lang.go 12345 1000 y",
		"malformed line",
		"alt.test 500 1 m",
	}
	groups := parseActiveGroupLines(lines)
	require.Len(t, groups, 2)
	assert.Equal(t, "comp.lang.go", groups[0].Name)
	assert.Equal(t, "alt.test", groups[1].Name)
}

func TestParseArticleInfoResponse(t *testing.T) {
	resp := frame.Response{Code: 223, Message: "42 <msgid@example.com>"}
	info, err := parseArticleInfoResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), info.Number)
	assert.Equal(t, "<msgid@example.com>", info.MessageID)
}

func TestParseHdrLine(t *testing.T) {
	hl, ok := parseHdrLine("42 Subject with spaces")
	require.True(t, ok)
	assert.Equal(t, uint64(42), hl.ArticleNumber)
	assert.Equal(t, "Subject with spaces", hl.Value)
}

func TestParseKeyValueLine(t *testing.T) {
	k, v, ok := parseKeyValueLine("comp.lang.go Group about the Go language")
	require.True(t, ok)
	assert.Equal(t, "comp.lang.go", k)
	assert.Equal(t, "Group about the Go language", v)
}

func TestParseModeratorsLine(t *testing.T) {
	k, v, ok := parseModeratorsLine("comp.lang.go: mod@example.com")
	require.True(t, ok)
	assert.Equal(t, "comp.lang.go", k)
	assert.Equal(t, "mod@example.com", v)
}

func TestCommandBuilders(t *testing.T) {
	assert.Equal(t, "GROUP alt.test\r\n", cmdGroup("alt.test"))
	assert.Equal(t, "ARTICLE <id@example.com>\r\n", cmdArticle("<id@example.com>"))
	assert.Equal(t, "AUTHINFO USER bob\r\n", cmdAuthinfoUser("bob"))
	assert.Equal(t, "AUTHINFO PASS secret\r\n", cmdAuthinfoPass("secret"))
	assert.Equal(t, "NEWGROUPS 20240101 000000 GMT\r\n", cmdNewgroups("20240101", "000000", true))
	assert.Equal(t, "LIST ACTIVE alt.*\r\n", cmdList("ACTIVE", "alt.*"))
	assert.Equal(t, "LISTGROUP\r\n", cmdListgroup("", ""))
}
