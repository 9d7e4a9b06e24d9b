package frame

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Grounded in original_source/src/commands/response.rs's parse_response_line
// tests and spec.md §8 seed scenario 1.
func TestParseStatusLine(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		code    int
		message string
		wantErr bool
	}{
		{"simple", "200 ok", 200, "ok", false},
		{"no space", "200ok", 200, "ok", false},
		{"bom prefix", "﻿200 ok", 200, "ok", false},
		{"overflow digit", "99999 bad", 0, "", true},
		{"too short", "12", 0, "", true},
		{"trailing only", "200", 200, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := ParseStatusLine(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.code, resp.Code)
			assert.Equal(t, tc.message, resp.Message)
		})
	}
}

func TestParseStatusLineErrorSnippet(t *testing.T) {
	_, err := ParseStatusLine(strings.Repeat("9", 200))
	require.Error(t, err)
	assert.LessOrEqual(t, len(err.Error()), maxErrorSnippet+40)
}

func TestClassification(t *testing.T) {
	assert.True(t, Response{Code: 211}.IsSuccess())
	assert.True(t, Response{Code: 381}.IsContinuation())
	assert.True(t, Response{Code: 430}.IsError())
	assert.True(t, Response{Code: 100}.IsInformational())
}

func TestDotStuffRoundTrip(t *testing.T) {
	lines := []string{"normal line", ".leading dot", "..double dot", "plain"}
	for _, l := range lines {
		stuffed := Stuff(l)
		assert.Equal(t, l, Unstuff(stuffed))
	}
}

func TestUnstuffOnlyDropsOneDot(t *testing.T) {
	assert.Equal(t, ".foo", Unstuff("..foo"))
	assert.Equal(t, "foo", Unstuff("foo"))
}

func TestReadMultiLineBody(t *testing.T) {
	raw := "line one\r\n..double\r\nline three\r\n.\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	lines, err := ReadMultiLineBody(r)
	require.NoError(t, err)
	assert.Equal(t, []string{"line one", ".double", "line three"}, lines)
}

func TestReadMultiLineBodyMissingTerminator(t *testing.T) {
	raw := "line one\r\nline two\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	_, err := ReadMultiLineBody(r)
	require.Error(t, err)
}

func TestIsMultiLine(t *testing.T) {
	assert.True(t, IsMultiLine(224))
	assert.False(t, IsMultiLine(200))
}
