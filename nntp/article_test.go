package nntp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArticleHeadersAndBody(t *testing.T) {
	lines := []string{
		"Date: Mon, 01 Jan 2024 00:00:00 GMT",
		"From: poster@example.com",
		"Message-ID: <abc@example.com>",
		"Newsgroups: alt.test, alt.binaries.test",
		"Subject: hello world",
		"Lines: 2",
		"",
		"line one",
		"line two",
	}
	art := parseArticle(lines)
	assert.Equal(t, "poster@example.com", art.From)
	assert.Equal(t, "<abc@example.com>", art.MessageID)
	assert.Equal(t, []string{"alt.test", "alt.binaries.test"}, art.Newsgroups)
	assert.Equal(t, 2, art.Lines)
	assert.Equal(t, []string{"line one", "line two"}, art.Body)
}

func TestParseHeadersOnly(t *testing.T) {
	lines := []string{"From: a@b.com", "Subject: x"}
	art := parseHeaders(lines)
	assert.Equal(t, "a@b.com", art.From)
	assert.Nil(t, art.Body)
}

func TestSplitHeaderBodyNoBlankLine(t *testing.T) {
	lines := []string{"From: a@b.com"}
	headers, body := splitHeaderBody(lines)
	assert.Equal(t, lines, headers)
	assert.Nil(t, body)
}
