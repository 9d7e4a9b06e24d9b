package nntp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeArticleDotStuffingAndOrder(t *testing.T) {
	art := Article{
		Date:       "Mon, 01 Jan 2024 00:00:00 GMT",
		From:       "a@b.com",
		MessageID:  "<abc@example.com>",
		Newsgroups: []string{"alt.test", "alt.binaries.test"},
		Subject:    "hi",
		Body:       []string{"normal", ".dotted", "end"},
	}
	out := SerializeArticle(art)

	lines := strings.Split(out, "\r\n")
	assert.Equal(t, "Date: Mon, 01 Jan 2024 00:00:00 GMT", lines[0])
	assert.Equal(t, "From: a@b.com", lines[1])
	assert.Equal(t, "Message-ID: <abc@example.com>", lines[2])
	assert.Equal(t, "Newsgroups: alt.test,alt.binaries.test", lines[3])
	assert.Equal(t, "Subject: hi", lines[4])
	assert.Equal(t, "", lines[5])
	assert.Equal(t, "normal", lines[6])
	assert.Equal(t, "..dotted", lines[7])
	assert.Equal(t, "end", lines[8])
	assert.Equal(t, ".", lines[9])
	assert.True(t, strings.HasSuffix(out, ".\r\n"))
}
