package filter

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRawMessage(t *testing.T) {
	headerBlock, body := splitRawMessage([]byte("From: a@b.c\r\nSubject: hi\r\n\r\nhello world"))
	assert.Equal(t, "From: a@b.c\r\nSubject: hi", headerBlock)
	assert.Equal(t, "hello world", string(body))

	headerBlock, body = splitRawMessage([]byte("From: a@b.c\n\nbody"))
	assert.Equal(t, "From: a@b.c", headerBlock)
	assert.Equal(t, "body", string(body))

	headerBlock, body = splitRawMessage([]byte("From: a@b.c\r\nSubject: no body"))
	assert.Equal(t, "From: a@b.c\r\nSubject: no body", headerBlock)
	assert.Nil(t, body)
}

func TestExtractEmailAddress(t *testing.T) {
	assert.Equal(t, "user@example.com", extractEmailAddress("User Name <user@example.com>"))
	assert.Equal(t, "user@example.com", extractEmailAddress("user@example.com"))
	assert.Equal(t, "user@example.com", extractEmailAddress("  user@example.com  "))
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "example.com", senderDomain("IT Support <it@EXAMPLE.COM>"))
	assert.Equal(t, "example.com", senderDomain("it@example.com"))
	assert.Equal(t, "unknown", senderDomain("not-an-address"))
}

func TestExtractTextFromMultipartMessage(t *testing.T) {
	raw := strings.Join([]string{
		"From: a@b.c",
		"Content-Type: multipart/alternative; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"plain part",
		"--XYZ",
		"Content-Type: text/html",
		"",
		"<p>html part</p>",
		"--XYZ--",
		"",
	}, "\r\n")

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "plain part")
	assert.NotContains(t, text, "html part")
}

func TestExtractTextFromPlainMessage(t *testing.T) {
	raw := "From: a@b.c\r\nSubject: hi\r\n\r\njust some text"

	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)

	text, err := extractTextFromMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, "just some text", text)
}
