package mail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-assessor/internal/dispatch"
)

func sampleMessage() *dispatch.Message {
	return &dispatch.Message{
		Recipient: "applicant@example.com",
		Subject:   "Your credit assessment: offer enclosed",
		TextBody:  "plain text body",
		HTMLBody:  "<html><body><p>html body</p></body></html>",
		Attachment: dispatch.Attachment{
			Filename: "credit-assessment.pdf",
			MimeType: "application/pdf",
			Bytes:    []byte("%PDF-1.4 fake content"),
		},
	}
}

func TestBuildMIMEMessage(t *testing.T) {
	raw := string(buildMIMEMessage("noreply@bank.example", sampleMessage()))

	assert.Contains(t, raw, "From: noreply@bank.example\r\n")
	assert.Contains(t, raw, "To: applicant@example.com\r\n")
	assert.Contains(t, raw, "Subject: Your credit assessment: offer enclosed\r\n")
	assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	assert.Contains(t, raw, "Content-Type: multipart/mixed;")
	assert.Contains(t, raw, "Content-Type: multipart/alternative;")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, raw, "plain text body")
	assert.Contains(t, raw, "<p>html body</p>")

	assert.Contains(t, raw, `Content-Disposition: attachment; filename="credit-assessment.pdf"`)
	assert.Contains(t, raw, "Content-Transfer-Encoding: base64")

	encoded := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake content"))
	assert.Contains(t, raw, encoded)
}

func TestBuildMIMEMessage_NoAttachment(t *testing.T) {
	msg := sampleMessage()
	msg.Attachment = dispatch.Attachment{}

	raw := string(buildMIMEMessage("noreply@bank.example", msg))

	assert.NotContains(t, raw, "Content-Disposition: attachment")
	assert.Contains(t, raw, "plain text body")
}

func TestWrapBase64(t *testing.T) {
	long := strings.Repeat("A", 200)

	wrapped := wrapBase64(long)

	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
	assert.Equal(t, long, strings.ReplaceAll(wrapped, "\r\n", ""))
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "plain local part", email: "applicant@example.com", expected: "applicant"},
		{name: "special characters removed", email: "first.last+tag@example.com", expected: "firstlastt"},
		{name: "truncated to ten characters", email: "averylongaddress@example.com", expected: "averylonga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeEmail(tt.email))
		})
	}
}

func TestGenerateMessageID(t *testing.T) {
	id := generateMessageID("applicant@example.com", "mail.bank.example")

	require.True(t, strings.HasPrefix(id, "<"))
	require.True(t, strings.HasSuffix(id, ">"))
	assert.Contains(t, id, "applicant@mail.bank.example")
}
