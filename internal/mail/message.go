package mail

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"credit-assessor/internal/dispatch"
)

// buildMIMEMessage assembles the raw RFC 2822 message: a multipart/mixed
// envelope holding a text/html alternative pair plus the base64-encoded
// attachment. Both the SMTP and SES transports send these exact bytes.
func buildMIMEMessage(from string, msg *dispatch.Message) []byte {
	mixedBoundary := "mixed-" + uuid.NewString()
	altBoundary := "alt-" + uuid.NewString()

	var b strings.Builder

	// Headers
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.Recipient))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%q\r\n", mixedBoundary))
	b.WriteString("\r\n")

	// Body: alternative part
	b.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
	b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", altBoundary))
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.TextBody)
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s\r\n", altBoundary))
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	b.WriteString("\r\n")

	b.WriteString(fmt.Sprintf("--%s--\r\n", altBoundary))

	// Attachment part
	if len(msg.Attachment.Bytes) > 0 {
		b.WriteString(fmt.Sprintf("--%s\r\n", mixedBoundary))
		b.WriteString(fmt.Sprintf("Content-Type: %s; name=%q\r\n", msg.Attachment.MimeType, msg.Attachment.Filename))
		b.WriteString("Content-Transfer-Encoding: base64\r\n")
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=%q\r\n", msg.Attachment.Filename))
		b.WriteString("\r\n")
		b.WriteString(wrapBase64(base64.StdEncoding.EncodeToString(msg.Attachment.Bytes)))
		b.WriteString("\r\n")
	}

	b.WriteString(fmt.Sprintf("--%s--\r\n", mixedBoundary))

	return []byte(b.String())
}

// wrapBase64 folds encoded content at 76 characters per RFC 2045.
func wrapBase64(encoded string) string {
	const lineLen = 76
	var b strings.Builder
	for len(encoded) > lineLen {
		b.WriteString(encoded[:lineLen])
		b.WriteString("\r\n")
		encoded = encoded[lineLen:]
	}
	b.WriteString(encoded)
	return b.String()
}

func generateMessageID(recipient, host string) string {
	timestamp := time.Now().UnixNano()
	return fmt.Sprintf("<%d.%s@%s>", timestamp, sanitizeEmail(recipient), host)
}

func sanitizeEmail(email string) string {
	// Extract local part before @ for message ID
	parts := strings.Split(email, "@")
	if len(parts) > 0 {
		// Remove any special characters and limit length
		local := strings.Map(func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
				return r
			}
			return -1
		}, parts[0])

		if len(local) > 10 {
			local = local[:10]
		}
		return local
	}
	return "user"
}
