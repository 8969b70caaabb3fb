package dispatch

import (
	"context"

	"credit-assessor/internal/assessment"
)

// Renderer turns a summary into PDF bytes. Failures are opaque to the
// coordinator beyond the reported reason.
type Renderer interface {
	Render(ctx context.Context, summary assessment.CreditSummary) ([]byte, error)
}

// Attachment is the binary part of an outgoing message.
type Attachment struct {
	Filename string
	MimeType string
	Bytes    []byte
}

// Message is the fully composed mail handed to a Sender.
type Message struct {
	Recipient  string
	Subject    string
	HTMLBody   string
	TextBody   string
	Attachment Attachment
}

// Sender delivers a composed message. At-most-once, synchronous, fallible;
// retries belong to the transport's own contract, not the coordinator.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
