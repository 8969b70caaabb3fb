package dispatch

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
)

type stubRenderer struct {
	calls int
	bytes []byte
	err   error
}

func (r *stubRenderer) Render(_ context.Context, _ assessment.CreditSummary) ([]byte, error) {
	r.calls++
	return r.bytes, r.err
}

type stubSender struct {
	calls   int
	lastMsg *Message
	err     error
}

func (s *stubSender) Send(_ context.Context, msg *Message) error {
	s.calls++
	s.lastMsg = msg
	return s.err
}

func approvedSummary() assessment.CreditSummary {
	return assessment.CreditSummary{
		Recipient: "applicant@example.com",
		BasicAnswers: []assessment.QA{
			{Question: "Are you over 18 years of age?", Answer: "yes"},
		},
		FinancialAnswers: []assessment.QA{
			{Question: assessment.IncomeQuestionText, Answer: "$8,000"},
			{Question: assessment.ExpenseQuestionText, Answer: "$4,000"},
		},
		CreditAmount: 48000,
		Approved:     true,
		GeneratedAt:  time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCoordinator_Dispatch_Success(t *testing.T) {
	renderer := &stubRenderer{bytes: []byte("%PDF-1.4 fake")}
	sender := &stubSender{}
	coord := NewCoordinator(renderer, sender, logger.NewNoOpLogger())

	summary := approvedSummary()
	receipt, err := coord.Dispatch(context.Background(), summary, summary.Recipient)

	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.NotEmpty(t, receipt.MessageID)
	assert.False(t, receipt.SentAt.IsZero())

	assert.Equal(t, 1, renderer.calls)
	require.Equal(t, 1, sender.calls)

	msg := sender.lastMsg
	require.NotNil(t, msg)
	assert.Equal(t, "applicant@example.com", msg.Recipient)
	assert.Equal(t, subjectApproved, msg.Subject)
	assert.Equal(t, attachmentFilename, msg.Attachment.Filename)
	assert.Equal(t, attachmentMimeType, msg.Attachment.MimeType)
	assert.Equal(t, renderer.bytes, msg.Attachment.Bytes)
	assert.Contains(t, msg.TextBody, "credit line of $48,000")
	assert.Contains(t, msg.HTMLBody, "<strong>$48,000</strong>")
	assert.Contains(t, msg.TextBody, assessment.IncomeQuestionText)
}

func TestCoordinator_Dispatch_RejectionNotice(t *testing.T) {
	renderer := &stubRenderer{bytes: []byte("%PDF-1.4 fake")}
	sender := &stubSender{}
	coord := NewCoordinator(renderer, sender, logger.NewNoOpLogger())

	summary := approvedSummary()
	summary.Approved = false
	summary.FinancialAnswers = nil
	summary.CreditAmount = 0

	_, err := coord.Dispatch(context.Background(), summary, summary.Recipient)

	require.NoError(t, err)
	require.NotNil(t, sender.lastMsg)
	assert.Equal(t, subjectRejected, sender.lastMsg.Subject)
	assert.Contains(t, sender.lastMsg.TextBody, "cannot offer you a credit line")
}

func TestCoordinator_Dispatch_RenderFailureShortCircuits(t *testing.T) {
	renderer := &stubRenderer{err: stderrors.New("page overflow")}
	sender := &stubSender{}
	coord := NewCoordinator(renderer, sender, logger.NewNoOpLogger())

	receipt, err := coord.Dispatch(context.Background(), approvedSummary(), "applicant@example.com")

	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Equal(t, errors.ErrCodePDFRenderFailed, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "page overflow")
	assert.Equal(t, 0, sender.calls, "delivery must not be attempted after a render failure")
}

func TestCoordinator_Dispatch_DeliveryFailure(t *testing.T) {
	renderer := &stubRenderer{bytes: []byte("%PDF-1.4 fake")}
	sender := &stubSender{err: stderrors.New("connection refused")}
	coord := NewCoordinator(renderer, sender, logger.NewNoOpLogger())

	receipt, err := coord.Dispatch(context.Background(), approvedSummary(), "applicant@example.com")

	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Equal(t, errors.ErrCodeEmailDeliveryFailed, errors.CodeOf(err))
	assert.True(t, errors.IsRetryable(err))
	assert.Equal(t, 1, renderer.calls)
	assert.Equal(t, 1, sender.calls)
}
