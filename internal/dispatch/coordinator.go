package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"credit-assessor/internal/assessment"
	"credit-assessor/internal/common/errors"
	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/common/metrics"
)

// Coordinator sequences summary -> PDF render -> message compose -> mail
// delivery. Either external call failing short-circuits the whole dispatch;
// nothing is partially sent and no retry happens here.
type Coordinator struct {
	renderer Renderer
	sender   Sender
	logger   logger.Logger
}

// NewCoordinator wires the two external collaborators.
func NewCoordinator(renderer Renderer, sender Sender, log logger.Logger) *Coordinator {
	return &Coordinator{
		renderer: renderer,
		sender:   sender,
		logger:   log.WithFields(map[string]interface{}{"component": "dispatch"}),
	}
}

// Dispatch implements assessment.Dispatcher.
func (c *Coordinator) Dispatch(ctx context.Context, summary assessment.CreditSummary, recipient string) (*assessment.DispatchReceipt, error) {
	start := time.Now()
	defer func() {
		metrics.DispatchDuration.Observe(time.Since(start).Seconds())
	}()

	pdfBytes, err := c.renderer.Render(ctx, summary)
	if err != nil {
		metrics.DispatchAttempts.WithLabelValues("render", "failure").Inc()
		c.logger.WithError(err).Error("summary rendering failed", map[string]interface{}{
			"recipient": recipient,
		})
		return nil, errors.NewPDFRenderFailedError(err.Error())
	}
	metrics.DispatchAttempts.WithLabelValues("render", "success").Inc()

	msg := &Message{
		Recipient: recipient,
		Subject:   subjectFor(summary),
		HTMLBody:  composeHTMLBody(summary),
		TextBody:  composeTextBody(summary),
		Attachment: Attachment{
			Filename: attachmentFilename,
			MimeType: attachmentMimeType,
			Bytes:    pdfBytes,
		},
	}

	if err := c.sender.Send(ctx, msg); err != nil {
		metrics.DispatchAttempts.WithLabelValues("deliver", "failure").Inc()
		c.logger.WithError(err).Error("summary delivery failed", map[string]interface{}{
			"recipient": recipient,
		})
		return nil, errors.NewEmailDeliveryFailedError(err.Error())
	}
	metrics.DispatchAttempts.WithLabelValues("deliver", "success").Inc()

	receipt := &assessment.DispatchReceipt{
		MessageID: uuid.NewString(),
		SentAt:    time.Now().UTC(),
	}

	c.logger.Info("summary dispatched", map[string]interface{}{
		"recipient": recipient,
		"messageId": receipt.MessageID,
		"pdfBytes":  len(pdfBytes),
	})

	return receipt, nil
}
