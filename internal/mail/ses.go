package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/dispatch"
)

// SESSender delivers composed messages through AWS SES. It sends the same
// raw MIME bytes as the SMTP transport so attachments behave identically.
// It implements dispatch.Sender.
type SESSender struct {
	client *sesv2.Client
	from   string
	logger logger.Logger
}

func NewSESSender(ctx context.Context, region, from string, log logger.Logger) (*SESSender, error) {
	if from == "" {
		return nil, fmt.Errorf("ses from address is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
		logger: log.WithFields(map[string]interface{}{"transport": "ses"}),
	}, nil
}

func (s *SESSender) Send(ctx context.Context, msg *dispatch.Message) error {
	raw := buildMIMEMessage(s.from, msg)

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Recipient},
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	s.logger.Info("email sent", map[string]interface{}{
		"to":        msg.Recipient,
		"subject":   msg.Subject,
		"messageId": aws.ToString(out.MessageId),
	})

	return nil
}
