// Package mail provides the delivery transports for assessment summaries.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"credit-assessor/internal/common/logger"
	"credit-assessor/internal/dispatch"
)

// SMTPConfig holds the settings of the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
}

func (c *SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("smtp host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("smtp port must be between 1 and 65535")
	}
	if c.From == "" {
		return fmt.Errorf("smtp from address is required")
	}
	return nil
}

// SMTPSender delivers composed messages over SMTP. It implements
// dispatch.Sender.
type SMTPSender struct {
	config *SMTPConfig
	logger logger.Logger
}

func NewSMTPSender(config *SMTPConfig, log logger.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: log.WithFields(map[string]interface{}{"transport": "smtp"}),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg *dispatch.Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	raw := buildMIMEMessage(s.config.From, msg)
	recipients := []string{msg.Recipient}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	var err error
	if s.config.UseTLS {
		err = s.sendWithTLS(addr, auth, s.config.From, recipients, raw)
	} else {
		err = smtp.SendMail(addr, auth, s.config.From, recipients, raw)
	}
	if err != nil {
		return err
	}

	s.logger.Info("email sent", map[string]interface{}{
		"to":        msg.Recipient,
		"subject":   msg.Subject,
		"messageId": generateMessageID(msg.Recipient, s.config.Host),
	})

	return nil
}

func (s *SMTPSender) sendWithTLS(addr string, auth smtp.Auth, from string, to []string, raw []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         s.config.Host,
		InsecureSkipVerify: false,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}

	for _, rcpt := range to {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err = w.Write(raw); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// TestConnection dials the configured server without sending anything.
func (s *SMTPSender) TestConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName:         s.config.Host,
			InsecureSkipVerify: false,
		}
		if err = client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	return client.Quit()
}
