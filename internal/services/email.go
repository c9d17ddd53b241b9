package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/resend/resend-go/v2"

	"github.com/topicless/hub/internal/logging"
)

// EmailSender delivers transactional mail. Implementations must be safe
// for concurrent use.
type EmailSender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ResendSender sends through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// SMTPSender delivers through a plain SMTP relay, typically Mailpit in
// local development.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host string, port int, from string) *SMTPSender {
	return &SMTPSender{addr: fmt.Sprintf("%s:%d", host, port), from: from}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, htmlBody string) error {
	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n",
		s.from, to, subject, htmlBody,
	)
	if err := smtp.SendMail(s.addr, nil, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// ConsoleSender logs mail instead of delivering it. Used in development
// so the confirm flow works without an API key.
type ConsoleSender struct {
	logger *logging.Logger
}

func NewConsoleSender(logger *logging.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (s *ConsoleSender) Send(_ context.Context, to, subject, htmlBody string) error {
	s.logger.Info("email (console delivery)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	})
	return nil
}
