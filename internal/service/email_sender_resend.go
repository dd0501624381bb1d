package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	resend "github.com/resend/resend-go/v2"
)

var errEmailSenderNotConfigured = errors.New("email sender not configured")

// ResendEmailSender delivers mail through the Resend API.
type ResendEmailSender struct {
	client *resend.Client
	from   string
}

// NewResendEmailSender returns a sender that fails every send when the key or sender address is missing.
func NewResendEmailSender(apiKey string, from string) *ResendEmailSender {
	if strings.TrimSpace(apiKey) == "" || strings.TrimSpace(from) == "" {
		return &ResendEmailSender{}
	}
	return &ResendEmailSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendEmailSender) Configured() bool {
	return s.client != nil
}

func (s *ResendEmailSender) Send(ctx context.Context, to string, subject string, htmlBody string) error {
	if s.client == nil {
		return errEmailSenderNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	sent, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    htmlBody,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if sent == nil || sent.Id == "" {
		return errors.New("resend: empty message id")
	}
	return nil
}
