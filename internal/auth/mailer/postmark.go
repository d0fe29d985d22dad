package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var ErrInvalidConfig = errors.New("mailer: invalid configuration")

// PostmarkConfig configures the Postmark transport.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	SenderEmail  string
}

// PostmarkMailer delivers through Postmark's transactional API.
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

// NewPostmarkMailer creates a Postmark-backed mailer. All fields are
// required; failing fast here beats silent delivery failures later.
func NewPostmarkMailer(cfg PostmarkConfig) (*PostmarkMailer, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", ErrInvalidConfig)
	}
	if cfg.SenderEmail == "" {
		return nil, fmt.Errorf("%w: SenderEmail is required", ErrInvalidConfig)
	}

	return &PostmarkMailer{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		sender: cfg.SenderEmail,
	}, nil
}

func (m *PostmarkMailer) Send(ctx context.Context, to, subject, body string) error {
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.sender,
		To:       to,
		Subject:  subject,
		TextBody: body,
	})
	if err != nil {
		return fmt.Errorf("mailer: postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("mailer: postmark error %d: %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
