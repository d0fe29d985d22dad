// Package mailer is the email delivery capability. Callers treat dispatch as
// fire-and-forget: a delivery failure is logged, never surfaced to the
// request that triggered it.
package mailer

import (
	"context"
	"log/slog"
)

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes outbound mail to the log instead of delivering it. Used
// in dev and in tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("mail (not delivered, log transport)",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
