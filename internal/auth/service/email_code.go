package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/mailer"
	"github.com/saludware/citamed/internal/auth/otp"
	"github.com/saludware/citamed/pkg/slogx"
)

// EmailCodeService issues and verifies the email one-time-code second factor.
// Codes live in the OTP cache; delivery is fire-and-forget so a slow or
// failing mail provider never blocks the login flow.
type EmailCodeService struct {
	Cache  *otp.Cache
	Mailer mailer.Mailer

	// Subject line for the code email. Empty uses a sensible default.
	Subject string
}

const defaultCodeSubject = "Your verification code"

// Send caches a fresh code for the principal and dispatches the email in the
// background. The cache write is the authoritative step: once it succeeds the
// code is verifiable whether or not the mail ever arrives.
func (s *EmailCodeService) Send(ctx context.Context, p domain.Principal) error {
	code, err := s.Cache.Issue(ctx, p.LoginKey())
	if err != nil {
		return fmt.Errorf("%w: issue email code: %w", ErrInfrastructure, err)
	}

	subject := s.Subject
	if subject == "" {
		subject = defaultCodeSubject
	}
	body := fmt.Sprintf(
		"Hello %s,\n\nYour verification code is %s. It expires in %s.\n\nIf you did not request this code, you can ignore this message.\n",
		p.DisplayName(), code, s.Cache.TTL().Round(time.Minute),
	)

	// Detach from the request context so an early client disconnect does not
	// cancel delivery mid-flight.
	logger := slogx.FromContext(ctx)
	sendCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.Mailer.Send(sendCtx, p.LoginKey(), subject, body); err != nil {
			logger.Error("email code delivery failed", "principal", p.LoginKey(), "error", err)
		}
	}()

	return nil
}

// Verify checks a submitted code against the cached one. Absent or expired
// codes are a plain false; a cache outage propagates as infrastructure
// failure rather than masquerading as a wrong code.
func (s *EmailCodeService) Verify(ctx context.Context, email, code string) (bool, error) {
	ok, err := s.Cache.Verify(ctx, email, code)
	if errors.Is(err, otp.ErrUnavailable) {
		return false, fmt.Errorf("%w: %w", ErrInfrastructure, err)
	}
	if err != nil {
		return false, fmt.Errorf("%w: verify email code: %w", ErrInfrastructure, err)
	}
	return ok, nil
}

// Invalidate consumes the current code after a successful verification so it
// cannot complete a second login.
func (s *EmailCodeService) Invalidate(ctx context.Context, email string) error {
	if err := s.Cache.Invalidate(ctx, email); err != nil {
		return fmt.Errorf("%w: invalidate email code: %w", ErrInfrastructure, err)
	}
	return nil
}
