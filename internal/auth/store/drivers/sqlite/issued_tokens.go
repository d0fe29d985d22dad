package sqlite

import (
	"context"
	"time"

	"github.com/saludware/citamed/internal/auth/domain"
)

type issuedTokensRepo struct {
	q querier
}

func (r *issuedTokensRepo) Create(ctx context.Context, t domain.IssuedToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO issued_tokens (id, principal_email, token_fingerprint, expired, revoked)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID,
		t.PrincipalEmail,
		t.TokenFingerprint,
		t.Expired,
		t.Revoked,
	)
	return err
}

func (r *issuedTokensRepo) GetByFingerprint(ctx context.Context, fingerprint string) (domain.IssuedToken, error) {
	var t domain.IssuedToken
	err := r.q.QueryRowContext(ctx, `
		SELECT id, principal_email, token_fingerprint, expired, revoked, created_at, updated_at
		FROM issued_tokens
		WHERE token_fingerprint = ?`, fingerprint).
		Scan(&t.ID, &t.PrincipalEmail, &t.TokenFingerprint, &t.Expired, &t.Revoked, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.IssuedToken{}, mapNotFound(err)
	}
	return t, nil
}

// RevokeAllActive flips both flags on every still-active row for the
// principal in one statement. Zero rows affected is not an error.
func (r *issuedTokensRepo) RevokeAllActive(ctx context.Context, principalEmail string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE issued_tokens
		SET expired = 1, revoked = 1, updated_at = CURRENT_TIMESTAMP
		WHERE principal_email = ? AND expired = 0 AND revoked = 0`, principalEmail)
	return err
}

func (r *issuedTokensRepo) MarkExpiredRevoked(ctx context.Context, fingerprint string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE issued_tokens
		SET expired = 1, revoked = 1, updated_at = CURRENT_TIMESTAMP
		WHERE token_fingerprint = ?`, fingerprint)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *issuedTokensRepo) ExpireCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE issued_tokens
		SET expired = 1, updated_at = CURRENT_TIMESTAMP
		WHERE expired = 0 AND created_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *issuedTokensRepo) CountActive(ctx context.Context, principalEmail string) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM issued_tokens
		WHERE principal_email = ? AND expired = 0 AND revoked = 0`, principalEmail).
		Scan(&n)
	return n, err
}
