package store

import (
	"context"
	"errors"
	"time"

	"github.com/saludware/citamed/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and make it harder to
// accidentally nest transactions.
type Store interface {
	Principals() Principals
	IssuedTokens() IssuedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn returns
	// an error and committing otherwise. This is the recommended way to
	// handle multi-step operations that must be atomic (revoke-then-issue).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Principals interface {
	// GetByEmail returns the principal whose login key matches email,
	// regardless of kind.
	GetByEmail(ctx context.Context, email string) (domain.Principal, error)

	// GetByID returns a principal by its ULID.
	GetByID(ctx context.Context, id string) (domain.Principal, error)

	// Create inserts a new principal of the given kind (id is app-provided).
	Create(ctx context.Context, kind domain.PrincipalKind, rec domain.PrincipalRecord) error

	// UpdateMFASecret sets the TOTP secret and bumps updated_at. Called at
	// most once per principal lifetime unless MFA is explicitly reset.
	UpdateMFASecret(ctx context.Context, id string, secret string) error

	// SetMFAEnabled toggles the MFA-required flag.
	SetMFAEnabled(ctx context.Context, id string, enabled bool) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
}

type IssuedTokens interface {
	// Create appends an active ledger row for a freshly issued access token.
	Create(ctx context.Context, t domain.IssuedToken) error

	// GetByFingerprint looks up a ledger row by token fingerprint.
	GetByFingerprint(ctx context.Context, fingerprint string) (domain.IssuedToken, error)

	// RevokeAllActive flips expired and revoked on every row for the
	// principal whose flags are both still false. Returns nil (not an
	// error) when there is nothing to revoke.
	RevokeAllActive(ctx context.Context, principalEmail string) error

	// MarkExpiredRevoked flips both flags on a single row (logout).
	MarkExpiredRevoked(ctx context.Context, fingerprint string) error

	// CountActive returns the number of active rows for a principal.
	CountActive(ctx context.Context, principalEmail string) (int, error)

	// ExpireCreatedBefore flips the expired flag on active rows created
	// before the cutoff. Rows are never deleted; housekeeping keeps the
	// ledger flags in line with the tokens' own lifetimes.
	ExpireCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
