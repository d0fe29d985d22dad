package sqlite

import (
	"context"
	"database/sql"

	"github.com/saludware/citamed/internal/auth/domain"
	"github.com/saludware/citamed/internal/auth/store"
)

type principalsRepo struct {
	q querier
}

const principalColumns = `id, kind, email, display_name, role, password_hash,
	mfa_enabled, mfa_secret, specialty_id, created_at, updated_at`

func (r *principalsRepo) scanPrincipal(row *sql.Row) (domain.Principal, error) {
	var (
		rec         domain.PrincipalRecord
		kind        string
		mfaSecret   sql.NullString
		specialtyID sql.NullString
	)

	err := row.Scan(
		&rec.ID,
		&kind,
		&rec.Email,
		&rec.Name,
		&rec.RoleName,
		&rec.PassHash,
		&rec.MFAOn,
		&mfaSecret,
		&specialtyID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, mapNotFound(err)
	}

	rec.TOTPSecret = mapNullStringPtr(mfaSecret)
	return mapPrincipal(kind, rec, specialtyID)
}

func (r *principalsRepo) GetByEmail(ctx context.Context, email string) (domain.Principal, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE email = ?`, email)
	return r.scanPrincipal(row)
}

func (r *principalsRepo) GetByID(ctx context.Context, id string) (domain.Principal, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	return r.scanPrincipal(row)
}

func (r *principalsRepo) Create(ctx context.Context, kind domain.PrincipalKind, rec domain.PrincipalRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO principals (id, kind, email, display_name, role, password_hash, mfa_enabled, mfa_secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(kind),
		rec.Email,
		rec.Name,
		rec.RoleName,
		rec.PassHash,
		rec.MFAOn,
		mapOptionalString(rec.TOTPSecret),
	)
	return err
}

func (r *principalsRepo) UpdateMFASecret(ctx context.Context, id string, secret string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE principals
		SET mfa_secret = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, secret, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *principalsRepo) SetMFAEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE principals
		SET mfa_enabled = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *principalsRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE principals
		SET password_hash = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, newHash, id)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
