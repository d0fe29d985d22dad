package domain

import "time"

// Principal is any login-capable entity. Patients and practitioners behave
// identically for authentication; the interface keeps the auth core ignorant
// of which concrete kind it is handling.
type Principal interface {
	// PrincipalID is the stable ULID of the record.
	PrincipalID() string

	// LoginKey is the email used as the login identifier and as the token
	// subject claim.
	LoginKey() string

	DisplayName() string
	Role() string

	// PasswordHash is the stored Argon2id hash; the credential verifier is
	// the only consumer.
	PasswordHash() string

	// MFAEnabled reports whether login requires a second factor.
	MFAEnabled() bool

	// MFASecret returns the TOTP secret, nil until first provisioned.
	MFASecret() *string
}

// PrincipalKind discriminates the two concrete principal kinds in storage.
type PrincipalKind string

const (
	KindPatient      PrincipalKind = "patient"
	KindPractitioner PrincipalKind = "practitioner"
)

// PrincipalRecord is the storage-level shape shared by both kinds. The
// concrete Patient/Practitioner types embed it and add kind-specific fields.
type PrincipalRecord struct {
	ID           string
	Email        string
	Name         string
	RoleName     string
	PassHash     string
	MFAOn        bool
	TOTPSecret   *string // nil until first MFA-enabled login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (r PrincipalRecord) PrincipalID() string  { return r.ID }
func (r PrincipalRecord) LoginKey() string     { return r.Email }
func (r PrincipalRecord) DisplayName() string  { return r.Name }
func (r PrincipalRecord) Role() string         { return r.RoleName }
func (r PrincipalRecord) PasswordHash() string { return r.PassHash }
func (r PrincipalRecord) MFAEnabled() bool     { return r.MFAOn }
func (r PrincipalRecord) MFASecret() *string   { return r.TOTPSecret }

// Patient is a care recipient.
type Patient struct {
	PrincipalRecord
}

// Practitioner is a medical professional. The specialty reference is used by
// the scheduling subsystem, never by authentication.
type Practitioner struct {
	PrincipalRecord

	SpecialtyID string
}
