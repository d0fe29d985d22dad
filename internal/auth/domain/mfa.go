package domain

// MFAChallenge is returned when the password step succeeds for an
// MFA-enabled principal. It carries everything an authenticator app needs;
// no server-side challenge state exists — the client resubmits email+code
// and the second step re-derives everything from storage.
type MFAChallenge struct {
	// Methods available for the second factor, in the order they are tried.
	Methods []string `json:"methods"` // ["totp", "email_code"]

	// ProvisioningURI is the otpauth:// URI for the principal's TOTP secret.
	ProvisioningURI string `json:"provisioning_uri"`

	// QRCode is a base64 PNG data URI rendering of ProvisioningURI.
	QRCode string `json:"qr_code"`

	Issuer  string `json:"issuer"`
	Account string `json:"account"`
}
