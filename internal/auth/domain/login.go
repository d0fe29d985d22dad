package domain

// LoginStatus is the terminal state of a login step.
type LoginStatus string

const (
	// StatusAuthenticated means a token pair was issued.
	StatusAuthenticated LoginStatus = "authenticated"

	// StatusChallengeIssued means credentials checked out but a second
	// factor is required; no tokens exist yet.
	StatusChallengeIssued LoginStatus = "challenge_issued"
)

// LoginResult is the outcome of the first login step. Exactly one of Tokens
// or Challenge is set, matching Status.
type LoginResult struct {
	Status    LoginStatus
	Tokens    *TokenPair
	Challenge *MFAChallenge
}
