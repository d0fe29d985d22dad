package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// One-time codes are six ASCII digits. The range [100000, 999999] guarantees
// a fixed digit count, so a code never carries leading-zero ambiguity.
const (
	codeMin = 100000
	codeMax = 999999
)

// GenerateCode returns a random six-digit one-time code as a string.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", codeMin+n.Int64()), nil
}
