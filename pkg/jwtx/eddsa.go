package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs Claims into compact JWT strings.
type Signer interface {
	KID() string
	Sign(Claims) (string, error)
}

// Verifier decodes and verifies compact JWT strings.
type Verifier interface {
	// Verify fully validates a token: signature, issuer and expiry.
	Verify(token string) (Claims, error)

	// Decode verifies structure and signature only, leaving temporal claims
	// to the caller. An expired but untampered token decodes successfully.
	Decode(token string) (Claims, error)
}

// Keypair is an Ed25519 signing keypair implementing both Signer and Verifier.
type Keypair struct {
	kid    string
	key    ed25519.PrivateKey
	pub    ed25519.PublicKey
	issuer string
}

// GenerateKeypair creates a fresh ephemeral Ed25519 keypair.
func GenerateKeypair(kid, issuer string) (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("jwtx: generate ed25519 key: %w", err)
	}
	return &Keypair{kid: kid, key: priv, pub: pub, issuer: issuer}, nil
}

// KeypairFromPEM loads an Ed25519 private key in PKCS8 PEM form.
func KeypairFromPEM(kid, issuer string, pemKey []byte) (*Keypair, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil {
		return nil, errors.New("jwtx: invalid PEM for Ed25519 key")
	}
	if block.Type != "PRIVATE KEY" {
		return nil, fmt.Errorf("jwtx: expected PRIVATE KEY, got %q (Ed25519 requires PKCS8)", block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("jwtx: not an Ed25519 private key")
	}

	return &Keypair{
		kid:    kid,
		key:    key,
		pub:    key.Public().(ed25519.PublicKey),
		issuer: issuer,
	}, nil
}

// MarshalPEM renders the private key as PKCS8 PEM for persistence.
func (k *Keypair) MarshalPEM() ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(k.key)
	if err != nil {
		return nil, fmt.Errorf("jwtx: marshal PKCS8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

func (k *Keypair) KID() string { return k.kid }

// Sign turns claims into a signed compact JWT.
func (k *Keypair) Sign(claims Claims) (string, error) {
	if k.key == nil {
		return "", errors.New("jwtx: signing key unavailable")
	}
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = k.kid
	return t.SignedString(k.key)
}

// Verify fully validates the token: signature, issuer and expiry. Signature
// or structural failures map to ErrTampered; temporal failures to ErrExpired.
func (k *Keypair) Verify(tokenStr string) (Claims, error) {
	claims, err := k.Decode(tokenStr)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateIssuer(k.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(time.Now()); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// Decode verifies structure and signature only. Temporal claims are not
// validated here so callers can distinguish an expired token from a forged
// one.
func (k *Keypair) Decode(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != "" && kid != k.kid {
			return nil, fmt.Errorf("jwtx: unknown kid %q", kid)
		}
		return k.pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrTampered, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrTampered
	}

	return *claims, nil
}
