package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/saludware/citamed/pkg/idx"
	"github.com/saludware/citamed/pkg/jwtx"
)

// InitSigningKeys loads the Ed25519 signing keypair from the configured PEM
// file, or generates an ephemeral one when no file is configured. Ephemeral
// keys invalidate every outstanding token on restart, which is acceptable in
// dev and announced loudly in the log.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.Keypair, error) {
	kid := idx.New().String()

	if cfg.SigningKeyFile == "" {
		keys, err := jwtx.GenerateKeypair(kid, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral signing key: %w", err)
		}
		logger.Warn("using ephemeral signing key, all existing tokens are now invalid",
			"kid", kid, "issuer", cfg.Issuer)
		return keys, nil
	}

	pemKey, err := os.ReadFile(cfg.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("read signing key file: %w", err)
	}

	keys, err := jwtx.KeypairFromPEM(kid, cfg.Issuer, pemKey)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}

	logger.Info("signing key loaded", "kid", kid, "file", cfg.SigningKeyFile, "issuer", cfg.Issuer)
	return keys, nil
}
