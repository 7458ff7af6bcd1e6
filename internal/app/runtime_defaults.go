package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/sonvt1710/graylog2-server/pkg/crypto"
)

const (
	jwtSecretBytes        = 48
	defaultExpirySchedule = "@every 5m"
	defaultJWTIssuer      = "shares"
	defaultClientTimeout  = 10 * time.Second
)

// ApplyRuntimeDefaults fills in the values the server cannot start without when a Config was
// built by hand instead of LoadConfig. The returned map names generated secrets so callers can
// log them without exposing values.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	if strings.TrimSpace(cfg.Auth.JWT.Issuer) == "" {
		cfg.Auth.JWT.Issuer = defaultJWTIssuer
	}
	if strings.TrimSpace(cfg.Sharing.GrantExpirySchedule) == "" {
		cfg.Sharing.GrantExpirySchedule = defaultExpirySchedule
	}
	if cfg.Sharing.ClientTimeout <= 0 {
		cfg.Sharing.ClientTimeout = defaultClientTimeout
	}

	return generated, nil
}
