package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/devnla/backend-express/internal/common/clock"
	"github.com/devnla/backend-express/internal/common/constants"
	"github.com/devnla/backend-express/internal/common/jwtverify"
)

var errSecretNotConfigured = errors.New("JWT_SECRET is empty")

type TokenIssuer struct {
	jwtSecret []byte
	ttl       time.Duration
	clock     clock.Clock
}

func NewTokenIssuer(jwtSecret string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &TokenIssuer{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		clock:     clk,
	}
}

func (ti *TokenIssuer) Configured() bool {
	return len(ti.jwtSecret) > 0
}

func (ti *TokenIssuer) Issue(claims jwtverify.Claims) (string, error) {
	if !ti.Configured() {
		return "", ErrConfiguration.WithCause(errSecretNotConfigured)
	}

	now := ti.clock.Now()
	token, err := jwtverify.Sign(claims, ti.jwtSecret, now, now.Add(ti.ttl))
	if err != nil {
		return "", newInternalError(err)
	}

	incrementAccessTokensIssued()
	return token, nil
}

// Verify reports every parse, signature or expiry failure as ErrInvalidToken.
func (ti *TokenIssuer) Verify(tokenString string) (jwtverify.Claims, error) {
	if !ti.Configured() {
		return jwtverify.Claims{}, ErrConfiguration.WithCause(errSecretNotConfigured)
	}

	claims, err := jwtverify.ParseToken(tokenString, ti.jwtSecret, jwt.WithTimeFunc(ti.clock.Now))
	recordTokenValidation(err)
	if err != nil {
		return jwtverify.Claims{}, ErrInvalidToken.WithCause(err)
	}
	return claims, nil
}
