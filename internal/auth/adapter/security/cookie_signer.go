package security

import (
	"errors"
	"time"

	"bus-tracker/internal/auth/config"
	"bus-tracker/internal/auth/domain/model"
	"bus-tracker/internal/auth/domain/repository"

	"github.com/golang-jwt/jwt/v5"
)

// JWTCookieSigner signs session tokens as compact HS256 JWTs. The JWT only
// proves the cookie was issued here; the session record itself stays server-side.
type JWTCookieSigner struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewJWTCookieSigner creates a new cookie signer
func NewJWTCookieSigner(cfg *config.Config) (*JWTCookieSigner, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret cannot be empty")
	}
	if cfg.SessionIssuer == "" {
		return nil, errors.New("session issuer cannot be empty")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("session TTL must be positive")
	}

	return &JWTCookieSigner{
		secretKey: []byte(cfg.SessionSecret),
		issuer:    cfg.SessionIssuer,
		ttl:       cfg.SessionTTL,
		now:       time.Now,
	}, nil
}

// Sign wraps token in a signed cookie value
func (s *JWTCookieSigner) Sign(token string) (string, error) {
	if token == "" {
		return "", model.ErrCookieInvalid
	}
	now := s.now()
	claims := &repository.SessionClaims{
		SessionID: token,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

// Verify checks the signature, issuer and expiry and returns the session token
func (s *JWTCookieSigner) Verify(value string) (string, error) {
	if value == "" {
		return "", model.ErrCookieInvalid
	}

	claims := &repository.SessionClaims{}
	token, err := jwt.ParseWithClaims(value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrCookieInvalid
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", model.ErrCookieInvalid
	}
	return claims.SessionID, nil
}

var _ repository.CookieSigner = (*JWTCookieSigner)(nil)
