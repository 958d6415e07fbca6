package repository

import "github.com/golang-jwt/jwt/v5"

// CookieSigner turns a session token into a tamper-evident cookie value and back
type CookieSigner interface {
	Sign(token string) (string, error)
	Verify(value string) (string, error)
}

// SessionClaims is the payload of a signed session cookie
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
