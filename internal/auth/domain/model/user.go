package model

import (
	"errors"
	"time"
)

// Role is the closed set of account kinds. The zero value is not a valid role.
type Role int

const (
	RoleUnknown Role = iota
	RoleDriver
	RoleStudent
)

var ErrInvalidRole = errors.New("role must be driver or student")

// ParseRole converts the wire form ("driver", "student") to a Role
func ParseRole(s string) (Role, error) {
	switch s {
	case "driver":
		return RoleDriver, nil
	case "student":
		return RoleStudent, nil
	}
	return RoleUnknown, ErrInvalidRole
}

func (r Role) String() string {
	switch r {
	case RoleDriver:
		return "driver"
	case RoleStudent:
		return "student"
	}
	return ""
}

// Valid reports whether r is one of the defined roles
func (r Role) Valid() bool {
	return r == RoleDriver || r == RoleStudent
}

// MarshalText stores roles by name in BSON, JSON and Redis payloads
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses a stored role name
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// User is a registered account. Username and Role never change after creation.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
