package domain

import (
	"time"
)

// Role represents a principal's role
type Role string

const (
	RoleClient        Role = "client"
	RoleOperator      Role = "operator"
	RoleSuperOperator Role = "super_operator"
)

// Valid reports whether the role is one of the known values
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleOperator, RoleSuperOperator:
		return true
	}
	return false
}

// IsOperator reports whether the role carries operator privileges
func (r Role) IsOperator() bool {
	return r == RoleOperator || r == RoleSuperOperator
}

// Principal represents an authenticated identity, client or operator.
// Principals are never deleted, only deactivated or banned.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize password
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsBanned     bool      `json:"is_banned"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // seconds until access token expires
}

// Claims represents the identity claims carried by an access token
type Claims struct {
	PrincipalID string `json:"principal_id"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// RefreshToken is the persisted record of an issued refresh credential.
// Only the sha256 hash of the token is stored; rotation revokes the old
// row and links it to its replacement.
type RefreshToken struct {
	ID          string     `json:"id"` // jti of the signed token
	PrincipalID string     `json:"principal_id"`
	TokenHash   string     `json:"-"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RevokedAt   *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy  string     `json:"replaced_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Revoked reports whether the token has been revoked
func (t *RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

// Expired reports whether the token is past its expiry
func (t *RefreshToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
