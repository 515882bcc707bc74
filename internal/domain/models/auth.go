package models

import "github.com/golang-jwt/jwt/v5"

// AuthClaims are the JWT claims the auth gate extracts. Only the subject
// (user id) and role matter to this service.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
