package models

import "github.com/golang-jwt/jwt/v5"

// UserRole distinguishes the two caller kinds the engine recognises.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleStaff   UserRole = "STAFF"
)

// JWTClaims represents the JWT payload for access tokens. Identity is issued
// and managed externally; the engine only trusts the opaque subject id and
// role it is handed.
type JWTClaims struct {
	SubjectID string   `json:"subject_id"`
	Role      UserRole `json:"role"`
	jwt.RegisteredClaims
}
