package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
// For TEACHER tokens UserID is the teacher id.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller of a scheduling operation.
type Actor struct {
	UserID string
	Role   UserRole
}

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(claims *JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

// IsTeacher reports whether the actor books on their own behalf.
func (a Actor) IsTeacher() bool {
	return a.Role == RoleTeacher
}

// IsStudent reports whether the actor authenticates as a student.
func (a Actor) IsStudent() bool {
	return a.Role == RoleStudent
}
