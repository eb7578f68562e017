package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of tokens the hosting platform mints for block requests.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Viewer converts the claims into the caller identity services work with.
func (c *JWTClaims) Viewer() Viewer {
	if c == nil {
		return Viewer{}
	}
	return Viewer{UserID: c.UserID, Username: c.Username, Email: c.Email, Role: c.Role}
}
