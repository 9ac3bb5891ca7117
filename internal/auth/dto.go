// AngelaMos | 2026
// dto.go

package auth

import (
	"time"
)

type Credentials struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type UserInfo struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
}

// Session is what signup and login hand back: the user plus the signed
// token that also goes out in the session cookie.
type Session struct {
	User      *UserInfo
	Token     string
	TokenID   string
	ExpiresAt time.Time
}
