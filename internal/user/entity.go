// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/auratrack/auratrack-api/internal/authz"
)

type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	IsMaster     bool      `db:"is_master"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = authz.RoleUser
	RoleAdmin = authz.RoleAdmin
)

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
