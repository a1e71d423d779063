package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Predefined role names.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,autoincrement" json:"id"`
	CreatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:",nullzero,notnull,default:current_timestamp" json:"updated_at"`
	Email        string    `bun:",notnull,unique" json:"email"`
	Username     string    `bun:",notnull,unique" json:"username"`
	PasswordHash string    `bun:",notnull" json:"-"` // Never expose password hash
	FullName     *string   `json:"full_name"`
	Role         string    `bun:",notnull,default:'user'" json:"role"`
	IsActive     bool      `bun:",notnull" json:"is_active"` // set on every insert; a default tag would turn false into DEFAULT
}

// IsAdmin reports whether the user holds the admin role. A nil user is
// anonymous and never an admin.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsValidRole reports whether role is one of the predefined roles.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
