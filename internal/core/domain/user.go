package domain

import "time"

type UserID int64

type UserRole string

const (
	RoleGuest UserRole = "guest"
	RoleAdmin UserRole = "admin"
)

// User is an identity that can sign in. PasswordHash is a bcrypt digest and is
// never serialized.
type User struct {
	ID           UserID    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (r UserRole) Valid() bool {
	return r == RoleGuest || r == RoleAdmin
}
