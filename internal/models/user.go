package models

import "time"

// Role is the sole privilege discriminator for a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the stored account. Password holds the raw credential column
// (bcrypt hash, or a legacy plaintext for accounts not yet migrated).
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialized
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserProfile is the outward-facing view of a user.
type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile strips the credential from u.
func (u User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
