package service

import (
	"time"

	"secure_blog/internal/models"
)

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginResult carries the issued session token and the profile it was issued for.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.UserProfile
}

// ArticleInput holds the client-controlled fields of an article. Authorship is
// never part of it.
type ArticleInput struct {
	Title   string
	Content string
}

type CommentInput struct {
	Content string
}

// UserUpdate is a partial update; nil fields are left unchanged.
type UserUpdate struct {
	Username *string
	Email    *string
	Password *string
	Role     *models.Role
}

// AuditFilter supports history filtering by time range and type.
type AuditFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "REGISTER", "LOGIN_SUCCESS", ...
}
