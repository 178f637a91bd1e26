package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/repository"
)

const (
	minPasswordLen = 6
	maxUsernameLen = 50
)

// errBadCredentials covers both an unknown email and a wrong password.
var errBadCredentials = apperr.Authentication("invalid email or password")

// AuthService handles registration, login and legacy credential migration.
type AuthService struct {
	store     repository.Store
	passwords *auth.Passwords
	tokens    *auth.Tokens
	audit     AuditLog
	log       *logger.Logger
	now       func() time.Time
}

func NewAuthService(store repository.Store, passwords *auth.Passwords, tokens *auth.Tokens, audit AuditLog, log *logger.Logger) *AuthService {
	return &AuthService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		audit:     audit,
		log:       log,
		now:       time.Now,
	}
}

// normalizeEmail trims and lowercases so lookups are case-insensitive.
func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validateUsername(s string) error {
	if s == "" {
		return apperr.Validation("username is required")
	}
	if utf8.RuneCountInString(s) > maxUsernameLen {
		return apperr.Validation("username is too long")
	}
	return nil
}

func validateEmail(s string) error {
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.ContainsAny(s, " \t\r\n") {
		return apperr.Validation("email is invalid")
	}
	return nil
}

func validatePassword(s string) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < minPasswordLen {
		return apperr.Validation("password must be at least 6 characters")
	}
	if len(s) > auth.MaxPasswordBytes {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}

// Register creates a user with the default role. Role is never taken from input.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (int64, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if err := validateEmail(email); err != nil {
		return 0, err
	}
	if err := validatePassword(in.Password); err != nil {
		return 0, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		taken, err := tx.Users().Taken(ctx, email, username, 0)
		if err != nil {
			return err
		}
		if taken {
			return errDuplicateAccount
		}
		id, err = tx.Users().Create(ctx, models.User{
			Username:  username,
			Email:     email,
			Password:  hash,
			Role:      models.RoleUser,
			CreatedAt: s.now().UTC(),
		})
		return err
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return 0, errDuplicateAccount
	}
	if err != nil {
		return 0, fromRepo(err, "user")
	}

	s.log.Infow("auth_registered", "user_id", id, "username", username)
	s.record(ctx, models.AuditEvent{
		Type:    models.EventRegister,
		UserID:  id,
		Message: "user registered",
	})
	return id, nil
}

// Login verifies credentials and issues a session token. A matching legacy
// plaintext credential is replaced by a hash before the token is issued.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = normalizeEmail(email)

	u, err := s.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.passwords.VerifyUnknown(password)
		s.loginFailed(ctx, 0, email, "unknown email")
		return LoginResult{}, errBadCredentials
	}
	if err != nil {
		return LoginResult{}, fromRepo(err, "user")
	}

	stored := auth.ParseCredential(u.Password)
	v, err := s.passwords.Verify(password, stored)
	if err != nil {
		// an unreadable stored credential answers like a wrong password
		s.log.Errorw("auth_credential_unreadable", "user_id", u.ID, "err", err)
		s.loginFailed(ctx, u.ID, email, "unreadable credential")
		return LoginResult{}, errBadCredentials
	}
	if !v.Matches {
		s.loginFailed(ctx, u.ID, email, "wrong password")
		return LoginResult{}, errBadCredentials
	}

	if v.NeedsMigration {
		s.migrateCredential(ctx, u, password)
	}

	token, expiresAt, err := s.tokens.Issue(*u)
	if err != nil {
		return LoginResult{}, apperr.Internal("issue token", err)
	}

	s.log.Infow("auth_login_succeeded", "user_id", u.ID)
	s.record(ctx, models.AuditEvent{
		Type:    models.EventLoginSuccess,
		UserID:  u.ID,
		Message: "login succeeded",
	})
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: u.Profile()}, nil
}

// migrateCredential swaps a legacy plaintext for a bcrypt hash (a digest hash
// when the plaintext is too long for bcrypt). Failures are logged and
// audited; they never block the login.
func (s *AuthService) migrateCredential(ctx context.Context, u *models.User, password string) {
	fail := func(reason string, err error) {
		s.log.Errorw("auth_credential_migration_failed", "user_id", u.ID, "reason", reason, "err", err)
		s.record(ctx, models.AuditEvent{
			Type:     models.EventCredentialMigrationFailed,
			UserID:   u.ID,
			Message:  "legacy credential not migrated",
			Metadata: map[string]string{"reason": reason},
		})
	}

	hash, err := s.passwords.Rehash(password)
	if err != nil {
		fail("hash", err)
		return
	}
	swapped, err := s.store.Users().ReplacePassword(ctx, u.ID, u.Password, hash)
	if err != nil {
		fail("persist", err)
		return
	}
	if !swapped {
		fail("credential changed concurrently", nil)
		return
	}

	u.Password = hash
	s.log.Infow("auth_credential_migrated", "user_id", u.ID)
	s.record(ctx, models.AuditEvent{
		Type:    models.EventCredentialMigrated,
		UserID:  u.ID,
		Message: "legacy credential replaced by hash",
	})
}

func (s *AuthService) loginFailed(ctx context.Context, userID int64, email, reason string) {
	s.log.Infow("auth_login_failed", "user_id", userID, "reason", reason)
	s.record(ctx, models.AuditEvent{
		Type:     models.EventLoginFailure,
		UserID:   userID,
		Message:  "login failed",
		Metadata: map[string]string{"email": email, "reason": reason},
	})
}

// record appends to the audit log; a failed append is logged only.
func (s *AuthService) record(ctx context.Context, e models.AuditEvent) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Warnw("audit_record_failed", "type", e.Type, "err", err)
	}
}

// ParseToken resolves a raw bearer token into the caller's identity.
func (s *AuthService) ParseToken(token string) (auth.Identity, error) {
	return s.tokens.Verify(token)
}
