package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewService(store,
		auth.NewPasswords(bcrypt.MinCost),
		auth.NewTokens(testSecret, time.Hour, "secure-blog"),
		logger.Nop(),
	)
	return svc, store
}

func TestAuthService_Register_StoresHashNotPlaintext(t *testing.T) {
	svc, store := newTestService(t)

	id, err := svc.Auth.Register(context.Background(), RegisterInput{
		Username: " alice ",
		Email:    "Alice@Example.COM",
		Password: "s3cr3t-pw",
	})
	require.NoError(t, err)

	u := store.users[id]
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, models.RoleUser, u.Role)
	assert.NotEqual(t, "s3cr3t-pw", u.Password)
	assert.True(t, strings.HasPrefix(u.Password, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cr3t-pw")))
	assert.Equal(t, []string{models.EventRegister}, store.eventTypes())
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"empty username", RegisterInput{Username: "  ", Email: "a@example.com", Password: "secret1"}},
		{"bad email", RegisterInput{Username: "a", Email: "not-an-email", Password: "secret1"}},
		{"short password", RegisterInput{Username: "a", Email: "a@example.com", Password: "12345"}},
		{"blank password", RegisterInput{Username: "a", Email: "a@example.com", Password: "       "}},
		{"password over 72 bytes", RegisterInput{Username: "a", Email: "a@example.com", Password: strings.Repeat("a", 80)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			_, err := svc.Auth.Register(context.Background(), tt.in)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Empty(t, store.users)
		})
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, store := newTestService(t)
	store.seedUser(models.User{Username: "alice", Email: "alice@example.com", Password: "x"})

	tests := []RegisterInput{
		{Username: "other", Email: "ALICE@example.com", Password: "secret1"},
		{Username: "alice", Email: "new@example.com", Password: "secret1"},
	}
	for _, in := range tests {
		_, err := svc.Auth.Register(context.Background(), in)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, "email or username already in use", apperr.Message(err))
	}
	assert.Len(t, store.users, 1)
}

func TestAuthService_Login_Hashed(t *testing.T) {
	svc, store := newTestService(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	id := store.seedUser(models.User{Username: "bob", Email: "bob@example.com", Password: string(hash)})

	res, err := svc.Auth.Login(context.Background(), " BOB@example.com", "correct horse")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, id, res.User.ID)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	ident, err := svc.Auth.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{ID: id, Username: "bob", Role: models.RoleUser}, ident)
	assert.Equal(t, string(hash), store.users[id].Password, "hashed credential is left alone")
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	svc, store := newTestService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	store.seedUser(models.User{Username: "bob", Email: "bob@example.com", Password: string(hash)})

	_, errUnknown := svc.Auth.Login(context.Background(), "nobody@example.com", "right-password")
	_, errWrong := svc.Auth.Login(context.Background(), "bob@example.com", "wrong-password")

	for _, err := range []error{errUnknown, errWrong} {
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
		assert.Equal(t, "invalid email or password", apperr.Message(err))
	}
	assert.Equal(t, []string{models.EventLoginFailure, models.EventLoginFailure}, store.eventTypes())
}

func TestAuthService_Login_UnreadableCredentialLooksLikeWrongPassword(t *testing.T) {
	svc, store := newTestService(t)
	// carries the bcrypt tag but is not a bcrypt hash
	id := store.seedUser(models.User{Username: "odd", Email: "odd@example.com", Password: "$2secretpw"})

	_, errUnknown := svc.Auth.Login(context.Background(), "nobody@example.com", "$2secretpw")
	_, errRight := svc.Auth.Login(context.Background(), "odd@example.com", "$2secretpw")
	_, errWrong := svc.Auth.Login(context.Background(), "odd@example.com", "other")

	for _, err := range []error{errUnknown, errRight, errWrong} {
		assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
		assert.Equal(t, "invalid email or password", apperr.Message(err))
	}
	assert.Equal(t, []string{models.EventLoginFailure, models.EventLoginFailure, models.EventLoginFailure}, store.eventTypes())
	assert.Equal(t, "$2secretpw", store.users[id].Password)
}

func TestAuthService_Login_MigratesLegacyCredential(t *testing.T) {
	svc, store := newTestService(t)
	id := store.seedUser(models.User{Username: "old", Email: "old@example.com", Password: "hunter2"})

	_, err := svc.Auth.Login(context.Background(), "old@example.com", "hunter2")
	require.NoError(t, err)

	stored := store.users[id].Password
	assert.True(t, strings.HasPrefix(stored, "$2"), "legacy credential replaced by a hash")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("hunter2")))
	assert.Contains(t, store.eventTypes(), models.EventCredentialMigrated)

	// second login goes through the hashed path and keeps the same hash
	_, err = svc.Auth.Login(context.Background(), "old@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, stored, store.users[id].Password)

	// the old plaintext no longer works as a stored value
	_, err = svc.Auth.Login(context.Background(), "old@example.com", stored)
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestAuthService_Login_MigratesLongLegacyCredential(t *testing.T) {
	svc, store := newTestService(t)
	long := strings.Repeat("a", 80)
	id := store.seedUser(models.User{Username: "old", Email: "old@example.com", Password: long})

	_, err := svc.Auth.Login(context.Background(), "old@example.com", long)
	require.NoError(t, err)

	stored := store.users[id].Password
	assert.NotEqual(t, long, stored)
	assert.IsType(t, auth.Prehashed(nil), auth.ParseCredential(stored))
	assert.Equal(t, []string{models.EventCredentialMigrated, models.EventLoginSuccess}, store.eventTypes())

	// the digest hash verifies on the next login without another migration
	_, err = svc.Auth.Login(context.Background(), "old@example.com", long)
	require.NoError(t, err)
	assert.Equal(t, stored, store.users[id].Password)
	assert.Equal(t, []string{models.EventCredentialMigrated, models.EventLoginSuccess, models.EventLoginSuccess}, store.eventTypes())

	// a different password sharing the first 72 bytes is rejected
	_, err = svc.Auth.Login(context.Background(), "old@example.com", strings.Repeat("a", 79)+"b")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestAuthService_Login_LegacyWrongPasswordNotMigrated(t *testing.T) {
	svc, store := newTestService(t)
	id := store.seedUser(models.User{Username: "old", Email: "old@example.com", Password: "hunter2"})

	_, err := svc.Auth.Login(context.Background(), "old@example.com", "hunter3")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
	assert.Equal(t, "hunter2", store.users[id].Password)
}

func TestAuthService_Login_EmptyLegacyNeverMatches(t *testing.T) {
	svc, store := newTestService(t)
	store.seedUser(models.User{Username: "blank", Email: "blank@example.com", Password: ""})

	_, err := svc.Auth.Login(context.Background(), "blank@example.com", "")
	assert.Equal(t, apperr.KindAuthentication, apperr.KindOf(err))
}

func TestAuthService_Login_MigrationFailureDoesNotBlockLogin(t *testing.T) {
	svc, store := newTestService(t)
	id := store.seedUser(models.User{Username: "old", Email: "old@example.com", Password: "hunter2"})
	store.replacePasswordErr = errors.New("disk full")

	res, err := svc.Auth.Login(context.Background(), "old@example.com", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "hunter2", store.users[id].Password)
	assert.Contains(t, store.eventTypes(), models.EventCredentialMigrationFailed)
}

func TestAuthService_Login_AuditFailureIsIgnored(t *testing.T) {
	svc, store := newTestService(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("pw-123456"), bcrypt.MinCost)
	store.seedUser(models.User{Username: "bob", Email: "bob@example.com", Password: string(hash)})
	store.appendErr = errors.New("audit down")

	_, err := svc.Auth.Login(context.Background(), "bob@example.com", "pw-123456")
	assert.NoError(t, err)
}

func TestAuthService_ParseToken_Rejects(t *testing.T) {
	svc, _ := newTestService(t)

	other := auth.NewTokens("another-secret", time.Hour, "secure-blog")
	forged, _, err := other.Issue(models.User{ID: 1, Username: "x", Role: models.RoleAdmin})
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Auth.ParseToken(raw)
			var authErr *auth.AuthError
			assert.True(t, errors.As(err, &authErr))
		})
	}
}
