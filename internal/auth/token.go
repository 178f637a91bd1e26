package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"secure_blog/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = time.Hour

// ErrorKind enumerates why a token was rejected.
type ErrorKind int

const (
	Missing ErrorKind = iota + 1
	Malformed
	Expired
	InvalidSignature
)

func (k ErrorKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Malformed:
		return "malformed"
	case Expired:
		return "expired"
	case InvalidSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// AuthError is returned by the gate and by Tokens.Verify.
type AuthError struct {
	Kind ErrorKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s token: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("auth: %s token", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Identity is the authenticated caller.
type Identity struct {
	ID       int64
	Username string
	Role     models.Role
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == models.RoleAdmin }

// Authenticated reports whether i was resolved from a token.
func (i Identity) Authenticated() bool { return i.ID > 0 }

// Claims defines JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration, issuer string) *Tokens {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue signs a token for u.
func (t *Tokens) Issue(u models.User) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses the token and returns the identity it carries.
func (t *Tokens) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, &AuthError{Kind: Missing}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, &AuthError{Kind: classify(err), Err: err}
	}
	if !token.Valid {
		return Identity{}, &AuthError{Kind: InvalidSignature}
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return Identity{}, &AuthError{Kind: Malformed, Err: errors.New("incomplete identity claims")}
	}

	return Identity{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, nil
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return Expired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return InvalidSignature
	default:
		return Malformed
	}
}
