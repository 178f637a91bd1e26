package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"secure_blog/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const (
	// hashPrefix tags every bcrypt hash ($2a$, $2b$, $2y$).
	hashPrefix = "$2"
	// prehashPrefix tags a bcrypt hash of the base64 SHA-256 digest of the
	// password. Only legacy passwords longer than MaxPasswordBytes get one.
	prehashPrefix = "$bcrypt-sha256$"

	// MaxPasswordBytes is the longest input bcrypt accepts.
	MaxPasswordBytes = 72
)

// Credential is the stored password state of a user: Hashed, Prehashed or Legacy.
type Credential interface {
	credential()
}

// Hashed is a bcrypt hash.
type Hashed []byte

// Prehashed is a bcrypt hash over the SHA-256 digest of a long password.
type Prehashed []byte

// Legacy is a plaintext password stored before hashing was introduced.
// It only exists until the account's next successful login.
type Legacy string

func (Hashed) credential() {}
func (Prehashed) credential() {}
func (Legacy) credential() {}

// ParseCredential resolves the raw password column into its variant.
func ParseCredential(stored string) Credential {
	switch {
	case strings.HasPrefix(stored, prehashPrefix):
		return Prehashed(strings.TrimPrefix(stored, prehashPrefix))
	case strings.HasPrefix(stored, hashPrefix):
		return Hashed(stored)
	default:
		return Legacy(stored)
	}
}

// Verification is the outcome of checking a presented password.
type Verification struct {
	Matches        bool
	NeedsMigration bool
}

// Passwords hashes and verifies user passwords.
type Passwords struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswords returns a manager hashing at cost; out-of-range values fall
// back to bcrypt.DefaultCost.
func NewPasswords(cost int) *Passwords {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Passwords{cost: cost}
}

// Hash returns a salted bcrypt hash of password.
func (p *Passwords) Hash(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", apperr.Validation("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("password must be at most 72 bytes")
	}
	if err != nil {
		return "", apperr.Internal("hash password", err)
	}
	return string(hash), nil
}

// Rehash returns the replacement for a migrated legacy credential. Passwords
// bcrypt cannot take whole are digested first and stored as Prehashed.
func (p *Passwords) Rehash(password string) (string, error) {
	if len(password) <= MaxPasswordBytes {
		return p.Hash(password)
	}
	hash, err := bcrypt.GenerateFromPassword(digest(password), p.cost)
	if err != nil {
		return "", apperr.Internal("hash password digest", err)
	}
	return prehashPrefix + string(hash), nil
}

func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// VerifyUnknown spends the same bcrypt work as a real comparison. Callers use
// it when no account matches so response time does not reveal that.
func (p *Passwords) VerifyUnknown(password string) {
	p.dummyOnce.Do(func() {
		p.dummy, _ = bcrypt.GenerateFromPassword([]byte("unknown-account"), p.cost)
	})
	pw := []byte(password)
	if len(pw) > MaxPasswordBytes {
		pw = pw[:MaxPasswordBytes]
	}
	_ = bcrypt.CompareHashAndPassword(p.dummy, pw)
}

// Verify checks password against stored. Only a Legacy match reports
// NeedsMigration; the caller must then persist a fresh hash.
//
// The Legacy branch is a migration bridge and goes away once no plaintext
// credentials remain.
func (p *Passwords) Verify(password string, stored Credential) (Verification, error) {
	switch c := stored.(type) {
	case Hashed:
		err := bcrypt.CompareHashAndPassword(c, []byte(password))
		if err == nil {
			return Verification{Matches: true}, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Verification{}, nil
		}
		return Verification{}, fmt.Errorf("compare bcrypt hash: %w", err)
	case Prehashed:
		err := bcrypt.CompareHashAndPassword(c, digest(password))
		if err == nil {
			return Verification{Matches: true}, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Verification{}, nil
		}
		return Verification{}, fmt.Errorf("compare bcrypt digest hash: %w", err)
	case Legacy:
		if c == "" {
			return Verification{}, nil
		}
		if subtle.ConstantTimeCompare([]byte(c), []byte(password)) == 1 {
			return Verification{Matches: true, NeedsMigration: true}, nil
		}
		return Verification{}, nil
	default:
		return Verification{}, fmt.Errorf("unknown credential type %T", stored)
	}
}
