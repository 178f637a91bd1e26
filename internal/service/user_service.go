package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/policy"
	"secure_blog/internal/repository"
)

type UserService struct {
	store     repository.Store
	passwords *auth.Passwords
	log       *logger.Logger
	now       func() time.Time
}

func NewUserService(store repository.Store, passwords *auth.Passwords, log *logger.Logger) *UserService {
	return &UserService{store: store, passwords: passwords, log: log, now: time.Now}
}

func (s *UserService) List(ctx context.Context, actor auth.Identity) ([]models.UserProfile, error) {
	if err := policy.Authorize(actor, policy.User, policy.List, policy.Target{}); err != nil {
		return nil, err
	}
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, fromRepo(err, "user")
	}
	out := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out, nil
}

func (s *UserService) Get(ctx context.Context, actor auth.Identity, id int64) (*models.UserProfile, error) {
	u, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "user")
	}
	if err := policy.Authorize(actor, policy.User, policy.Read, policy.Target{OwnerID: u.ID}); err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

// Update applies the non-nil fields of in. A new password is re-hashed; a role
// change other than to the default role requires an admin.
func (s *UserService) Update(ctx context.Context, actor auth.Identity, id int64, in UserUpdate) (*models.UserProfile, error) {
	var requested models.Role
	if in.Role != nil {
		requested = *in.Role
		if !requested.Valid() {
			return nil, apperr.Validation("role is invalid")
		}
	}

	var hash string
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		h, err := s.passwords.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated models.User
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		target := policy.Target{OwnerID: u.ID, RequestedRole: requested}
		if err := policy.Authorize(actor, policy.User, policy.Update, target); err != nil {
			return err
		}

		if in.Username != nil {
			u.Username = strings.TrimSpace(*in.Username)
			if err := validateUsername(u.Username); err != nil {
				return err
			}
		}
		if in.Email != nil {
			u.Email = normalizeEmail(*in.Email)
			if err := validateEmail(u.Email); err != nil {
				return err
			}
		}
		if hash != "" {
			u.Password = hash
		}
		if requested != "" {
			u.Role = requested
		}

		taken, err := tx.Users().Taken(ctx, u.Email, u.Username, u.ID)
		if err != nil {
			return err
		}
		if taken {
			return errDuplicateAccount
		}
		if err := tx.Users().Update(ctx, *u); err != nil {
			return err
		}
		updated = *u
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errDuplicateAccount
	}
	if err != nil {
		return nil, fromRepo(err, "user")
	}

	s.log.Infow("user_updated", "user_id", id, "actor_id", actor.ID, "role_changed", requested != "")
	p := updated.Profile()
	return &p, nil
}

// Delete removes the user, their articles and every comment written by them
// or attached to their articles.
func (s *UserService) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		u, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.User, policy.Delete, policy.Target{OwnerID: u.ID}); err != nil {
			return err
		}
		if err := tx.Comments().DeleteByUser(ctx, id); err != nil {
			return err
		}
		if err := tx.Articles().DeleteByAuthor(ctx, id); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, id)
	})
	if err != nil {
		return fromRepo(err, "user")
	}
	s.log.Infow("user_deleted", "user_id", id, "actor_id", actor.ID)
	return nil
}

func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := validateUsername(username); err != nil {
		return err
	}
	if err := validateEmail(email); err != nil {
		return err
	}

	existing, err := s.store.Users().GetByEmail(ctx, email)
	if err == nil {
		if existing.Role != models.RoleAdmin {
			s.log.Warnw("admin_bootstrap_skipped", "user_id", existing.ID, "reason", "email belongs to a non-admin account")
		}
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fromRepo(err, "user")
	}

	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return err
	}
	id, err := s.store.Users().Create(ctx, models.User{
		Username:  username,
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: s.now().UTC(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return errDuplicateAccount
	}
	if err != nil {
		return fromRepo(err, "user")
	}
	s.log.Infow("admin_bootstrapped", "user_id", id, "username", username)
	return nil
}
