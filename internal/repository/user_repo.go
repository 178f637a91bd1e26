package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"secure_blog/internal/models"
)

type UserRepository struct {
	conn
}

func NewUserRepository(db DBTX, dialect Dialect) *UserRepository {
	return &UserRepository{conn{db: db, dialect: dialect}}
}

// Ensure implementation of Users interface at compile time.
var _ Users = (*UserRepository)(nil)

const (
	insertUserSQL = `INSERT INTO users (username, email, password, role, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`

	selectUserColumns     = `SELECT id, username, email, password, role, created_at FROM users`
	selectUserByIDSQL     = selectUserColumns + ` WHERE id = ?`
	selectUserByEmailSQL  = selectUserColumns + ` WHERE email = ?`
	selectUsersSQL        = selectUserColumns + ` ORDER BY id`
	selectUserConflictSQL = `SELECT COUNT(*) FROM users WHERE (email = ? OR username = ?) AND id <> ?`

	updateUserSQL          = `UPDATE users SET username = ?, email = ?, password = ?, role = ? WHERE id = ?`
	replaceUserPasswordSQL = `UPDATE users SET password = ? WHERE id = ? AND password = ?`
	deleteUserSQL          = `DELETE FROM users WHERE id = ?`
)

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, u models.User) (int64, error) {
	var id int64
	err := r.queryRow(ctx, insertUserSQL, u.Username, u.Email, u.Password, u.Role, u.CreatedAt.UTC()).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user %q: %w", u.Username, err)
	}
	return id, nil
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// GetByID fetches a user by id. Returns ErrNotFound if absent.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(r.queryRow(ctx, selectUserByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user %d: %w", id, err)
	}
	return u, nil
}

// GetByEmail fetches a user by email. Returns ErrNotFound if absent.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.queryRow(ctx, selectUserByEmailSQL, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Taken(ctx context.Context, email, username string, excludeID int64) (bool, error) {
	var n int
	if err := r.queryRow(ctx, selectUserConflictSQL, email, username, excludeID).Scan(&n); err != nil {
		return false, fmt.Errorf("check user uniqueness: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.query(ctx, selectUsersSQL)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	out := make([]models.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update overwrites username, email, password and role of u.ID.
func (r *UserRepository) Update(ctx context.Context, u models.User) error {
	res, err := r.exec(ctx, updateUserSQL, u.Username, u.Email, u.Password, u.Role, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return affectedOrNotFound(res)
}

func (r *UserRepository) ReplacePassword(ctx context.Context, id int64, expected, replacement string) (bool, error) {
	res, err := r.exec(ctx, replaceUserPasswordSQL, replacement, id, expected)
	if err != nil {
		return false, fmt.Errorf("replace password for user %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("replace password for user %d: %w", id, err)
	}
	return n == 1, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, deleteUserSQL, id)
	if err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return affectedOrNotFound(res)
}
