package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"secure_blog/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

type Users interface {
	Create(ctx context.Context, u models.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Taken reports whether email or username belongs to a user other than excludeID.
	Taken(ctx context.Context, email, username string, excludeID int64) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, u models.User) error
	// ReplacePassword swaps the credential only if it still equals expected.
	ReplacePassword(ctx context.Context, id int64, expected, replacement string) (bool, error)
	Delete(ctx context.Context, id int64) error
}

type Articles interface {
	Create(ctx context.Context, a models.Article) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Article, error)
	List(ctx context.Context) ([]models.Article, error)
	SearchByTitle(ctx context.Context, title string) ([]models.Article, error)
	Update(ctx context.Context, a models.Article) error
	Delete(ctx context.Context, id int64) error
	DeleteByAuthor(ctx context.Context, authorID int64) error
}

type Comments interface {
	Create(ctx context.Context, c models.Comment) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByArticle(ctx context.Context, articleID int64) error
	// DeleteByUser removes comments written by userID and comments on articles userID wrote.
	DeleteByUser(ctx context.Context, userID int64) error
}

type AuditEvents interface {
	Append(ctx context.Context, e models.AuditEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error)
}

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Users() Users
	Articles() Articles
	Comments() Comments
	Audit() AuditEvents
	// WithinTx runs fn with a Store bound to a single transaction. Inside fn,
	// only tx may be used.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// Repository is the SQL-backed Store.
type Repository struct {
	db      *sql.DB
	dialect Dialect

	users    *UserRepository
	articles *ArticleRepository
	comments *CommentRepository
	audit    *AuditRepository
}

var _ Store = (*Repository)(nil)

func NewRepository(db *sql.DB, dialect Dialect) *Repository {
	r := bind(db, dialect)
	r.db = db
	return r
}

func bind(q DBTX, dialect Dialect) *Repository {
	return &Repository{
		dialect:  dialect,
		users:    NewUserRepository(q, dialect),
		articles: NewArticleRepository(q, dialect),
		comments: NewCommentRepository(q, dialect),
		audit:    NewAuditRepository(q, dialect),
	}
}

func (r *Repository) Users() Users { return r.users }
func (r *Repository) Articles() Articles { return r.articles }
func (r *Repository) Comments() Comments { return r.comments }
func (r *Repository) Audit() AuditEvents { return r.audit }

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.db == nil {
		// already inside a transaction
		return fn(ctx, r)
	}
	return WithTx(ctx, r.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, bind(tx, r.dialect))
	})
}

// conn applies the dialect to every statement.
type conn struct {
	db      DBTX
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, c.dialect.Rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, c.dialect.Rebind(query), args...)
}

// affectedOrNotFound maps a zero-row write to ErrNotFound.
func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
