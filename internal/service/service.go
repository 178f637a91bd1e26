package service

import (
	"context"

	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/repository"
)

// Auth covers registration, login and token resolution.
type Auth interface {
	Register(ctx context.Context, in RegisterInput) (int64, error)
	Login(ctx context.Context, email, password string) (LoginResult, error)
	ParseToken(token string) (auth.Identity, error)
}

type Articles interface {
	List(ctx context.Context) ([]models.Article, error)
	Search(ctx context.Context, title string) ([]models.Article, error)
	Get(ctx context.Context, id int64) (*models.Article, error)
	Create(ctx context.Context, actor auth.Identity, in ArticleInput) (*models.Article, error)
	Update(ctx context.Context, actor auth.Identity, id int64, in ArticleInput) (*models.Article, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
}

type Comments interface {
	ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error)
	Get(ctx context.Context, id int64) (*models.Comment, error)
	Create(ctx context.Context, actor auth.Identity, articleID int64, in CommentInput) (*models.Comment, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
}

type Users interface {
	List(ctx context.Context, actor auth.Identity) ([]models.UserProfile, error)
	Get(ctx context.Context, actor auth.Identity, id int64) (*models.UserProfile, error)
	Update(ctx context.Context, actor auth.Identity, id int64, in UserUpdate) (*models.UserProfile, error)
	Delete(ctx context.Context, actor auth.Identity, id int64) error
	// EnsureAdmin creates the bootstrap administrator unless the email is already registered.
	EnsureAdmin(ctx context.Context, username, email, password string) error
}

// AuditLog exposes the append-only identity log.
type AuditLog interface {
	Record(ctx context.Context, e models.AuditEvent) error
	List(ctx context.Context, actor auth.Identity, f AuditFilter) ([]models.AuditEvent, error)
}

// Service aggregates all sub-services.
type Service struct {
	Auth
	Articles
	Comments
	Users
	AuditLog
}

// NewService wires the store and the credential/token managers into concrete services.
func NewService(store repository.Store, passwords *auth.Passwords, tokens *auth.Tokens, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	audit := NewAuditService(store, log)
	return &Service{
		Auth:     NewAuthService(store, passwords, tokens, audit, log),
		Articles: NewArticleService(store, log),
		Comments: NewCommentService(store, log),
		Users:    NewUserService(store, passwords, log),
		AuditLog: audit,
	}
}
