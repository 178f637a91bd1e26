package service

import (
	"context"
	"strings"
	"time"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/policy"
	"secure_blog/internal/repository"
	"secure_blog/internal/sanitize"
)

type CommentService struct {
	store repository.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewCommentService(store repository.Store, log *logger.Logger) *CommentService {
	return &CommentService{store: store, log: log, now: time.Now}
}

// ListByArticle returns the article's comments, oldest first.
func (s *CommentService) ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	if _, err := s.store.Articles().GetByID(ctx, articleID); err != nil {
		return nil, fromRepo(err, "article")
	}
	out, err := s.store.Comments().ListByArticle(ctx, articleID)
	return out, fromRepo(err, "comment")
}

func (s *CommentService) Get(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := s.store.Comments().GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "comment")
	}
	return c, nil
}

// Create attaches a comment by actor to an existing article.
func (s *CommentService) Create(ctx context.Context, actor auth.Identity, articleID int64, in CommentInput) (*models.Comment, error) {
	if err := policy.Authorize(actor, policy.Comment, policy.Create, policy.Target{}); err != nil {
		return nil, err
	}
	content := sanitize.Sanitize(in.Content)
	if strings.TrimSpace(content) == "" {
		return nil, apperr.Validation("content is required")
	}

	var created *models.Comment
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Articles().GetByID(ctx, articleID); err != nil {
			return fromRepo(err, "article")
		}
		id, err := tx.Comments().Create(ctx, models.Comment{
			Content:   content,
			UserID:    actor.ID,
			ArticleID: articleID,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		created, err = tx.Comments().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fromRepo(err, "comment")
	}
	s.log.Infow("comment_created", "comment_id", created.ID, "article_id", articleID, "user_id", actor.ID)
	return created, nil
}

func (s *CommentService) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Comments().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.Comment, policy.Delete, policy.Target{OwnerID: current.UserID}); err != nil {
			return err
		}
		return tx.Comments().Delete(ctx, id)
	})
	if err != nil {
		return fromRepo(err, "comment")
	}
	s.log.Infow("comment_deleted", "comment_id", id, "actor_id", actor.ID)
	return nil
}
