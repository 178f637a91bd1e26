package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/logger"
	"secure_blog/internal/models"
	"secure_blog/internal/policy"
	"secure_blog/internal/repository"
	"secure_blog/internal/sanitize"
)

const maxTitleLen = 200

type ArticleService struct {
	store repository.Store
	log   *logger.Logger
	now   func() time.Time
}

func NewArticleService(store repository.Store, log *logger.Logger) *ArticleService {
	return &ArticleService{store: store, log: log, now: time.Now}
}

// cleanArticle trims the title and sanitizes the content.
func cleanArticle(in ArticleInput) (ArticleInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLen {
		return in, apperr.Validation("title is too long")
	}
	in.Content = sanitize.Sanitize(in.Content)
	return in, nil
}

func (s *ArticleService) List(ctx context.Context) ([]models.Article, error) {
	out, err := s.store.Articles().List(ctx)
	return out, fromRepo(err, "article")
}

// Search matches title as a case-insensitive literal substring.
func (s *ArticleService) Search(ctx context.Context, title string) ([]models.Article, error) {
	out, err := s.store.Articles().SearchByTitle(ctx, strings.TrimSpace(title))
	return out, fromRepo(err, "article")
}

func (s *ArticleService) Get(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.store.Articles().GetByID(ctx, id)
	if err != nil {
		return nil, fromRepo(err, "article")
	}
	return a, nil
}

// Create stores a new article authored by actor.
func (s *ArticleService) Create(ctx context.Context, actor auth.Identity, in ArticleInput) (*models.Article, error) {
	if err := policy.Authorize(actor, policy.Article, policy.Create, policy.Target{}); err != nil {
		return nil, err
	}
	in, err := cleanArticle(in)
	if err != nil {
		return nil, err
	}

	var created *models.Article
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		id, err := tx.Articles().Create(ctx, models.Article{
			Title:     in.Title,
			Content:   in.Content,
			AuthorID:  actor.ID,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		created, err = tx.Articles().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fromRepo(err, "article")
	}
	s.log.Infow("article_created", "article_id", created.ID, "author_id", actor.ID)
	return created, nil
}

// Update rewrites title and content. Only the author or an admin may update;
// input is validated after the existence and ownership checks.
func (s *ArticleService) Update(ctx context.Context, actor auth.Identity, id int64, in ArticleInput) (*models.Article, error) {
	var updated *models.Article
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Articles().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.Article, policy.Update, policy.Target{OwnerID: current.AuthorID}); err != nil {
			return err
		}
		clean, err := cleanArticle(in)
		if err != nil {
			return err
		}
		current.Title, current.Content = clean.Title, clean.Content
		if err := tx.Articles().Update(ctx, *current); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, fromRepo(err, "article")
	}
	s.log.Infow("article_updated", "article_id", id, "actor_id", actor.ID)
	return updated, nil
}

// Delete removes the article and its comments.
func (s *ArticleService) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Articles().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := policy.Authorize(actor, policy.Article, policy.Delete, policy.Target{OwnerID: current.AuthorID}); err != nil {
			return err
		}
		if err := tx.Comments().DeleteByArticle(ctx, id); err != nil {
			return err
		}
		return tx.Articles().Delete(ctx, id)
	})
	if err != nil {
		return fromRepo(err, "article")
	}
	s.log.Infow("article_deleted", "article_id", id, "actor_id", actor.ID)
	return nil
}
