package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"secure_blog/internal/models"
)

type ArticleRepository struct {
	conn
}

func NewArticleRepository(db DBTX, dialect Dialect) *ArticleRepository {
	return &ArticleRepository{conn{db: db, dialect: dialect}}
}

var _ Articles = (*ArticleRepository)(nil)

const (
	insertArticleSQL = `INSERT INTO articles (title, content, author_id, created_at) VALUES (?, ?, ?, ?) RETURNING id`

	selectArticleColumns = `
		SELECT a.id, a.title, a.content, a.author_id, u.username, a.created_at
		FROM articles a
		JOIN users u ON a.author_id = u.id`
	selectArticleByIDSQL   = selectArticleColumns + ` WHERE a.id = ?`
	selectArticlesSQL      = selectArticleColumns + ` ORDER BY a.id`
	searchArticlesTitleSQL = selectArticleColumns + ` WHERE LOWER(a.title) LIKE ? ESCAPE '\' ORDER BY a.id`

	updateArticleSQL          = `UPDATE articles SET title = ?, content = ? WHERE id = ?`
	deleteArticleSQL          = `DELETE FROM articles WHERE id = ?`
	deleteArticlesByAuthorSQL = `DELETE FROM articles WHERE author_id = ?`
)

// Create inserts a with its author already resolved by the caller.
func (r *ArticleRepository) Create(ctx context.Context, a models.Article) (int64, error) {
	var id int64
	if err := r.queryRow(ctx, insertArticleSQL, a.Title, a.Content, a.AuthorID, a.CreatedAt.UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var a models.Article
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.AuthorUsername, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *ArticleRepository) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(r.queryRow(ctx, selectArticleByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select article %d: %w", id, err)
	}
	return a, nil
}

func (r *ArticleRepository) List(ctx context.Context) ([]models.Article, error) {
	return r.list(ctx, selectArticlesSQL)
}

// SearchByTitle matches title as a case-insensitive literal substring.
func (r *ArticleRepository) SearchByTitle(ctx context.Context, title string) ([]models.Article, error) {
	return r.list(ctx, searchArticlesTitleSQL, containsPattern(title))
}

func (r *ArticleRepository) list(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Article, 0, 16)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes title and content; the author never changes.
func (r *ArticleRepository) Update(ctx context.Context, a models.Article) error {
	res, err := r.exec(ctx, updateArticleSQL, a.Title, a.Content, a.ID)
	if err != nil {
		return fmt.Errorf("update article %d: %w", a.ID, err)
	}
	return affectedOrNotFound(res)
}

func (r *ArticleRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, deleteArticleSQL, id)
	if err != nil {
		return fmt.Errorf("delete article %d: %w", id, err)
	}
	return affectedOrNotFound(res)
}

func (r *ArticleRepository) DeleteByAuthor(ctx context.Context, authorID int64) error {
	if _, err := r.exec(ctx, deleteArticlesByAuthorSQL, authorID); err != nil {
		return fmt.Errorf("delete articles of user %d: %w", authorID, err)
	}
	return nil
}
