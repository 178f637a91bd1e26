package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"secure_blog/internal/models"
)

type CommentRepository struct {
	conn
}

func NewCommentRepository(db DBTX, dialect Dialect) *CommentRepository {
	return &CommentRepository{conn{db: db, dialect: dialect}}
}

var _ Comments = (*CommentRepository)(nil)

const (
	insertCommentSQL = `INSERT INTO comments (content, user_id, article_id, created_at) VALUES (?, ?, ?, ?) RETURNING id`

	selectCommentColumns = `
		SELECT c.id, c.content, c.user_id, u.username, c.article_id, c.created_at
		FROM comments c
		JOIN users u ON c.user_id = u.id`
	selectCommentByIDSQL       = selectCommentColumns + ` WHERE c.id = ?`
	selectCommentsByArticleSQL = selectCommentColumns + ` WHERE c.article_id = ? ORDER BY c.id`

	deleteCommentSQL           = `DELETE FROM comments WHERE id = ?`
	deleteCommentsByArticleSQL = `DELETE FROM comments WHERE article_id = ?`
	deleteCommentsByUserSQL    = `DELETE FROM comments WHERE user_id = ? OR article_id IN (SELECT id FROM articles WHERE author_id = ?)`
)

func (r *CommentRepository) Create(ctx context.Context, c models.Comment) (int64, error) {
	var id int64
	if err := r.queryRow(ctx, insertCommentSQL, c.Content, c.UserID, c.ArticleID, c.CreatedAt.UTC()).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert comment: %w", err)
	}
	return id, nil
}

func scanComment(row interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.UserID, &c.Username, &c.ArticleID, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, err := scanComment(r.queryRow(ctx, selectCommentByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select comment %d: %w", id, err)
	}
	return c, nil
}

func (r *CommentRepository) ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	rows, err := r.query(ctx, selectCommentsByArticleSQL, articleID)
	if err != nil {
		return nil, fmt.Errorf("select comments of article %d: %w", articleID, err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0, 16)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.exec(ctx, deleteCommentSQL, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	return affectedOrNotFound(res)
}

func (r *CommentRepository) DeleteByArticle(ctx context.Context, articleID int64) error {
	if _, err := r.exec(ctx, deleteCommentsByArticleSQL, articleID); err != nil {
		return fmt.Errorf("delete comments of article %d: %w", articleID, err)
	}
	return nil
}

func (r *CommentRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if _, err := r.exec(ctx, deleteCommentsByUserSQL, userID, userID); err != nil {
		return fmt.Errorf("delete comments of user %d: %w", userID, err)
	}
	return nil
}
