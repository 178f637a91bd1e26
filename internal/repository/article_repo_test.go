package repository

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"secure_blog/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var articleColumns = []string{"id", "title", "content", "author_id", "username", "created_at"}

func TestArticleRepository_Create(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	created := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(insertArticleSQL)).
		WithArgs("Hello", "<p>body</p>", int64(3), created).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

	id, err := NewArticleRepository(db, SQLite).Create(ctx(t), models.Article{
		Title: "Hello", Content: "<p>body</p>", AuthorID: 3, CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 17 {
		t.Fatalf("unexpected id: want 17, got %d", id)
	}
}

func TestArticleRepository_GetByID(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name       string
		mockExpect func(sqlmock.Sqlmock)
		wantTitle  string
		wantErr    error
	}{
		{
			name: "found",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectArticleByIDSQL)).
					WithArgs(int64(1)).
					WillReturnRows(sqlmock.NewRows(articleColumns).AddRow(1, "Hello", "body", 3, "alice", now))
			},
			wantTitle: "Hello",
		},
		{
			name: "not found",
			mockExpect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta(selectArticleByIDSQL)).
					WithArgs(int64(1)).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()
			tt.mockExpect(mock)

			a, err := NewArticleRepository(db, SQLite).GetByID(ctx(t), 1)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr != nil {
				return
			}
			if a.Title != tt.wantTitle || a.AuthorUsername != "alice" {
				t.Fatalf("unexpected article: %+v", a)
			}
		})
	}
}

func TestArticleRepository_SearchByTitle_EscapesPattern(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(searchArticlesTitleSQL)).
		WithArgs(`%100\%%`).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	out, err := NewArticleRepository(db, SQLite).SearchByTitle(ctx(t), "100%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
}

func TestArticleRepository_List_QueryError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(selectArticlesSQL)).
		WillReturnError(errors.New("down"))

	_, err := NewArticleRepository(db, SQLite).List(ctx(t))
	if err == nil || !contains(err.Error(), "select articles") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestArticleRepository_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		affected int64
		run      func(r *ArticleRepository) error
		wantErr  error
	}{
		{
			name:     "update",
			query:    updateArticleSQL,
			affected: 1,
			run: func(r *ArticleRepository) error {
				return r.Update(ctx(t), models.Article{ID: 4, Title: "t", Content: "c"})
			},
		},
		{
			name:  "update missing",
			query: updateArticleSQL,
			run: func(r *ArticleRepository) error {
				return r.Update(ctx(t), models.Article{ID: 4, Title: "t", Content: "c"})
			},
			wantErr: ErrNotFound,
		},
		{
			name:     "delete",
			query:    deleteArticleSQL,
			affected: 1,
			run:      func(r *ArticleRepository) error { return r.Delete(ctx(t), 4) },
		},
		{
			name:    "delete missing",
			query:   deleteArticleSQL,
			run:     func(r *ArticleRepository) error { return r.Delete(ctx(t), 4) },
			wantErr: ErrNotFound,
		},
		{
			name:  "delete by author with no rows is fine",
			query: deleteArticlesByAuthorSQL,
			run:   func(r *ArticleRepository) error { return r.DeleteByAuthor(ctx(t), 4) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, cleanup := newMock(t)
			defer cleanup()

			mock.ExpectExec(regexp.QuoteMeta(tt.query)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			if err := tt.run(NewArticleRepository(db, SQLite)); !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}
