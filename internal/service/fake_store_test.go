package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"secure_blog/internal/models"
	"secure_blog/internal/repository"
)

// fakeStore is an in-memory repository.Store. WithinTx does not roll back;
// tests that need atomicity run against SQLite in the repository package.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]models.User
	articles map[int64]models.Article
	comments map[int64]models.Comment
	events   []models.AuditEvent
	nextID   int64

	replacePasswordErr error
	appendErr          error
	txCalls            int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    map[int64]models.User{},
		articles: map[int64]models.Article{},
		comments: map[int64]models.Comment{},
	}
}

func (s *fakeStore) Users() repository.Users { return fakeUsers{s} }
func (s *fakeStore) Articles() repository.Articles { return fakeArticles{s} }
func (s *fakeStore) Comments() repository.Comments { return fakeComments{s} }
func (s *fakeStore) Audit() repository.AuditEvents { return fakeAudit{s} }

func (s *fakeStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	s.txCalls++
	s.mu.Unlock()
	return fn(ctx, s)
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

// seedUser stores u directly and returns its id.
func (s *fakeStore) seedUser(u models.User) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.id()
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	s.users[u.ID] = u
	return u.ID
}

func (s *fakeStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeUsers struct{ s *fakeStore }

func (f fakeUsers) Create(_ context.Context, u models.User) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, existing := range f.s.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return 0, repository.ErrDuplicate
		}
	}
	u.ID = f.s.id()
	f.s.users[u.ID] = u
	return u.ID, nil
}

func (f fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, u := range f.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeUsers) Taken(_ context.Context, email, username string, excludeID int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, u := range f.s.users {
		if id != excludeID && (u.Email == email || u.Username == username) {
			return true, nil
		}
	}
	return false, nil
}

func (f fakeUsers) List(_ context.Context) ([]models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := make([]models.User, 0, len(f.s.users))
	for _, u := range f.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeUsers) Update(_ context.Context, u models.User) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	f.s.users[u.ID] = u
	return nil
}

func (f fakeUsers) ReplacePassword(_ context.Context, id int64, expected, replacement string) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.replacePasswordErr != nil {
		return false, f.s.replacePasswordErr
	}
	u, ok := f.s.users[id]
	if !ok || u.Password != expected {
		return false, nil
	}
	u.Password = replacement
	f.s.users[id] = u
	return true, nil
}

func (f fakeUsers) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.s.users, id)
	return nil
}

type fakeArticles struct{ s *fakeStore }

func (f fakeArticles) withAuthor(a models.Article) models.Article {
	a.AuthorUsername = f.s.users[a.AuthorID].Username
	return a
}

func (f fakeArticles) Create(_ context.Context, a models.Article) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a.ID = f.s.id()
	f.s.articles[a.ID] = a
	return a.ID, nil
}

func (f fakeArticles) GetByID(_ context.Context, id int64) (*models.Article, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.articles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = f.withAuthor(a)
	return &a, nil
}

func (f fakeArticles) List(ctx context.Context) ([]models.Article, error) {
	return f.SearchByTitle(ctx, "")
}

func (f fakeArticles) SearchByTitle(_ context.Context, title string) ([]models.Article, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.Article{}
	for _, a := range f.s.articles {
		if strings.Contains(strings.ToLower(a.Title), strings.ToLower(title)) {
			out = append(out, f.withAuthor(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeArticles) Update(_ context.Context, a models.Article) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	current, ok := f.s.articles[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.Title, current.Content = a.Title, a.Content
	f.s.articles[a.ID] = current
	return nil
}

func (f fakeArticles) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.articles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.s.articles, id)
	return nil
}

func (f fakeArticles) DeleteByAuthor(_ context.Context, authorID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, a := range f.s.articles {
		if a.AuthorID == authorID {
			delete(f.s.articles, id)
		}
	}
	return nil
}

type fakeComments struct{ s *fakeStore }

func (f fakeComments) Create(_ context.Context, c models.Comment) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c.ID = f.s.id()
	f.s.comments[c.ID] = c
	return c.ID, nil
}

func (f fakeComments) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	c, ok := f.s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Username = f.s.users[c.UserID].Username
	return &c, nil
}

func (f fakeComments) ListByArticle(_ context.Context, articleID int64) ([]models.Comment, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.Comment{}
	for _, c := range f.s.comments {
		if c.ArticleID == articleID {
			c.Username = f.s.users[c.UserID].Username
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f fakeComments) Delete(_ context.Context, id int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.s.comments, id)
	return nil
}

func (f fakeComments) DeleteByArticle(_ context.Context, articleID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, c := range f.s.comments {
		if c.ArticleID == articleID {
			delete(f.s.comments, id)
		}
	}
	return nil
}

func (f fakeComments) DeleteByUser(_ context.Context, userID int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for id, c := range f.s.comments {
		if c.UserID == userID || f.s.articles[c.ArticleID].AuthorID == userID {
			delete(f.s.comments, id)
		}
	}
	return nil
}

type fakeAudit struct{ s *fakeStore }

func (f fakeAudit) Append(_ context.Context, e models.AuditEvent) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.appendErr != nil {
		return f.s.appendErr
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	f.s.events = append(f.s.events, e)
	return nil
}

func (f fakeAudit) List(_ context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []models.AuditEvent{}
	for _, e := range f.s.events {
		if !from.IsZero() && e.OccurredAt.Before(from) {
			continue
		}
		if !to.IsZero() && e.OccurredAt.After(to) {
			continue
		}
		if typ != "" && e.Type != typ {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
