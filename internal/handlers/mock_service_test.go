package handlers

import (
	"context"
	"net/http"
	"sync"

	"secure_blog/internal/apperr"
	"secure_blog/internal/auth"
	"secure_blog/internal/models"
	"secure_blog/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerID  int64
	registerErr error
	loginRes    service.LoginResult
	loginErr    error
	// tokens maps a raw bearer token to the identity it resolves to.
	tokens map[string]auth.Identity

	lastRegister   service.RegisterInput
	lastLoginEmail string
	lastParseToken string
}

func (m *mockAuth) Register(ctx context.Context, in service.RegisterInput) (int64, error) {
	m.lastRegister = in
	return m.registerID, m.registerErr
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (service.LoginResult, error) {
	m.lastLoginEmail = email
	return m.loginRes, m.loginErr
}

func (m *mockAuth) ParseToken(token string) (auth.Identity, error) {
	m.lastParseToken = token
	if ident, ok := m.tokens[token]; ok {
		return ident, nil
	}
	return auth.Identity{}, &auth.AuthError{Kind: auth.InvalidSignature}
}

type mockArticles struct {
	list    []models.Article
	article *models.Article
	err     error

	lastActor auth.Identity
	lastID    int64
	lastInput service.ArticleInput
	lastQuery string
}

func (m *mockArticles) List(ctx context.Context) ([]models.Article, error) {
	return m.list, m.err
}

func (m *mockArticles) Search(ctx context.Context, title string) ([]models.Article, error) {
	m.lastQuery = title
	return m.list, m.err
}

func (m *mockArticles) Get(ctx context.Context, id int64) (*models.Article, error) {
	m.lastID = id
	return m.article, m.err
}

func (m *mockArticles) Create(ctx context.Context, actor auth.Identity, in service.ArticleInput) (*models.Article, error) {
	m.lastActor, m.lastInput = actor, in
	return m.article, m.err
}

func (m *mockArticles) Update(ctx context.Context, actor auth.Identity, id int64, in service.ArticleInput) (*models.Article, error) {
	m.lastActor, m.lastID, m.lastInput = actor, id, in
	return m.article, m.err
}

func (m *mockArticles) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	m.lastActor, m.lastID = actor, id
	return m.err
}

type mockComments struct {
	list    []models.Comment
	comment *models.Comment
	err     error

	lastActor     auth.Identity
	lastID        int64
	lastArticleID int64
	lastInput     service.CommentInput
}

func (m *mockComments) ListByArticle(ctx context.Context, articleID int64) ([]models.Comment, error) {
	m.lastArticleID = articleID
	return m.list, m.err
}

func (m *mockComments) Get(ctx context.Context, id int64) (*models.Comment, error) {
	m.lastID = id
	return m.comment, m.err
}

func (m *mockComments) Create(ctx context.Context, actor auth.Identity, articleID int64, in service.CommentInput) (*models.Comment, error) {
	m.lastActor, m.lastArticleID, m.lastInput = actor, articleID, in
	return m.comment, m.err
}

func (m *mockComments) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	m.lastActor, m.lastID = actor, id
	return m.err
}

type mockUsers struct {
	list    []models.UserProfile
	profile *models.UserProfile
	err     error

	lastActor  auth.Identity
	lastID     int64
	lastUpdate service.UserUpdate
}

func (m *mockUsers) List(ctx context.Context, actor auth.Identity) ([]models.UserProfile, error) {
	m.lastActor = actor
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("forbidden: cannot list user")
	}
	return m.list, m.err
}

func (m *mockUsers) Get(ctx context.Context, actor auth.Identity, id int64) (*models.UserProfile, error) {
	m.lastActor, m.lastID = actor, id
	return m.profile, m.err
}

func (m *mockUsers) Update(ctx context.Context, actor auth.Identity, id int64, in service.UserUpdate) (*models.UserProfile, error) {
	m.lastActor, m.lastID, m.lastUpdate = actor, id, in
	return m.profile, m.err
}

func (m *mockUsers) Delete(ctx context.Context, actor auth.Identity, id int64) error {
	m.lastActor, m.lastID = actor, id
	return m.err
}

func (m *mockUsers) EnsureAdmin(ctx context.Context, username, email, password string) error {
	return m.err
}

type mockAuditLog struct {
	mu         sync.Mutex
	resp       []models.AuditEvent
	err        error
	lastFilter service.AuditFilter
}

// add appends an event visible to later List calls; safe while a stream polls.
func (m *mockAuditLog) add(e models.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resp = append(m.resp, e)
}

func (m *mockAuditLog) Record(ctx context.Context, e models.AuditEvent) error {
	return m.err
}

func (m *mockAuditLog) List(ctx context.Context, actor auth.Identity, f service.AuditFilter) ([]models.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = f
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("forbidden: cannot list audit")
	}
	out := make([]models.AuditEvent, 0, len(m.resp))
	for _, e := range m.resp {
		if !e.OccurredAt.Before(f.From) {
			out = append(out, e)
		}
	}
	return out, m.err
}

// ---- Shared Test Helpers ----

var (
	aliceIdentity = auth.Identity{ID: 1, Username: "alice", Role: models.RoleUser}
	rootIdentity  = auth.Identity{ID: 9, Username: "root", Role: models.RoleAdmin}
)

// newMockAuth knows two tokens: "alice" (user) and "root" (admin).
func newMockAuth() *mockAuth {
	return &mockAuth{tokens: map[string]auth.Identity{
		"alice": aliceIdentity,
		"root":  rootIdentity,
	}}
}

func newTestRouter(s *service.Service) *gin.Engine {
	if s.Auth == nil {
		s.Auth = newMockAuth()
	}
	h := NewHandler(s, nil, 0)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
