package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/service"
)

type stubRepo struct {
	project *domain.Project
	err     error
}

func (s *stubRepo) Create(_ context.Context, userID, name string) (*domain.Project, error) {
	return &domain.Project{ID: "p-1", UserID: userID, Name: name}, s.err
}

func (s *stubRepo) List(context.Context, string) ([]domain.Project, error) {
	if s.project == nil {
		return []domain.Project{}, s.err
	}
	return []domain.Project{*s.project}, s.err
}

func (s *stubRepo) Get(context.Context, string, string) (*domain.Project, error) {
	if s.project == nil {
		return nil, domain.ErrNotFound
	}
	return s.project, s.err
}

func (s *stubRepo) Rename(_ context.Context, _, _, name string) (*domain.Project, error) {
	if s.project == nil {
		return nil, domain.ErrNotFound
	}
	s.project.Name = name
	return s.project, s.err
}

func (s *stubRepo) UpdateContent(context.Context, string, string, string) error { return s.err }

func (s *stubRepo) Delete(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	return s.Get(ctx, userID, projectID)
}

type stubMessages struct{}

func (stubMessages) ListMessages(context.Context, string, string, int) ([]domain.Message, error) {
	return []domain.Message{{ID: "m-1", Role: domain.RoleUser, Content: "make a bakery page"}}, nil
}

func setupRouter(repo *stubRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := service.NewProjectService(repo, stubMessages{}, nil, nil, nil, "pages.example.com")
	g := r.Group("/api/v1/projects", func(c *gin.Context) {
		c.Set(auth.CtxFirebaseUID, "user-1")
	})
	New(svc).Register(g)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Create(t *testing.T) {
	r := setupRouter(&stubRepo{})

	w := do(r, http.MethodPost, "/api/v1/projects", `{"name":"Bakery"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Bakery"`)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)

	w = do(r, http.MethodPost, "/api/v1/projects", `{"name":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"ok":false`)
}

func TestHandler_GetAndRename(t *testing.T) {
	r := setupRouter(&stubRepo{project: &domain.Project{ID: "p-1", UserID: "user-1", Name: "Old"}})

	w := do(r, http.MethodGet, "/api/v1/projects/p-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPatch, "/api/v1/projects/p-1", `{"name":"New"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"New"`)
}

func TestHandler_NotFound(t *testing.T) {
	r := setupRouter(&stubRepo{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/projects/p-9", ""},
		{http.MethodPatch, "/api/v1/projects/p-9", `{"name":"x"}`},
		{http.MethodDelete, "/api/v1/projects/p-9", ""},
		{http.MethodGet, "/api/v1/projects/p-9/messages", ""},
	} {
		w := do(r, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
		assert.Contains(t, w.Body.String(), "project not found")
	}
}

func TestHandler_Messages(t *testing.T) {
	r := setupRouter(&stubRepo{project: &domain.Project{ID: "p-1", UserID: "user-1"}})

	w := do(r, http.MethodGet, "/api/v1/projects/p-1/messages?limit=20", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "make a bakery page")

	w = do(r, http.MethodGet, "/api/v1/projects/p-1/messages?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_InternalErrorIsOpaque(t *testing.T) {
	r := setupRouter(&stubRepo{err: errors.New("pq: connection refused")})

	w := do(r, http.MethodGet, "/api/v1/projects", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
