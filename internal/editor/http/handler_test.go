package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecraft-ai/sitecraft-backend/internal/auth"
	"github.com/sitecraft-ai/sitecraft-backend/internal/editor"
	projectdomain "github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

type stubUploader struct{}

func (stubUploader) PutImage(_ context.Context, userID, projectID, ext, _ string, _ []byte) (string, error) {
	return "https://cdn.example.com/" + userID + "/" + projectID + "/img." + ext, nil
}

type stubStore struct {
	err     error
	content string
}

func (s *stubStore) UpdateContent(_ context.Context, _, _, content string) error {
	if s.err != nil {
		return s.err
	}
	s.content = content
	return nil
}

func serve(store *stubStore, body string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(editor.NewSaveService(stubUploader{}, store))
	h.Register(r.Group("/api/v1/projects", func(c *gin.Context) { c.Set(auth.CtxFirebaseUID, "user-1") }))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/api/v1/projects/proj-1/content", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func pngBody(html string) string {
	payload, _ := json.Marshal(map[string]any{
		"html": html,
		"images": []map[string]string{{
			"placeholder": "{{hero}}",
			"data_url":    "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		}},
	})
	return string(payload)
}

func TestSave_ReplacesPlaceholders(t *testing.T) {
	store := &stubStore{}
	w := serve(store, pngBody(`<img src="{{hero}}">`))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK   bool   `json:"ok"`
		HTML string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, `<img src="https://cdn.example.com/user-1/proj-1/img.png">`, resp.HTML)
	assert.Equal(t, resp.HTML, store.content)
}

func TestSave_ErrorMapping(t *testing.T) {
	cases := []struct {
		name  string
		store *stubStore
		body  string
		code  int
	}{
		{"malformed body", &stubStore{}, `{"html":`, http.StatusBadRequest},
		{"empty html", &stubStore{}, `{"html":""}`, http.StatusBadRequest},
		{"bad data url", &stubStore{}, `{"html":"<p>x</p>","images":[{"placeholder":"a","data_url":"nope"}]}`, http.StatusBadRequest},
		{"missing project", &stubStore{err: projectdomain.ErrNotFound}, `{"html":"<p>x</p>"}`, http.StatusNotFound},
		{"store failure", &stubStore{err: errors.New("db down")}, `{"html":"<p>x</p>"}`, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(tc.store, tc.body)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), `"ok":false`)
		})
	}
}

func TestSave_ImageTooLarge(t *testing.T) {
	prev := editor.MaxImageBytes
	editor.MaxImageBytes = 4
	t.Cleanup(func() { editor.MaxImageBytes = prev })

	store := &stubStore{}
	w := serve(store, pngBody(`<img src="{{hero}}">`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, store.content)
}
