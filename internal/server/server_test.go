package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/book"
	"bookshelf/internal/dashboard"
	"bookshelf/internal/httpx"
	"bookshelf/internal/platform/config"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/recommend"
	"bookshelf/internal/server"
	"bookshelf/internal/testutil"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Addr:                  ":0",
		BasePath:              "/api/v1",
		CORSAllowedOrigins:    []string{"http://localhost:3000"},
		RateLimitRPS:          1000,
		RateLimitBurst:        1000,
		MaxBodyBytes:          1 << 20,
		EnableDashboard:       true,
		EnableRecommendations: true,
	}
}

func newRouter(t *testing.T, cfg *config.Config, db server.Pinger) (http.Handler, *book.MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := book.NewMockRepository(ctrl)
	books := book.NewService(repo)
	log := logger.Nop()

	limiter := httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)
	t.Cleanup(limiter.Close)

	h := server.NewRouter(cfg, log, limiter, server.Deps{
		DB:        db,
		Books:     book.NewHTTPHandler(books, log),
		Recommend: recommend.NewHTTPHandler(recommend.NewService(nil, nil, nil, log), books, log),
		Dashboard: dashboard.NewHandler(books, log),
	})
	return h, repo
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRouter_Health(t *testing.T) {
	h, _ := newRouter(t, testConfig(), pinger{})
	w := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	h, _ = newRouter(t, testConfig(), pinger{err: errors.New("down")})
	w = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db":"down"`)
}

func TestRouter_Readyz(t *testing.T) {
	h, _ := newRouter(t, testConfig(), pinger{})
	assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)

	h, _ = newRouter(t, testConfig(), pinger{err: errors.New("down")})
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)

	h, _ = newRouter(t, testConfig(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, serve(h, httptest.NewRequest(http.MethodGet, "/readyz", nil)).Code)
}

func TestRouter_BookRoutes(t *testing.T) {
	h, repo := newRouter(t, testConfig(), pinger{})
	id := testutil.TestBook.ID

	repo.EXPECT().List(gomock.Any(), book.Query{}).Return([]book.Book{testutil.TestBook}, nil).Times(2)
	repo.EXPECT().Get(gomock.Any(), "", id).Return(testutil.TestBook, nil)
	repo.EXPECT().Update(gomock.Any(), "", id, gomock.Any()).Return(testutil.TestBook, nil).Times(2)
	repo.EXPECT().Delete(gomock.Any(), "", id).Return(nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"list", http.MethodGet, "/api/v1/books", nil, http.StatusOK},
		{"stats is not an id", http.MethodGet, "/api/v1/books/stats", nil, http.StatusOK},
		{"get", http.MethodGet, "/api/v1/books/" + id, nil, http.StatusOK},
		{"put", http.MethodPut, "/api/v1/books/" + id, map[string]any{"title": "Dune"}, http.StatusOK},
		{"patch", http.MethodPatch, "/api/v1/books/" + id, map[string]any{"progress_percentage": 50}, http.StatusOK},
		{"delete", http.MethodDelete, "/api/v1/books/" + id, nil, http.StatusOK},
		{"create rejected before storage", http.MethodPost, "/api/v1/books", map[string]any{"title": "No author"}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/v1/shelves", nil, http.StatusNotFound},
		{"wrong method", http.MethodPost, "/api/v1/books/" + id, map[string]any{}, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(h, testutil.NewRequest(tt.method, tt.path, tt.body))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestRouter_AuthEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.AuthJWTSecret = testutil.TestSecret
	h, repo := newRouter(t, cfg, pinger{})

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/books", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health stays public")

	repo.EXPECT().List(gomock.Any(), book.Query{Owner: "user-1"}).Return([]book.Book{}, nil)
	token := testutil.GenerateTestToken(testutil.TestSecret, "user-1", "USER")
	w = serve(h, testutil.NewRequestWithAuth(http.MethodGet, "/api/v1/books", nil, token))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_FeatureFlags(t *testing.T) {
	h, repo := newRouter(t, testConfig(), pinger{})
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return([]book.Book{}, nil).Times(2)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = serve(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))

	cfg := testConfig()
	cfg.EnableDashboard = false
	cfg.EnableRecommendations = false
	h, _ = newRouter(t, cfg, pinger{})

	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, httptest.NewRequest(http.MethodGet, "/dashboard", nil)).Code)
}

func TestRouter_EmptyBasePath(t *testing.T) {
	cfg := testConfig()
	cfg.BasePath = ""
	h, repo := newRouter(t, cfg, pinger{})
	repo.EXPECT().List(gomock.Any(), book.Query{}).Return([]book.Book{}, nil)

	w := serve(h, httptest.NewRequest(http.MethodGet, "/books", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := newRouter(t, testConfig(), pinger{})

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/books", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	r.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := serve(h, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_StartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := server.New(cfg, logger.Nop(), server.Deps{DB: pinger{}, Books: book.NewHTTPHandler(book.NewService(nil), logger.Nop())})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	require.NoError(t, srv.Stop(context.Background()))
	require.NoError(t, <-done)
}
