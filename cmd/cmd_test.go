package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"travel-planner-backend/internal/config"
	"travel-planner-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Storage.BoltPath = filepath.Join(dir, "data", "travelplanner.db")
	cfg.Avatars.Dir = filepath.Join(dir, "avatars")
	cfg.Server.ImagesDir = filepath.Join(dir, "images")
	cfg.JWT.Secret = "test-secret"
	return cfg
}

func seedTours(t *testing.T, cfg *config.Config, n int) {
	t.Helper()
	tours := make([]models.PopularTour, 0, n)
	for i := 1; i <= n; i++ {
		tours = append(tours, models.PopularTour{ID: i, Title: fmt.Sprintf("Tour %d", i)})
	}
	data, err := json.Marshal(tours)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.Storage.DataDir, 0o755))
	require.NoError(t, os.WriteFile(cfg.Storage.CollectionPath("popularTours"), data, 0o644))
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	cols, err := openCollections(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(cols.close)

	avatarStorage, err := newAvatarStorage(context.Background(), cfg)
	require.NoError(t, err)

	app := newApplication(cfg, cols, avatarStorage)
	app.catalog.Warm(context.Background())
	return app.router()
}

func serve(router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_UnknownRouteIsJSON(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	w := serve(router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Route not found"}`, w.Body.String())

	w = serve(router, http.MethodPatch, "/tips", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.CORSOrigin = "https://travel.example"
	router := newTestRouter(t, cfg)

	w := serve(router, http.MethodOptions, "/travels", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://travel.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestRouter_PopularToursAliases(t *testing.T) {
	cfg := testConfig(t)
	seedTours(t, cfg, 15)
	router := newTestRouter(t, cfg)

	for _, path := range []string{"/popular-tours", "/popularTours"} {
		w := serve(router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, path)

		var tours []models.PopularTour
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tours))
		assert.Len(t, tours, 12, path)
	}

	w := serve(router, http.MethodGet, "/allTours", nil)
	var all []models.PopularTour
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Len(t, all, 15)

	w = serve(router, http.MethodGet, "/popular-tours/3", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tour 3")
}

func TestRouter_RegisterAndCreateTravel(t *testing.T) {
	tests := []struct {
		name   string
		driver string
	}{
		{name: "file storage", driver: "file"},
		{name: "bolt storage", driver: "bolt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Storage.Driver = tt.driver
			router := newTestRouter(t, cfg)

			w := serve(router, http.MethodPost, "/auth/register", map[string]string{
				"username": "ann", "email": "ann@example.com", "password": "secret",
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			w = serve(router, http.MethodPost, "/travels", map[string]string{
				"title": "Weekend", "city": "Lisbon", "date": "2026-05-01",
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			w = serve(router, http.MethodGet, "/travels", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "Lisbon")
		})
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	w := serve(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	w = serve(router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "travelplanner_http_requests_total")
}

func TestOpenCollections_UnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Driver = "memory"

	_, err := openCollections(context.Background(), cfg)
	assert.Error(t, err)
}

func TestCheckCollections(t *testing.T) {
	cfg := testConfig(t)
	seedTours(t, cfg, 2)

	cols, err := openCollections(context.Background(), cfg)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, checkCollections(context.Background(), &out, cols.staters()))
	assert.Regexp(t, `popularTours\s+ok\s+2`, out.String())
	assert.Regexp(t, `users\s+empty\s+0`, out.String())

	require.NoError(t, os.WriteFile(cfg.Storage.CollectionPath("users"), []byte("{broken"), 0o644))
	out.Reset()
	err = checkCollections(context.Background(), &out, cols.staters())
	assert.ErrorIs(t, err, errUnreadable)
	assert.Contains(t, out.String(), "read_error")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, testConfig(t))

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/auth/delete-account/1"},
		{http.MethodPost, "/verifyPassword"},
		{http.MethodPost, "/updateProfile"},
		{http.MethodPost, "/travels/user/1/add"},
		{http.MethodDelete, "/travels/user-tours/1/2"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, map[string]int{"userId": 1})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
