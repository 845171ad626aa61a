package avatars

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "webp", input: "abc.webp", want: true},
		{name: "upper case extension", input: "abc.JPG", want: true},
		{name: "empty", input: "", want: false},
		{name: "traversal", input: "../users.json", want: false},
		{name: "nested", input: "a/b.png", want: false},
		{name: "not an image", input: "script.js", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidName(tt.input))
		})
	}
}

func TestLocalStorage_SaveServeDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "avatars"))
	require.NoError(t, err)

	err = s.Save(ctx, "me.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/uploads/avatars/me.png", nil)
	w := httptest.NewRecorder()
	s.ServeAvatar(w, req, "me.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png-bytes", w.Body.String())

	require.NoError(t, s.Delete(ctx, "me.png"))
	_, err = os.Stat(filepath.Join(dir, "avatars", "me.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is fine
	assert.NoError(t, s.Delete(ctx, "me.png"))
}

func TestLocalStorage_RejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Save(ctx, "../escape.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrInvalidName)

	assert.ErrorIs(t, s.Delete(ctx, "../escape.png"), ErrInvalidName)
}

func TestLocalStorage_ServeAvatarHeaders(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "me.png", strings.NewReader("png-bytes"), 9, "image/png"))

	tests := []struct {
		name         string
		avatar       string
		wantStatus   int
		wantCache    string
		wantJSONBody bool
	}{
		{name: "stored avatar", avatar: "me.png", wantStatus: http.StatusOK, wantCache: "public, max-age=31536000, immutable"},
		{name: "missing avatar", avatar: "gone.png", wantStatus: http.StatusNotFound, wantCache: "no-store", wantJSONBody: true},
		{name: "invalid name", avatar: "../me.png", wantStatus: http.StatusNotFound, wantCache: "no-store", wantJSONBody: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.ServeAvatar(w, httptest.NewRequest(http.MethodGet, "/uploads/avatars/x", nil), tt.avatar)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCache, w.Header().Get("Cache-Control"))
			if tt.wantJSONBody {
				assert.JSONEq(t, `{"error":"Avatar not found"}`, w.Body.String())
			}
		})
	}
}
