package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"travel-planner-backend/internal/avatars"

	"github.com/go-chi/chi/v5"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// StaticHandler serves bundled images and uploaded avatars
type StaticHandler struct {
	imagesDir string
	avatars   avatars.Storage
}

// NewStaticHandler creates a new static handler
func NewStaticHandler(imagesDir string, avatarStorage avatars.Storage) *StaticHandler {
	return &StaticHandler{
		imagesDir: imagesDir,
		avatars:   avatarStorage,
	}
}

// Image handles GET /images/*
func (h *StaticHandler) Image(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.Contains(name, "..") || strings.Contains(name, "\\") {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}

	clean := path.Clean("/" + name)
	if !imageExtensions[strings.ToLower(path.Ext(clean))] {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.imagesDir, filepath.FromSlash(clean))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		respondError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// Avatar handles GET /uploads/avatars/{name}
func (h *StaticHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !avatars.ValidName(name) {
		respondError(w, "Avatar not found", http.StatusNotFound)
		return
	}

	h.avatars.ServeAvatar(w, r, name)
}
