package server

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/playperu/typerace/internal/handler/render"
)

// handleSPA serves the built frontend from dir. Paths that name a file are
// served as is; other GET requests outside /api and /ws get index.html so
// client-side routes survive a reload.
func handleSPA(dir string) http.HandlerFunc {
	fsys := os.DirFS(dir)
	files := http.FileServerFS(fsys)

	return func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name != "" {
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}

		page := r.Method == http.MethodGet || r.Method == http.MethodHead
		if !page || strings.HasPrefix(r.URL.Path, "/api/") || strings.HasPrefix(r.URL.Path, "/ws") {
			render.Error(w, http.StatusNotFound, "not found")
			return
		}

		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, fsys, "index.html")
	}
}
