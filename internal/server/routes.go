package server

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/typerace/internal/handler/render"
)

// RootResponse is the liveness banner served at /.
type RootResponse struct {
	Message string `json:"message"`
}

func addRoutes(r chi.Router, logger *slog.Logger, spaDir string, mount func(r chi.Router)) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("TypeRace API", "/openapi.json", "/docs"))

	if mount != nil {
		mount(r)
	}

	spa := false
	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
			spa = true
		} else {
			logger.Warn("SPA directory not found, serving API only", "dir", spaDir)
		}
	}
	if !spa {
		r.Get("/", handleRoot())
	}
}

func handleRoot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, http.StatusOK, RootResponse{Message: "TypingSpeedX API is running!"})
	}
}
