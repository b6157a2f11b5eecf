package text

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/typerace/internal/handler/render"
)

// Source supplies race texts.
type Source interface {
	Text() string
}

type Handler struct {
	source Source
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, source Source) *Handler {
	return &Handler{source: source, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.random)
	return r
}

// Response is a text for a solo run.
type Response struct {
	Text string `json:"text"`
}

func (h *Handler) random(w http.ResponseWriter, r *http.Request) {
	t := h.source.Text()
	if t == "" {
		h.logger.Error("text pool is empty")
		render.Error(w, http.StatusServiceUnavailable, "no texts available")
		return
	}
	render.JSON(w, http.StatusOK, Response{Text: t})
}
