package score

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/typerace/internal/handler/render"
	"github.com/playperu/typerace/internal/race"
	"github.com/playperu/typerace/internal/scores"
)

type Handler struct {
	store  scores.Store
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger, store scores.Store) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.save)
	r.Get("/leaderboard", h.leaderboard)
	return r
}

// SaveRequest is the body of POST /api/score. wpm and accuracy are required.
type SaveRequest struct {
	Name            string    `json:"name" required:"true"`
	WPM             *float64  `json:"wpm" required:"true"`
	Accuracy        *float64  `json:"accuracy" required:"true"`
	Mode            race.Mode `json:"mode,omitempty" enum:"single,multi"`
	CharactersTyped int       `json:"charactersTyped,omitempty"`
	Errors          int       `json:"errors,omitempty"`
}

// LeaderboardQuery documents the query string of GET /api/score/leaderboard.
type LeaderboardQuery struct {
	Mode   string `query:"mode" enum:"single,multi"`
	Limit  int    `query:"limit" default:"10" minimum:"1" maximum:"100"`
	SortBy string `query:"sortBy" default:"wpm" enum:"wpm,accuracy,charactersTyped,date"`
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := render.Decode(w, r, &req); err != nil {
		render.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WPM == nil || req.Accuracy == nil {
		render.Error(w, http.StatusBadRequest, "wpm and accuracy are required")
		return
	}

	saved, err := h.store.Save(r.Context(), race.Score{
		Name:            req.Name,
		WPM:             *req.WPM,
		Accuracy:        *req.Accuracy,
		Mode:            req.Mode,
		CharactersTyped: req.CharactersTyped,
		Errors:          req.Errors,
	})
	if errors.Is(err, scores.ErrInvalidScore) {
		render.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("saving score", "error", err)
		render.Error(w, http.StatusInternalServerError, "could not save score")
		return
	}

	h.logger.Info("score saved", "id", saved.ID, "mode", saved.Mode, "wpm", saved.WPM)
	render.JSON(w, http.StatusCreated, saved)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := scores.Query{
		Mode:   race.Mode(params.Get("mode")),
		SortBy: params.Get("sortBy"),
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			render.Error(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		q.Limit = limit
	}

	board, err := h.store.Leaderboard(r.Context(), q)
	if errors.Is(err, scores.ErrInvalidScore) {
		render.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("loading leaderboard", "error", err)
		render.Error(w, http.StatusInternalServerError, "could not load leaderboard")
		return
	}
	render.JSON(w, http.StatusOK, board)
}
