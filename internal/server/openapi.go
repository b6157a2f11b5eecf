package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/typerace/internal/handler/health"
	"github.com/playperu/typerace/internal/handler/render"
	"github.com/playperu/typerace/internal/handler/score"
	"github.com/playperu/typerace/internal/handler/text"
	"github.com/playperu/typerace/internal/race"
)

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "TypeRace API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for multiplayer typing races. " +
		"Race rooms are played over the /ws websocket; the HTTP endpoints serve texts and scores.")

	// GET /
	getRoot, _ := r.NewOperationContext(http.MethodGet, "/")
	getRoot.SetSummary("API banner")
	getRoot.AddRespStructure(RootResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getRoot)

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the status of each configured dependency (sqlite, redis).")
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]health.Result{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/text
	getText, _ := r.NewOperationContext(http.MethodGet, "/api/text")
	getText.SetSummary("Random text")
	getText.SetDescription("Returns a random race text containing only letters and single spaces.")
	getText.AddRespStructure(text.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getText.AddRespStructure(render.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getText)

	// POST /api/score
	postScore, _ := r.NewOperationContext(http.MethodPost, "/api/score")
	postScore.SetSummary("Save score")
	postScore.SetDescription("Stores a finished run. Mode defaults to single.")
	postScore.AddReqStructure(score.SaveRequest{})
	postScore.AddRespStructure(race.Score{}, openapi.WithHTTPStatus(http.StatusCreated))
	postScore.AddRespStructure(render.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postScore)

	// GET /api/score/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/score/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Returns the best scores, highest first, optionally filtered by mode.")
	getBoard.AddReqStructure(score.LeaderboardQuery{})
	getBoard.AddRespStructure([]race.Score{}, openapi.WithHTTPStatus(http.StatusOK))
	getBoard.AddRespStructure(render.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getBoard)

	// GET /ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/ws")
	getWS.SetSummary("Race websocket")
	getWS.SetDescription("Upgrades to a websocket carrying JSON frames {\"event\", \"data\"}. " +
		"Client events: createRoom, joinRoom, toggleReady, updateProgress, sendMessage. " +
		"Server events: roomCreated, playerJoined, playerReadyUpdate, countdown, countdownAborted, " +
		"gameStarted, progressUpdate, gameOver, newMessage, playerLeft, error.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
