package game

import (
	"encoding/json"

	"github.com/playperu/typerace/internal/race"
)

// Inbound events.
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventToggleReady    = "toggleReady"
	EventUpdateProgress = "updateProgress"
	EventSendMessage    = "sendMessage"
)

// Outbound events.
const (
	EventRoomCreated       = "roomCreated"
	EventPlayerJoined      = "playerJoined"
	EventError             = "error"
	EventPlayerReadyUpdate = "playerReadyUpdate"
	EventCountdown         = "countdown"
	EventCountdownAborted  = "countdownAborted"
	EventGameStarted       = "gameStarted"
	EventProgressUpdate    = "progressUpdate"
	EventGameOver          = "gameOver"
	EventNewMessage        = "newMessage"
	EventPlayerLeft        = "playerLeft"
)

// Envelope is the wire frame in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encodeFrame(event string, payload any) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: event, Data: payload})
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
}

type ToggleReadyRequest struct {
	RoomCode string `json:"roomCode"`
}

type UpdateProgressRequest struct {
	RoomCode string `json:"roomCode"`
	race.Stats
}

type SendMessageRequest struct {
	RoomCode   string `json:"roomCode"`
	Message    string `json:"message"`
	PlayerName string `json:"playerName"`
}

type RoomCreated struct {
	RoomCode string        `json:"roomCode"`
	Players  []race.Player `json:"players"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

type GameStarted struct {
	Text      string `json:"text"`
	StartTime int64  `json:"startTime"`
}

type ChatMessage struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}
