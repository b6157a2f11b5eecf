// Package race defines the core domain types of a typing race.
// It has no dependencies outside the standard library.
package race

import (
	"slices"
	"time"
)

// Phase is the lifecycle stage of a room.
type Phase int

const (
	Lobby Phase = iota
	Countdown
	Racing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Lobby:
		return "lobby"
	case Countdown:
		return "countdown"
	case Racing:
		return "racing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Player is one participant's race state inside a room. ID is the
// connection identifier of the owning connection.
type Player struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Progress        float64 `json:"progress"`
	WPM             float64 `json:"wpm"`
	Accuracy        float64 `json:"accuracy"`
	CharactersTyped int     `json:"charactersTyped"`
	Errors          int     `json:"errors"`
	Ready           bool    `json:"ready"`
	Finished        bool    `json:"finished"`
}

func NewPlayer(id, name string) Player {
	return Player{ID: id, Name: name, Accuracy: 100}
}

// Stats is a progress report sent by a player's client. The values are
// accepted as reported.
type Stats struct {
	Progress        float64 `json:"progress"`
	WPM             float64 `json:"wpm"`
	Accuracy        float64 `json:"accuracy"`
	CharactersTyped int     `json:"charactersTyped"`
	Errors          int     `json:"errors"`
	Finished        bool    `json:"finished"`
}

// Apply overwrites the player's race fields with s. A player who has not
// typed anything yet keeps a perfect accuracy.
func (p *Player) Apply(s Stats) {
	p.Progress = s.Progress
	p.WPM = s.WPM
	p.Accuracy = s.Accuracy
	p.CharactersTyped = s.CharactersTyped
	p.Errors = s.Errors
	p.Finished = s.Finished
	if p.CharactersTyped == 0 {
		p.Accuracy = 100
	}
}

// Done reports whether the player no longer races: either they said so or
// they reached the end of the text.
func (p Player) Done() bool {
	return p.Finished || p.Progress >= 100
}

// Rank returns a copy of players ordered by descending WPM, ties broken by
// descending accuracy. Equal entries keep their join order.
func Rank(players []Player) []Player {
	ranked := slices.Clone(players)
	slices.SortStableFunc(ranked, func(a, b Player) int {
		if a.WPM != b.WPM {
			if a.WPM > b.WPM {
				return -1
			}
			return 1
		}
		switch {
		case a.Accuracy > b.Accuracy:
			return -1
		case a.Accuracy < b.Accuracy:
			return 1
		}
		return 0
	})
	return ranked
}

// Result is the outcome of a finished race.
type Result struct {
	Winner   Player   `json:"winner"`
	Players  []Player `json:"players"`
	RoomCode string   `json:"roomCode"`
}

// Mode says whether a score comes from a solo run or a multiplayer race.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMulti
}

// Score is a persisted race entry.
type Score struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	WPM             float64   `json:"wpm"`
	Accuracy        float64   `json:"accuracy"`
	Mode            Mode      `json:"mode"`
	CharactersTyped int       `json:"charactersTyped"`
	Errors          int       `json:"errors"`
	Date            time.Time `json:"date"`
}
