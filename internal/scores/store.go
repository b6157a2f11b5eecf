// Package scores persists finished race scores and serves leaderboards.
package scores

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/playperu/typerace/internal/race"
)

var ErrInvalidScore = errors.New("invalid score")

const (
	DefaultLimit = 10
	MaxLimit     = 100

	maxNameLength = 32
)

// Sort keys accepted by Leaderboard, mapped to their column.
const (
	SortWPM             = "wpm"
	SortAccuracy        = "accuracy"
	SortCharactersTyped = "charactersTyped"
	SortDate            = "date"
)

var sortColumns = map[string]string{
	SortWPM:             "wpm",
	SortAccuracy:        "accuracy",
	SortCharactersTyped: "characters_typed",
	SortDate:            "played_at",
}

type Store interface {
	Save(ctx context.Context, s race.Score) (race.Score, error)
	Leaderboard(ctx context.Context, q Query) ([]race.Score, error)
}

// Query selects a leaderboard page. Zero values mean every mode, the
// default limit and sorting by WPM.
type Query struct {
	Mode   race.Mode
	Limit  int
	SortBy string
}

// Normalize fills defaults and rejects values that cannot be queried.
func (q Query) Normalize() (Query, error) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 1 || q.Limit > MaxLimit {
		return q, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidScore, MaxLimit)
	}
	if q.SortBy == "" {
		q.SortBy = SortWPM
	}
	if _, ok := sortColumns[q.SortBy]; !ok {
		return q, fmt.Errorf("%w: cannot sort by %q", ErrInvalidScore, q.SortBy)
	}
	if q.Mode != "" && !q.Mode.Valid() {
		return q, fmt.Errorf("%w: unknown mode %q", ErrInvalidScore, q.Mode)
	}
	return q, nil
}

// Validate trims and checks a score before it is stored. An empty mode
// becomes single.
func Validate(s race.Score) (race.Score, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return s, fmt.Errorf("%w: name is required", ErrInvalidScore)
	}
	if utf8.RuneCountInString(s.Name) > maxNameLength {
		s.Name = strings.TrimSpace(string([]rune(s.Name)[:maxNameLength]))
	}
	if s.Mode == "" {
		s.Mode = race.ModeSingle
	}
	if !s.Mode.Valid() {
		return s, fmt.Errorf("%w: unknown mode %q", ErrInvalidScore, s.Mode)
	}
	if !finite(s.WPM) || s.WPM < 0 {
		return s, fmt.Errorf("%w: wpm must be a non-negative number", ErrInvalidScore)
	}
	if !finite(s.Accuracy) || s.Accuracy < 0 || s.Accuracy > 100 {
		return s, fmt.Errorf("%w: accuracy must be between 0 and 100", ErrInvalidScore)
	}
	if s.CharactersTyped < 0 || s.Errors < 0 {
		return s, fmt.Errorf("%w: counts must not be negative", ErrInvalidScore)
	}
	return s, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
