package text_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/playperu/typerace/internal/handler/text"
	"github.com/playperu/typerace/internal/textpool"
)

var cleaned = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)

func TestRandomText(t *testing.T) {
	h := text.NewHandler(slog.New(slog.DiscardHandler), textpool.Default())

	for range 20 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.Routes().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body text.Response
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if !cleaned.MatchString(body.Text) {
			t.Fatalf("text %q contains more than letters and single spaces", body.Text)
		}
	}
}

func TestRandomTextEmptyPool(t *testing.T) {
	h := text.NewHandler(slog.New(slog.DiscardHandler), textpool.New(nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
