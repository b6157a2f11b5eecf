// Package play binds websocket connections to the race coordinator. Each
// connection gets an opaque id, a writer draining its hub channel, a reader
// feeding frames to the coordinator, and a pinger.
package play

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

const (
	maxFrameBytes       = 4 << 10
	writeTimeout        = 5 * time.Second
	defaultPingInterval = 25 * time.Second
)

var errEvicted = errors.New("connection fell behind")

// Coordinator applies inbound frames and forgets departed connections.
type Coordinator interface {
	Dispatch(connID string, frame []byte) error
	Disconnect(connID string)
}

// Sinks hands out per-connection outbound channels.
type Sinks interface {
	Register(connID string) <-chan []byte
	Unregister(connID string)
}

type Handler struct {
	logger       *slog.Logger
	coord        Coordinator
	sinks        Sinks
	origins      []string
	limit        rate.Limit
	burst        int
	pingInterval time.Duration
	newID        func() string
}

type Option func(*Handler)

// WithOriginPatterns restricts browser origins allowed to connect. Requests
// without an Origin header are always accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(h *Handler) { h.origins = patterns }
}

// WithRateLimit caps inbound frames per connection. Frames over the limit
// are dropped.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(h *Handler) {
		h.limit = rate.Limit(perSecond)
		h.burst = burst
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) { h.pingInterval = d }
}

func NewHandler(logger *slog.Logger, coord Coordinator, sinks Sinks, opts ...Option) *Handler {
	h := &Handler{
		logger:       logger,
		coord:        coord,
		sinks:        sinks,
		limit:        20,
		burst:        40,
		pingInterval: defaultPingInterval,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.serve)
	return r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxFrameBytes)

	connID := h.newID()
	logger := h.logger.With("conn", connID)
	frames := h.sinks.Register(connID)
	logger.Info("websocket connected", "remote", r.RemoteAddr)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.read(ctx, conn, connID, logger) })
	g.Go(func() error { return h.write(ctx, conn, frames) })
	g.Go(func() error { return h.ping(ctx, conn) })
	err = g.Wait()

	// Leave the room first so the departure broadcast is not sent to a
	// connection that is already gone.
	h.coord.Disconnect(connID)
	h.sinks.Unregister(connID)

	switch {
	case errors.Is(err, errEvicted):
		logger.Warn("websocket evicted")
	case isNormalClose(err):
		logger.Info("websocket closed")
	default:
		logger.Info("websocket closed", "error", err)
	}
}

func (h *Handler) read(ctx context.Context, conn *websocket.Conn, connID string, logger *slog.Logger) error {
	limiter := rate.NewLimiter(h.limit, h.burst)
	for {
		typ, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			logger.Debug("dropping binary frame")
			continue
		}
		if !limiter.Allow() {
			logger.Debug("dropping frame over rate limit")
			continue
		}
		if err := h.coord.Dispatch(connID, frame); err != nil {
			logger.Debug("dropping malformed frame", "error", err)
		}
	}
}

func (h *Handler) write(ctx context.Context, conn *websocket.Conn, frames <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				conn.Close(websocket.StatusTryAgainLater, "too slow")
				return errEvicted
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (h *Handler) ping(ctx context.Context, conn *websocket.Conn) error {
	t := time.NewTicker(h.pingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, h.pingInterval)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func isNormalClose(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
