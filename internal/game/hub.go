package game

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Broadcaster delivers events to connections. Sends never block.
type Broadcaster interface {
	BroadcastToRoom(code, event string, payload any)
	SendToOne(connID, event string, payload any)
	JoinRoom(code, connID string)
	LeaveRoom(code, connID string)
	DropRoom(code string)
}

const sinkBuffer = 64

type sink struct {
	ch   chan []byte
	dead atomic.Bool
}

// Hub is an in-process fan-out keyed by room code. Each registered
// connection gets a buffered channel; a connection that falls a full buffer
// behind is unregistered instead of losing events, so what a member receives
// is always a prefix of what was sent to its room, in order.
type Hub struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sinks    map[string]*sink
	rooms    map[string]map[string]struct{}
	roomOf   map[string]string
	capacity int
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger,
		sinks:    make(map[string]*sink),
		rooms:    make(map[string]map[string]struct{}),
		roomOf:   make(map[string]string),
		capacity: sinkBuffer,
	}
}

// Register returns the channel that receives encoded frames for connID. The
// channel is closed by Unregister or when the connection is evicted.
func (h *Hub) Register(connID string) <-chan []byte {
	s := &sink{ch: make(chan []byte, h.capacity)}
	h.mu.Lock()
	if old, ok := h.sinks[connID]; ok {
		close(old.ch)
	}
	h.sinks[connID] = s
	h.mu.Unlock()
	return s.ch
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.sinks[connID]; ok {
		close(s.ch)
		delete(h.sinks, connID)
	}
	if code, ok := h.roomOf[connID]; ok {
		h.leaveLocked(code, connID)
	}
}

func (h *Hub) JoinRoom(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if prev, ok := h.roomOf[connID]; ok && prev != code {
		h.leaveLocked(prev, connID)
	}
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[string]struct{})
	}
	h.rooms[code][connID] = struct{}{}
	h.roomOf[connID] = code
}

func (h *Hub) LeaveRoom(code, connID string) {
	h.mu.Lock()
	h.leaveLocked(code, connID)
	h.mu.Unlock()
}

func (h *Hub) leaveLocked(code, connID string) {
	delete(h.rooms[code], connID)
	if len(h.rooms[code]) == 0 {
		delete(h.rooms, code)
	}
	if h.roomOf[connID] == code {
		delete(h.roomOf, connID)
	}
}

func (h *Hub) DropRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for connID := range h.rooms[code] {
		if h.roomOf[connID] == code {
			delete(h.roomOf, connID)
		}
	}
	delete(h.rooms, code)
}

func (h *Hub) BroadcastToRoom(code, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("encoding broadcast", "room", code, "event", event, "error", err)
		return
	}

	var slow []string
	h.mu.RLock()
	for connID := range h.rooms[code] {
		if !h.push(connID, data) {
			slow = append(slow, connID)
		}
	}
	h.mu.RUnlock()

	for _, connID := range slow {
		h.evict(connID, code)
	}
}

func (h *Hub) SendToOne(connID, event string, payload any) {
	data, err := encodeFrame(event, payload)
	if err != nil {
		h.logger.Error("encoding message", "conn", connID, "event", event, "error", err)
		return
	}

	h.mu.RLock()
	ok := h.push(connID, data)
	code := h.roomOf[connID]
	h.mu.RUnlock()

	if !ok {
		h.evict(connID, code)
	}
}

// push must be called with h.mu held. It reports false only when the sink
// has just been marked dead because its buffer is full.
func (h *Hub) push(connID string, data []byte) bool {
	s, ok := h.sinks[connID]
	if !ok || s.dead.Load() {
		return true
	}
	select {
	case s.ch <- data:
		return true
	default:
		return !s.dead.CompareAndSwap(false, true)
	}
}

// evict drops a connection whose buffer filled up. code is empty when the
// connection is in no room.
func (h *Hub) evict(connID, code string) {
	attrs := []any{"conn", connID}
	if code != "" {
		attrs = append(attrs, "room", code)
	}
	h.logger.Warn("evicting slow connection", attrs...)
	h.Unregister(connID)
}
