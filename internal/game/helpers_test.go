package game

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/playperu/typerace/internal/race"
)

// --- TextSource ---

type MockTextSource struct {
	mock.Mock
}

func (m *MockTextSource) Text() string {
	args := m.Called()
	return args.String(0)
}

// --- CodeGenerator ---

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- Clock ---

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fakeClock only moves when Advance is called. Due callbacks run on the
// caller's goroutine, in deadline order, with the lock released.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()

		next.f()
	}
}

// Pending counts timers that are neither stopped nor fired.
func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// pendingCallbacks returns the callbacks of live timers, for simulating a
// timer that fired just before it was stopped.
func (c *fakeClock) pendingCallbacks() []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fs []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			fs = append(fs, t.f)
		}
	}
	return fs
}

// --- Broadcaster ---

type sentEvent struct {
	room    string
	to      string
	event   string
	payload any
}

type recorder struct {
	mu      sync.Mutex
	events  []sentEvent
	members map[string]map[string]bool
}

func newRecorder() *recorder {
	return &recorder{members: make(map[string]map[string]bool)}
}

func (r *recorder) BroadcastToRoom(code, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{room: code, event: event, payload: payload})
}

func (r *recorder) SendToOne(connID, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{to: connID, event: event, payload: payload})
}

func (r *recorder) JoinRoom(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[code] == nil {
		r.members[code] = make(map[string]bool)
	}
	r.members[code][connID] = true
}

func (r *recorder) LeaveRoom(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[code], connID)
}

func (r *recorder) DropRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, code)
}

func (r *recorder) all() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEvent(nil), r.events...)
}

func (r *recorder) named(event string) []sentEvent {
	var out []sentEvent
	for _, e := range r.all() {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) toConn(connID string) []sentEvent {
	var out []sentEvent
	for _, e := range r.all() {
		if e.to == connID {
			out = append(out, e)
		}
	}
	return out
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) countdowns(code string) []int {
	var out []int
	for _, e := range r.named(EventCountdown) {
		if e.room == code {
			out = append(out, e.payload.(int))
		}
	}
	return out
}

// --- setup ---

const raceText = "The quick brown fox jumps over the lazy dog"

type harness struct {
	c     *Coordinator
	rooms *Registry
	out   *recorder
	clock *fakeClock
	texts *MockTextSource
}

func newHarness(t *testing.T, codes ...string) *harness {
	t.Helper()

	var gen CodeGenerator = RandomCodes()
	if len(codes) > 0 {
		m := &MockCodeGenerator{}
		for _, code := range codes {
			m.On("Generate").Return(code).Once()
		}
		gen = m
	}

	texts := &MockTextSource{}
	texts.On("Text").Return(raceText)

	h := &harness{
		rooms: NewRegistry(gen),
		out:   newRecorder(),
		clock: newFakeClock(),
		texts: texts,
	}
	h.c = NewCoordinator(slog.New(slog.DiscardHandler), h.rooms, h.out, texts, WithClock(h.clock))
	t.Cleanup(h.c.Shutdown)
	return h
}

// inspect runs fn inside the room's loop.
func (h *harness) inspect(t *testing.T, code string, fn func(r *Room)) {
	t.Helper()
	room, err := h.rooms.Lookup(code)
	require.NoError(t, err)
	require.True(t, room.do(fn), "room %s closed", code)
}

func (h *harness) phase(t *testing.T, code string) race.Phase {
	t.Helper()
	var p race.Phase
	h.inspect(t, code, func(r *Room) { p = r.phase })
	return p
}

// lobbyWithTwo creates room code with Ana (conn "a") and Bo (conn "b").
func (h *harness) lobbyWithTwo(t *testing.T, code string) {
	t.Helper()
	h.c.CreateRoom("a", "Ana")
	h.c.JoinRoom("b", code, "Bo")
	require.Equal(t, race.Lobby, h.phase(t, code))
}

// racing brings a two player room all the way to Racing.
func (h *harness) racing(t *testing.T, code string) {
	t.Helper()
	h.lobbyWithTwo(t, code)
	h.c.ToggleReady("a", code)
	h.c.ToggleReady("b", code)
	h.clock.Advance(3 * time.Second)
	require.Equal(t, race.Racing, h.phase(t, code))
}

func names(players []race.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.Name
	}
	return out
}
