package game

import (
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/playperu/typerace/internal/race"
)

const (
	maxNameLength    = 32
	maxMessageLength = 500
)

// TextSource supplies one cleaned race text per room.
type TextSource interface {
	Text() string
}

// Timings are the race's observable timing constants.
type Timings struct {
	CountdownFrom     int
	CountdownInterval time.Duration
	RaceDuration      time.Duration
	Retention         time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		CountdownFrom:     3,
		CountdownInterval: time.Second,
		RaceDuration:      60 * time.Second,
		Retention:         30 * time.Second,
	}
}

type Option func(*Coordinator)

func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

func WithTimings(t Timings) Option {
	return func(c *Coordinator) { c.timings = t }
}

// Coordinator binds connection requests to room operations. It is the only
// place timers are armed or cancelled, always from inside the room's loop
// together with the state change that calls for it.
//
// Nothing it does returns an error: rejected requests are answered with an
// error event to the requester, and operations against rooms or players that
// are gone are dropped.
type Coordinator struct {
	logger  *slog.Logger
	rooms   *Registry
	out     Broadcaster
	texts   TextSource
	clock   Clock
	timings Timings
}

func NewCoordinator(logger *slog.Logger, rooms *Registry, out Broadcaster, texts TextSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		logger:  logger,
		rooms:   rooms,
		out:     out,
		texts:   texts,
		clock:   systemClock{},
		timings: DefaultTimings(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) CreateRoom(connID, name string) {
	name, ok := cleanName(name)
	if !ok {
		c.reject(connID, ErrNameRequired)
		return
	}
	previous, inRoom := c.rooms.RoomOf(connID)

	room, err := c.rooms.Create(c.texts.Text(), race.NewPlayer(connID, name))
	if err != nil {
		c.logger.Error("creating room", "conn", connID, "error", err)
		c.reject(connID, err)
		return
	}

	room.do(func(r *Room) {
		c.out.JoinRoom(r.code, connID)
		c.out.SendToOne(connID, EventRoomCreated, RoomCreated{RoomCode: r.code, Players: r.roster()})
	})
	c.logger.Info("room created", "room", room.code, "host", name)
	if inRoom {
		c.leaveRoom(connID, previous)
	}
}

// JoinRoom adds connID to the lobby under code. A connection already in
// another room leaves it only once the new room has accepted it, so a
// rejected join changes nothing.
func (c *Coordinator) JoinRoom(connID, code, name string) {
	code = normalizeCode(code)
	name, ok := cleanName(name)
	if !ok {
		c.reject(connID, ErrNameRequired)
		return
	}

	room, err := c.rooms.Lookup(code)
	if err != nil {
		c.reject(connID, ErrRoomUnavailable)
		return
	}
	previous, inRoom := c.rooms.RoomOf(connID)
	if inRoom && previous == code {
		c.reject(connID, ErrAlreadyJoined)
		return
	}

	joined := false
	applied := room.do(func(r *Room) {
		if r.phase != race.Lobby {
			c.reject(connID, ErrRoomUnavailable)
			return
		}
		if err := r.addPlayer(race.NewPlayer(connID, name)); err != nil {
			c.reject(connID, err)
			return
		}
		joined = true
		c.rooms.Attach(connID, r.code)
		c.out.JoinRoom(r.code, connID)
		c.out.BroadcastToRoom(r.code, EventPlayerJoined, r.roster())
		c.logger.Info("player joined", "room", r.code, "player", name, "players", len(r.players))
	})
	if !applied {
		c.reject(connID, ErrRoomUnavailable)
		return
	}
	if joined && inRoom {
		c.leaveRoom(connID, previous)
	}
}

func (c *Coordinator) ToggleReady(connID, code string) {
	c.withRoom(code, func(r *Room) {
		if r.phase != race.Lobby && r.phase != race.Countdown {
			return
		}
		p := r.player(connID)
		if p == nil {
			return
		}
		p.Ready = !p.Ready
		c.out.BroadcastToRoom(r.code, EventPlayerReadyUpdate, r.roster())

		if r.phase == race.Lobby && r.canStart() {
			c.startCountdown(r)
		}
	})
}

func (c *Coordinator) UpdateProgress(connID, code string, stats race.Stats) {
	c.withRoom(code, func(r *Room) {
		if r.phase != race.Racing {
			return
		}
		p := r.player(connID)
		if p == nil {
			return
		}
		p.Apply(stats)
		c.out.BroadcastToRoom(r.code, EventProgressUpdate, r.roster())

		if stats.Finished && r.allDone() {
			c.finish(r, "all players finished")
		}
	})
}

func (c *Coordinator) SendMessage(connID, code, message, playerName string) {
	message = truncate(strings.TrimSpace(message), maxMessageLength)
	if message == "" {
		return
	}
	c.withRoom(code, func(r *Room) {
		p := r.player(connID)
		if p == nil {
			return
		}
		name, ok := cleanName(playerName)
		if !ok {
			name = p.Name
		}
		c.out.BroadcastToRoom(r.code, EventNewMessage, ChatMessage{
			PlayerName: name,
			Message:    message,
			Timestamp:  c.clock.Now().UnixMilli(),
		})
	})
}

// Disconnect removes connID from the room it is in. Calling it again, or
// for a connection that never joined, does nothing.
func (c *Coordinator) Disconnect(connID string) {
	c.leave(connID)
}

// DeleteRoom tears down the room under code the same way an emptied or
// retired room is: its timers are cancelled, its members are forgotten and
// nothing is sent under the code afterwards. It reports whether a live room
// was found.
func (c *Coordinator) DeleteRoom(code string) bool {
	room, err := c.rooms.Lookup(normalizeCode(code))
	if err != nil {
		return false
	}
	return room.do(c.destroy)
}

// Shutdown deletes every live room.
func (c *Coordinator) Shutdown() {
	for _, r := range c.rooms.Rooms() {
		r.do(c.destroy)
	}
}

func (c *Coordinator) leave(connID string) {
	code, ok := c.rooms.RoomOf(connID)
	if !ok {
		return
	}
	c.leaveRoom(connID, code)
}

// leaveRoom removes connID from the room under code. It must not be called
// from inside another room's loop.
func (c *Coordinator) leaveRoom(connID, code string) {
	room, err := c.rooms.Lookup(code)
	if err != nil {
		c.rooms.Detach(connID, code)
		return
	}
	room.do(func(r *Room) { c.removePlayer(r, connID) })
}

func (c *Coordinator) removePlayer(r *Room, connID string) {
	if !r.removePlayer(connID) {
		return
	}
	c.rooms.Detach(connID, r.code)
	c.out.LeaveRoom(r.code, connID)

	if len(r.players) == 0 {
		c.destroy(r)
		return
	}
	c.out.BroadcastToRoom(r.code, EventPlayerLeft, r.roster())

	if r.phase == race.Racing {
		switch {
		case len(r.players) == 1:
			c.finish(r, "opponents left")
		case r.allDone():
			c.finish(r, "remaining players finished")
		}
	}
}

func (c *Coordinator) startCountdown(r *Room) {
	r.phase = race.Countdown
	r.remaining = c.timings.CountdownFrom
	if r.remaining <= 0 {
		c.lockIn(r)
		return
	}
	c.out.BroadcastToRoom(r.code, EventCountdown, r.remaining)
	r.schedule(&r.countdown, c.clock, c.timings.CountdownInterval, c.countdownTick)
}

func (c *Coordinator) countdownTick(r *Room) {
	if r.phase != race.Countdown {
		return
	}
	r.remaining--
	if r.remaining > 0 {
		c.out.BroadcastToRoom(r.code, EventCountdown, r.remaining)
		r.schedule(&r.countdown, c.clock, c.timings.CountdownInterval, c.countdownTick)
		return
	}
	c.lockIn(r)
}

// lockIn ends the countdown. Readiness and the player count are checked
// again because either may have changed while counting down.
func (c *Coordinator) lockIn(r *Room) {
	r.countdown.cancel()
	r.remaining = 0
	if !r.canStart() {
		r.phase = race.Lobby
		c.out.BroadcastToRoom(r.code, EventCountdownAborted, r.roster())
		c.logger.Info("countdown aborted", "room", r.code, "players", len(r.players))
		return
	}
	c.startRace(r)
}

func (c *Coordinator) startRace(r *Room) {
	if r.started {
		return
	}
	r.phase = race.Racing
	r.started = true
	r.startedAt = c.clock.Now()
	c.out.BroadcastToRoom(r.code, EventGameStarted, GameStarted{
		Text:      r.text,
		StartTime: r.startedAt.UnixMilli(),
	})
	r.schedule(&r.deadline, c.clock, c.timings.RaceDuration, func(r *Room) {
		c.finish(r, "time up")
	})
	c.logger.Info("race started", "room", r.code, "players", len(r.players))
}

// finish ranks the players and schedules the room's deletion. It runs at
// most once per room.
func (c *Coordinator) finish(r *Room, reason string) {
	if r.phase != race.Racing {
		return
	}
	r.deadline.cancel()
	r.countdown.cancel()
	if len(r.players) == 0 {
		c.destroy(r)
		return
	}

	ranked := race.Rank(r.players)
	r.phase = race.Finished
	c.out.BroadcastToRoom(r.code, EventGameOver, race.Result{
		Winner:   ranked[0],
		Players:  ranked,
		RoomCode: r.code,
	})
	r.schedule(&r.cleanup, c.clock, c.timings.Retention, c.destroy)
	c.logger.Info("race finished", "room", r.code, "reason", reason, "winner", ranked[0].Name)
}

func (c *Coordinator) destroy(r *Room) {
	r.stopTimers()
	c.rooms.remove(r)
	c.out.DropRoom(r.code)
	r.close()
	c.logger.Info("room deleted", "room", r.code, "phase", r.phase.String())
}

func (c *Coordinator) withRoom(code string, op func(*Room)) {
	code = normalizeCode(code)
	room, err := c.rooms.Lookup(code)
	if err != nil {
		c.logger.Debug("dropping operation for missing room", "room", code)
		return
	}
	room.do(op)
}

func (c *Coordinator) reject(connID string, err error) {
	c.out.SendToOne(connID, EventError, ErrorMessage{Message: err.Error()})
}

func cleanName(name string) (string, bool) {
	name = truncate(strings.TrimSpace(name), maxNameLength)
	return name, name != ""
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}
