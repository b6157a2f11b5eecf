package game

import (
	"slices"
	"sync"
	"time"

	"github.com/playperu/typerace/internal/race"
)

const minRacers = 2

// Room is one race session. All of its state is owned by a single goroutine
// (run) that executes submitted operations one at a time, so rooms never
// contend with each other.
type Room struct {
	code string
	text string

	players   []race.Player
	phase     race.Phase
	started   bool
	startedAt time.Time
	remaining int

	countdown timerSlot
	deadline  timerSlot
	cleanup   timerSlot

	ops       chan func()
	closed    chan struct{}
	closeOnce sync.Once
}

func newRoom(code, text string, host race.Player) *Room {
	return &Room{
		code:    code,
		text:    text,
		players: []race.Player{host},
		phase:   race.Lobby,
		ops:     make(chan func()),
		closed:  make(chan struct{}),
	}
}

func (r *Room) Code() string { return r.code }

func (r *Room) run() {
	for {
		select {
		case op := <-r.ops:
			op()
		case <-r.closed:
			return
		}
	}
}

// do runs op inside the room's loop and waits for it to finish. It returns
// false without running op when the room has been closed.
func (r *Room) do(op func(*Room)) bool {
	done := make(chan struct{})
	select {
	case r.ops <- func() { op(r); close(done) }:
	case <-r.closed:
		return false
	}
	select {
	case <-done:
	case <-r.closed:
	}
	return true
}

// close stops the loop. Pending and future operations are discarded.
func (r *Room) close() {
	r.closeOnce.Do(func() { close(r.closed) })
}

// schedule arms slot so that fn runs inside the room's loop after d, unless
// the slot is cancelled or re-armed first.
func (r *Room) schedule(slot *timerSlot, clock Clock, d time.Duration, fn func(*Room)) {
	slot.arm(clock, d, func(seq uint64) {
		r.do(func(r *Room) {
			if slot.fired(seq) {
				fn(r)
			}
		})
	})
}

func (r *Room) stopTimers() {
	r.countdown.cancel()
	r.deadline.cancel()
	r.cleanup.cancel()
}

func (r *Room) player(id string) *race.Player {
	for i := range r.players {
		if r.players[i].ID == id {
			return &r.players[i]
		}
	}
	return nil
}

func (r *Room) addPlayer(p race.Player) error {
	if r.player(p.ID) != nil {
		return ErrAlreadyJoined
	}
	r.players = append(r.players, p)
	return nil
}

func (r *Room) removePlayer(id string) bool {
	i := slices.IndexFunc(r.players, func(p race.Player) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	r.players = slices.Delete(r.players, i, i+1)
	return true
}

// roster is a snapshot safe to hand to the broadcaster.
func (r *Room) roster() []race.Player {
	return slices.Clone(r.players)
}

func (r *Room) canStart() bool {
	if len(r.players) < minRacers {
		return false
	}
	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) allDone() bool {
	for _, p := range r.players {
		if !p.Done() {
			return false
		}
	}
	return true
}
