package game

import "time"

// Clock is the time source used for room timers. Tests swap it for a
// manually advanced one.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// timerSlot holds at most one pending timer. A slot is only touched from the
// operation loop of the room that owns it.
type timerSlot struct {
	timer Timer
	seq   uint64
}

// arm replaces any pending timer. fire receives the sequence number the
// timer was armed with.
func (s *timerSlot) arm(clock Clock, d time.Duration, fire func(seq uint64)) {
	s.cancel()
	seq := s.seq
	s.timer = clock.AfterFunc(d, func() { fire(seq) })
}

// cancel stops the pending timer. A callback that is already on its way is
// rejected by fired because the sequence moved on.
func (s *timerSlot) cancel() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}

// fired reports whether seq belongs to the pending timer and clears the slot
// if so.
func (s *timerSlot) fired(seq uint64) bool {
	if s.timer == nil || s.seq != seq {
		return false
	}
	s.timer = nil
	s.seq++
	return true
}

func (s *timerSlot) pending() bool {
	return s.timer != nil
}
