package game

import (
	"fmt"
	"sync"

	"github.com/playperu/typerace/internal/race"
)

// Registry maps live room codes to rooms and connections to the room they
// are in. It only guards its maps; room state is guarded by each room's loop.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	members map[string]string
	codes   CodeGenerator
}

func NewRegistry(codes CodeGenerator) *Registry {
	if codes == nil {
		codes = RandomCodes()
	}
	return &Registry{
		rooms:   make(map[string]*Room),
		members: make(map[string]string),
		codes:   codes,
	}
}

// Create registers a new lobby holding host under a code that no live room
// uses, and starts the room's loop.
func (g *Registry) Create(text string, host race.Player) (*Room, error) {
	g.mu.Lock()
	var room *Room
	for range maxCodeAttempts {
		code := g.codes.Generate()
		if _, taken := g.rooms[code]; taken {
			continue
		}
		room = newRoom(code, text, host)
		g.rooms[code] = room
		g.members[host.ID] = code
		break
	}
	g.mu.Unlock()

	if room == nil {
		return nil, fmt.Errorf("creating room after %d attempts: %w", maxCodeAttempts, ErrCodeSpaceExhausted)
	}
	go room.run()
	return room, nil
}

func (g *Registry) Lookup(code string) (*Room, error) {
	g.mu.RLock()
	room, ok := g.rooms[code]
	g.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// remove unregisters room and every membership pointing at it, but only if
// it is still the one registered under its code. Callers stop the room's
// loop and timers themselves; Coordinator.DeleteRoom is the public way to
// delete a room.
func (g *Registry) remove(room *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if current, ok := g.rooms[room.code]; ok && current == room {
		g.deleteLocked(room.code)
	}
}

func (g *Registry) deleteLocked(code string) {
	delete(g.rooms, code)
	for conn, c := range g.members {
		if c == code {
			delete(g.members, conn)
		}
	}
}

func (g *Registry) Attach(connID, code string) {
	g.mu.Lock()
	g.members[connID] = code
	g.mu.Unlock()
}

// Detach forgets connID's membership if it still points at code.
func (g *Registry) Detach(connID, code string) {
	g.mu.Lock()
	if g.members[connID] == code {
		delete(g.members, connID)
	}
	g.mu.Unlock()
}

func (g *Registry) RoomOf(connID string) (string, bool) {
	g.mu.RLock()
	code, ok := g.members[connID]
	g.mu.RUnlock()
	return code, ok
}

func (g *Registry) Rooms() []*Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
