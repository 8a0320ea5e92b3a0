package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
	"github.com/globalbridge/bridge/internal/domain"
)

// Rooms owns room membership. A room is created lazily on first join
// and deleted when its member set drains. A connection belongs to at
// most one room at a time.
type Rooms struct {
	mu      sync.RWMutex
	members map[domain.RoomID]map[core.ConnectionID]struct{}
	roomOf  map[core.ConnectionID]domain.RoomID
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[domain.RoomID]map[core.ConnectionID]struct{}),
		roomOf:  make(map[core.ConnectionID]domain.RoomID),
	}
}

// Join is idempotent. Joining a different room first leaves the current
// one, so the at-most-one-room invariant holds. It returns the members
// present before insertion, snapshotted in the same critical section as
// the insert so two concurrent joiners can never both see the room
// without the other. A re-join of the same room returns nil.
func (r *Rooms) Join(id core.ConnectionID, room domain.RoomID) []core.ConnectionID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.roomOf[id]; ok {
		if prev == room {
			return nil
		}
		r.leaveLocked(id, prev)
	}

	set, ok := r.members[room]
	var present []core.ConnectionID
	if !ok {
		set = make(map[core.ConnectionID]struct{})
		r.members[room] = set
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room created")
	} else {
		present = make([]core.ConnectionID, 0, len(set))
		for member := range set {
			present = append(present, member)
		}
	}
	set[id] = struct{}{}
	r.roomOf[id] = room
	log.Debug().Str("module", "app.rooms").Str("conn", string(id)).Str("room", string(room)).Msg("joined room")
	return present
}

// Leave removes the connection from whatever room it is in and reports
// which one. Safe to call for connections that never joined.
func (r *Rooms) Leave(id core.ConnectionID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.roomOf[id]
	if !ok {
		return "", false
	}
	r.leaveLocked(id, room)
	return room, true
}

func (r *Rooms) leaveLocked(id core.ConnectionID, room domain.RoomID) {
	delete(r.roomOf, id)
	set, ok := r.members[room]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.members, room)
		log.Info().Str("module", "app.rooms").Str("room", string(room)).Msg("room deleted")
	}
}

func (r *Rooms) RoomOf(id core.ConnectionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.roomOf[id]
	return room, ok
}

// Members returns a snapshot so fan-out never iterates a set that a
// concurrent join or disconnect is mutating.
func (r *Rooms) Members(room domain.RoomID) []core.ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.members[room]
	if !ok {
		return nil
	}
	out := make([]core.ConnectionID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
