package realtime

import "sync"

// subscriber is one realtime connection from the room registry's point of
// view. Send must be safe for concurrent use.
type subscriber interface {
	Send(event string, data interface{}) error
}

// Rooms is an explicit registry of room -> member sets, scoped to this
// process. Broadcasts are fire-and-forget; a member whose Send fails is
// evicted from every room.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[subscriber]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{members: make(map[string]map[subscriber]struct{})}
}

func (r *Rooms) Join(room string, s subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[room] == nil {
		r.members[room] = make(map[subscriber]struct{})
	}
	r.members[room][s] = struct{}{}
}

func (r *Rooms) Leave(room string, s subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members[room], s)
	if len(r.members[room]) == 0 {
		delete(r.members, room)
	}
}

func (r *Rooms) LeaveAll(s subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, set := range r.members {
		delete(set, s)
		if len(set) == 0 {
			delete(r.members, room)
		}
	}
}

func (r *Rooms) Count(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members[room])
}

func (r *Rooms) Broadcast(room, event string, data interface{}) {
	r.mu.RLock()
	targets := make([]subscriber, 0, len(r.members[room]))
	for s := range r.members[room] {
		targets = append(targets, s)
	}
	r.mu.RUnlock()

	for _, s := range targets {
		if err := s.Send(event, data); err != nil {
			r.LeaveAll(s)
		}
	}
}
