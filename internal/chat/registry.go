package chat

import "sync"

// Member is one live connection inside a room. The handle itself is the
// membership key; two members may share an Identity (multiple tabs).
type Member interface {
	// Send writes one outbound frame. Safe for concurrent use, bounded in
	// time by the transport's write deadline.
	Send(v any) error

	// Identity is the stable peer identity (client address or username).
	Identity() string

	// Close tears the underlying transport down. Idempotent.
	Close()
}

type room struct {
	// sendMu serializes publishes to this room; it is never held while the
	// registry mutates membership. See BroadcastEngine.
	sendMu  sync.Mutex
	members map[Member]struct{}
}

// RoomRegistry owns the room → member-set mapping. All structural changes
// (room create/delete, member add/remove) go through the single registry
// mutex, so a Join racing a Leave that empties the room can never observe a
// half-deleted entry or end up with two lock objects for the same room id.
type RoomRegistry struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[string]*room)}
}

// Join adds the member, creating the room entry on first join. Idempotent.
func (reg *RoomRegistry) Join(roomID string, m Member) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		r = &room{members: make(map[Member]struct{})}
		reg.rooms[roomID] = r
	}
	r.members[m] = struct{}{}
}

// Leave removes the member and deletes the room entry once empty, reclaiming
// memory for abandoned rooms. Idempotent: a second call for the same member
// is a no-op.
func (reg *RoomRegistry) Leave(roomID string, m Member) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	delete(r.members, m)
	if len(r.members) == 0 {
		delete(reg.rooms, roomID)
	}
}

// Members returns a snapshot safe to iterate without any lock held, so slow
// sends never stall Join/Leave for unrelated members.
func (reg *RoomRegistry) Members(roomID string) []Member {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]Member, 0, len(r.members))
	for m := range r.members {
		out = append(out, m)
	}
	return out
}

func (reg *RoomRegistry) IsEmpty(roomID string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	return !ok || len(r.members) == 0
}

// entry hands the BroadcastEngine the room's send guard.
func (reg *RoomRegistry) entry(roomID string) *room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[roomID]
}

// membersOf snapshots one specific entry. The broadcast engine uses it so
// that a publish racing a delete-and-recreate of the same room id never
// mixes the old entry's guard with the new entry's members.
func (reg *RoomRegistry) membersOf(r *room) []Member {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	out := make([]Member, 0, len(r.members))
	for m := range r.members {
		out = append(out, m)
	}
	return out
}
