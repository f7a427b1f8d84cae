// internal/game/room_store.go
package game

import (
	"sync"

	"github.com/google/uuid"
)

// RoomStore manages active rooms in memory. It keeps insertion order so the
// matchmaker scans waiting rooms oldest-first. Lock order is always store
// before room; nothing acquires the store lock while holding a room lock.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*Room
	order []uuid.UUID
}

// NewRoomStore initializes and returns an empty RoomStore.
func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[uuid.UUID]*Room),
	}
}

// Add inserts a room into the store.
func (s *RoomStore) Add(r *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[r.ID]; exists {
		return
	}
	s.rooms[r.ID] = r
	s.order = append(s.order, r.ID)
}

// Get retrieves a room by its match id.
func (s *RoomStore) Get(id uuid.UUID) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes a room by its match id.
func (s *RoomStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return
	}
	delete(s.rooms, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of active rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// All returns the active rooms in insertion order.
func (s *RoomStore) All() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, id := range s.order {
		out = append(out, s.rooms[id])
	}
	return out
}

// ClaimWaiting finds the oldest live room with an empty guest slot whose host
// is not exclude, applies fill to it while both locks are held, and returns
// it. Holding the store lock for the whole scan makes find-and-claim atomic,
// so two concurrent auto-match calls cannot claim the same slot.
func (s *RoomStore) ClaimWaiting(exclude string, fill func(r *Room)) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		r := s.rooms[id]
		r.Mu.Lock()
		if !r.GameOver && r.GuestID == "" && r.HostID != exclude {
			fill(r)
			r.Mu.Unlock()
			return r
		}
		r.Mu.Unlock()
	}
	return nil
}
