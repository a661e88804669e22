package realtime

import (
	"sort"
	"sync"
)

type room struct {
	mu      sync.Mutex
	members map[*Client]struct{}
	// removed выставляется, когда пустая комната удалена из реестра.
	removed bool
}

// Registry хранит членство клиентов в комнатах матчей.
// Карта комнат защищена общим RWMutex, состав каждой комнаты защищён собственным мьютексом,
// поэтому join/leave в разные комнаты не сериализуются друг с другом.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*room)}
}

// Join добавляет клиента в комнату матча. Повторный вызов ничего не меняет.
// Возвращает true, если клиент не был участником.
func (r *Registry) Join(c *Client, matchID string) bool {
	for {
		rm := r.roomFor(matchID)

		rm.mu.Lock()
		if rm.removed {
			rm.mu.Unlock()
			continue
		}
		_, already := rm.members[c]
		rm.members[c] = struct{}{}
		rm.mu.Unlock()

		c.trackRoom(matchID)
		return !already
	}
}

// Leave убирает клиента из комнаты. Для не-участника это no-op.
func (r *Registry) Leave(c *Client, matchID string) bool {
	r.mu.RLock()
	rm := r.rooms[matchID]
	r.mu.RUnlock()

	c.untrackRoom(matchID)
	if rm == nil {
		return false
	}

	rm.mu.Lock()
	_, was := rm.members[c]
	delete(rm.members, c)
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty {
		r.dropIfEmpty(matchID, rm)
	}
	return was
}

// Members возвращает снимок участников комнаты на момент вызова.
func (r *Registry) Members(matchID string) []*Client {
	r.mu.RLock()
	rm := r.rooms[matchID]
	r.mu.RUnlock()
	if rm == nil {
		return nil
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	members := make([]*Client, 0, len(rm.members))
	for c := range rm.members {
		members = append(members, c)
	}
	return members
}

// RemoveClient убирает клиента из всех комнат, в которых он состоит.
func (r *Registry) RemoveClient(c *Client) {
	for _, matchID := range c.Rooms() {
		r.Leave(c, matchID)
	}
}

// RoomCount возвращает число непустых комнат.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// MatchIDs возвращает отсортированный список матчей, у которых есть подписчики.
func (r *Registry) MatchIDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (r *Registry) roomFor(matchID string) *room {
	r.mu.RLock()
	rm := r.rooms[matchID]
	r.mu.RUnlock()
	if rm != nil {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm = r.rooms[matchID]; rm == nil {
		rm = &room{members: make(map[*Client]struct{})}
		r.rooms[matchID] = rm
	}
	return rm
}

func (r *Registry) dropIfEmpty(matchID string, rm *room) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.members) == 0 && r.rooms[matchID] == rm {
		delete(r.rooms, matchID)
		rm.removed = true
	}
}
