package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Registry owns every live room. All room and game mutations happen under its single lock,
// nothing blocking is ever done while holding it.
type Registry struct {
	mu     sync.Mutex
	rooms  map[string]*entity.Room
	nextID entity.ConnectionID
}

// RoomSummary is a read-only view of a room.
type RoomSummary struct {
	ID             string `json:"room_id"`
	NumConnections int    `json:"num_connections"`
	Status         string `json:"status"`
}

func New() *Registry {
	return &Registry{
		rooms: make(map[string]*entity.Room),
	}
}

// Register - admits a connection into the room, creating the room on first use.
// Returns the admitted connection and the occupancy after the insert.
func (that *Registry) Register(roomID string, outbox entity.Outbox) (entity.Connection, int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if ok && room.IsFull() {
		return entity.Connection{}, len(room.Connections), fmt.Errorf("%w: %s", apperror.ErrRoomFull, roomID)
	}

	if !ok {
		room = entity.NewRoom(roomID)
		that.rooms[roomID] = room
	}

	that.nextID++
	conn := &entity.Connection{
		ID:     that.nextID,
		Mark:   room.FreeMark(),
		Outbox: outbox,
	}
	room.Connections[conn.ID] = conn

	return *conn, len(room.Connections), nil
}

// WithRoom - runs fn on the room while holding the registry lock.
func WithRoom[T any](that *Registry, roomID string, fn func(room *entity.Room) (T, error)) (T, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	return fn(room)
}

// RemoveConnections - drops the connections from the room and deletes the room once it is empty.
// Reports whether the room was deleted.
func (that *Registry) RemoveConnections(roomID string, ids ...entity.ConnectionID) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return false
	}

	for _, id := range ids {
		delete(room.Connections, id)
	}

	if room.IsEmpty() {
		delete(that.rooms, roomID)
		return true
	}

	return false
}

// SnapshotSenders - copies the room's connections, skipping the excluded ids.
func (that *Registry) SnapshotSenders(roomID string, exclude ...entity.ConnectionID) []entity.Connection {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return nil
	}

	return Snapshot(room, exclude...)
}

// Occupancy - returns the number of connections in the room, zero for an unknown room.
func (that *Registry) Occupancy(roomID string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[roomID]
	if !ok {
		return 0
	}

	return len(room.Connections)
}

// Rooms - lists live rooms ordered by id.
func (that *Registry) Rooms() []RoomSummary {
	that.mu.Lock()
	defer that.mu.Unlock()

	summaries := make([]RoomSummary, 0, len(that.rooms))
	for id, room := range that.rooms {
		summaries = append(summaries, RoomSummary{
			ID:             id,
			NumConnections: len(room.Connections),
			Status:         room.Game.Status(),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ID < summaries[j].ID
	})

	return summaries
}

// Snapshot - copies the room's connections. The caller must hold the room, e.g. inside WithRoom.
func Snapshot(room *entity.Room, exclude ...entity.ConnectionID) []entity.Connection {
	conns := make([]entity.Connection, 0, len(room.Connections))

	for id, conn := range room.Connections {
		if excluded(id, exclude) {
			continue
		}
		conns = append(conns, *conn)
	}

	sort.Slice(conns, func(i, j int) bool {
		return conns[i].ID < conns[j].ID
	})

	return conns
}

func excluded(id entity.ConnectionID, exclude []entity.ConnectionID) bool {
	for _, ex := range exclude {
		if ex == id {
			return true
		}
	}
	return false
}
