package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

// ConnectionID is unique for the process lifetime; the counter wraps on overflow.
type ConnectionID uint64

// Outbox accepts messages for one connection's outbound loop.
type Outbox interface {
	Push(msg []byte) error
}

// Connection is a participant of a room.
type Connection struct {
	ID     ConnectionID
	Mark   Mark
	Outbox Outbox
}

type Room struct {
	ID          string
	Connections map[ConnectionID]*Connection
	Game        *Game
}

func NewRoom(id string) *Room {
	return &Room{
		ID:          id,
		Connections: make(map[ConnectionID]*Connection, RequiredPlayers),
		Game:        NewGame(),
	}
}

func (that *Room) IsFull() bool {
	return len(that.Connections) >= RequiredPlayers
}

func (that *Room) IsEmpty() bool {
	return len(that.Connections) == 0
}

// FreeMark - returns the lowest mark no connection holds, so a late joiner always fills the vacated side.
func (that *Room) FreeMark() Mark {
	for _, conn := range that.Connections {
		if conn.Mark == PlayerX {
			return PlayerO
		}
	}

	return PlayerX
}

func (that *Room) StartGame() error {
	return that.Game.Start(len(that.Connections))
}

func (that *Room) RestartGame() error {
	return that.Game.Restart(len(that.Connections))
}

// MakeMove - plays the connection's own mark.
func (that *Room) MakeMove(id ConnectionID, x, y int) error {
	mark, ok := that.MarkOf(id)
	if !ok {
		return fmt.Errorf("%w: connection %d is not in room %s", apperror.ErrRoomNotFound, id, that.ID)
	}

	return that.Game.MakeMove(mark, x, y)
}

// MarkOf - returns the mark held by the connection.
func (that *Room) MarkOf(id ConnectionID) (Mark, bool) {
	conn, ok := that.Connections[id]
	if !ok {
		return EmptyCell, false
	}

	return conn.Mark, true
}
