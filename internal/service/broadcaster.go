package service

import (
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
)

// Broadcaster delivers server messages to room members. Payloads and recipient lists are built under
// the registry lock, pushes happen outside it, and recipients whose outbox rejects a message are removed.
type Broadcaster struct {
	logger   *slog.Logger
	registry *registry.Registry
}

func NewBroadcaster(logger *slog.Logger, registry *registry.Registry) *Broadcaster {
	return &Broadcaster{
		logger:   logger,
		registry: registry,
	}
}

type gameStateBatch struct {
	payload    []byte
	recipients []entity.Connection
}

// BroadcastGameState - sends the room's current game state to every member.
func (that *Broadcaster) BroadcastGameState(roomID string) {
	log := that.logger.With("method", "BroadcastGameState", "room_id", roomID)

	batch, err := registry.WithRoom(that.registry, roomID, func(room *entity.Room) (gameStateBatch, error) {
		payload, err := protocol.EncodeGameState(protocol.NewGameState(room.ID, room.Game))
		if err != nil {
			return gameStateBatch{}, err
		}

		return gameStateBatch{payload: payload, recipients: registry.Snapshot(room)}, nil
	})
	if err != nil {
		log.Debug("nothing to broadcast", "error", err)
		return
	}

	that.deliver(roomID, batch.recipients, func(entity.Connection) ([]byte, error) {
		return batch.payload, nil
	})
}

// SendError - sends an error reply to a single member.
func (that *Broadcaster) SendError(roomID string, cause error, to entity.Connection) {
	log := that.logger.With("method", "SendError", "room_id", roomID, "connection_id", to.ID)

	payload, err := protocol.EncodeError(protocol.NewError(roomID, cause))
	if err != nil {
		log.Error("failed to encode error reply", "error", err)
		return
	}

	that.deliver(roomID, []entity.Connection{to}, func(entity.Connection) ([]byte, error) {
		return payload, nil
	})
}

// Announce - sends a room_state to every member but the excluded ones. Each recipient sees its own mark
// and the number of recipients.
func (that *Broadcaster) Announce(roomID, message string, exclude ...entity.ConnectionID) {
	recipients := that.registry.SnapshotSenders(roomID, exclude...)
	occupancy := len(recipients)

	that.deliver(roomID, recipients, func(conn entity.Connection) ([]byte, error) {
		return protocol.EncodeRoomState(protocol.NewRoomState(roomID, occupancy, message, true, conn.Mark))
	})
}

func (that *Broadcaster) deliver(roomID string, recipients []entity.Connection, render func(entity.Connection) ([]byte, error)) {
	log := that.logger.With("method", "deliver", "room_id", roomID)

	var dead []entity.ConnectionID

	for _, conn := range recipients {
		payload, err := render(conn)
		if err != nil {
			log.Error("failed to encode message", "connection_id", conn.ID, "error", err)
			continue
		}

		if err = conn.Outbox.Push(payload); err != nil {
			log.Warn("dropping unreachable connection", "connection_id", conn.ID, "error", err)
			dead = append(dead, conn.ID)
		}
	}

	if len(dead) == 0 {
		return
	}

	if deleted := that.registry.RemoveConnections(roomID, dead...); deleted {
		log.Info("room deleted")
	}
}
