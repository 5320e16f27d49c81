package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
)

const (
	MessageJoined   = "Someone joined the room"
	MessageRoomFull = "Room is full"
)

type resultRepo interface {
	Save(ctx context.Context, result *entity.MatchResult) error
}

// GameManager runs the room lifecycle: admission, game actions and departure.
type GameManager struct {
	logger *slog.Logger

	registry    *registry.Registry
	broadcaster *service.Broadcaster
	resultRepo  resultRepo
}

func NewGameManager(logger *slog.Logger, registry *registry.Registry, broadcaster *service.Broadcaster, resultRepo resultRepo) *GameManager {
	return &GameManager{
		logger: logger,

		registry:    registry,
		broadcaster: broadcaster,
		resultRepo:  resultRepo,
	}
}

// Join - admits a connection into the room and starts the game once the second player is in.
// On ErrRoomFull the returned occupancy is the room's current one.
func (that *GameManager) Join(_ context.Context, roomID string, outbox entity.Outbox) (entity.Connection, int, error) {
	log := that.logger.With("method", "Join", "room_id", roomID)

	conn, occupancy, err := that.registry.Register(roomID, outbox)
	if err != nil {
		return conn, occupancy, fmt.Errorf("failed to join room: %w", err)
	}

	log.Info("connection joined", "connection_id", conn.ID, "mark", conn.Mark, "occupancy", occupancy)

	that.broadcaster.Announce(roomID, MessageJoined)

	started, err := registry.WithRoom(that.registry, roomID, func(room *entity.Room) (bool, error) {
		if len(room.Connections) != entity.RequiredPlayers || room.Game.Started {
			return false, nil
		}

		if err := room.StartGame(); err != nil {
			return false, err
		}

		return true, nil
	})
	if err != nil {
		log.Warn("failed to auto-start game", "error", err)
	}

	if started {
		log.Info("game started")
		that.broadcaster.BroadcastGameState(roomID)
	}

	return conn, occupancy, nil
}

// HandleMessage - executes one client message. Successful actions are broadcast to the room,
// rejected ones are answered to the sender only.
func (that *GameManager) HandleMessage(ctx context.Context, roomID string, conn entity.Connection, payload []byte) {
	log := that.logger.With("method", "HandleMessage", "room_id", roomID, "connection_id", conn.ID)

	req, err := protocol.Decode(payload)
	if err != nil {
		log.Debug("failed to decode message", "error", err)
		that.broadcaster.SendError(roomID, err, conn)
		return
	}

	result, err := that.apply(roomID, conn, req)
	if err != nil {
		log.Debug("action rejected", "action", req.Action, "error", err)
		that.broadcaster.SendError(roomID, err, conn)
		return
	}

	that.broadcaster.BroadcastGameState(roomID)

	if result != nil {
		that.recordResult(ctx, result)
	}
}

// Leave - tells the remaining members that the connection left, then removes it.
func (that *GameManager) Leave(_ context.Context, roomID string, conn entity.Connection) {
	log := that.logger.With("method", "Leave", "room_id", roomID, "connection_id", conn.ID)

	that.broadcaster.Announce(roomID, fmt.Sprintf("Player %s left the room", conn.Mark), conn.ID)

	if deleted := that.registry.RemoveConnections(roomID, conn.ID); deleted {
		log.Info("room deleted")
		return
	}

	log.Info("connection left")
}

// GameState - returns the public game view of a live room.
func (that *GameManager) GameState(roomID string) (protocol.GameState, error) {
	return registry.WithRoom(that.registry, roomID, func(room *entity.Room) (protocol.GameState, error) {
		return protocol.NewGameState(room.ID, room.Game), nil
	})
}

func (that *GameManager) Rooms() []registry.RoomSummary {
	return that.registry.Rooms()
}

// apply - runs the action under the registry lock. A non-nil result means the move concluded the match.
func (that *GameManager) apply(roomID string, conn entity.Connection, req *protocol.Request) (*entity.MatchResult, error) {
	switch req.Action {
	case protocol.ActionMakeMove:
		if req.MovePayload == nil {
			return nil, fmt.Errorf("failed to make move: %w", apperror.ErrMissingMovePayload)
		}

		x, y := int(req.MovePayload.X), int(req.MovePayload.Y)

		return registry.WithRoom(that.registry, roomID, func(room *entity.Room) (*entity.MatchResult, error) {
			if err := room.MakeMove(conn.ID, x, y); err != nil {
				return nil, fmt.Errorf("failed to make move: %w", err)
			}

			return entity.NewMatchResult(room.ID, room.Game), nil
		})

	case protocol.ActionStartGame:
		return registry.WithRoom(that.registry, roomID, func(room *entity.Room) (*entity.MatchResult, error) {
			if err := room.StartGame(); err != nil {
				return nil, fmt.Errorf("failed to start game: %w", err)
			}
			return nil, nil
		})

	case protocol.ActionRestartGame:
		return registry.WithRoom(that.registry, roomID, func(room *entity.Room) (*entity.MatchResult, error) {
			if err := room.RestartGame(); err != nil {
				return nil, fmt.Errorf("failed to restart game: %w", err)
			}
			return nil, nil
		})
	}

	return nil, fmt.Errorf("%w: unknown action %q", apperror.ErrInvalidJSON, req.Action)
}

func (that *GameManager) recordResult(ctx context.Context, result *entity.MatchResult) {
	log := that.logger.With("method", "recordResult", "room_id", result.RoomID)

	if err := that.resultRepo.Save(ctx, result); err != nil {
		log.Error("failed to save match result", "error", err)
		return
	}

	log.Info("match finished", "outcome", result.Outcome(), "moves", result.MovesCount)
}
