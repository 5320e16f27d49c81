package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
)

type roomsProvider interface {
	Rooms() []registry.RoomSummary
	GameState(roomID string) (protocol.GameState, error)
}

type resultsProvider interface {
	ListByRoom(ctx context.Context, roomID string) ([]*entity.MatchResult, error)
	Totals(ctx context.Context) (entity.ResultTotals, error)
}

type Handlers struct {
	logger  *slog.Logger
	rooms   roomsProvider
	results resultsProvider
}

func NewHandlers(logger *slog.Logger, rooms roomsProvider, results resultsProvider) *Handlers {
	return &Handlers{
		logger:  logger,
		rooms:   rooms,
		results: results,
	}
}

// ListRooms - GET /rooms.
func (that *Handlers) ListRooms(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, that.rooms.Rooms())
}

// GetRoom - GET /rooms/{roomID}, the room's current game state.
func (that *Handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	state, err := that.rooms.GameState(roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		that.writeError(w, http.StatusNotFound, protocol.NewError(roomID, err))
		return
	}

	if err != nil {
		that.logger.Error("failed to get game state", "method", "GetRoom", "room_id", roomID, "error", err)
		that.writeError(w, http.StatusInternalServerError, protocol.NewError(roomID, err))
		return
	}

	that.writeJSON(w, http.StatusOK, state)
}

// ListRoomResults - GET /rooms/{roomID}/results, newest first. Results outlive their room.
func (that *Handlers) ListRoomResults(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	results, err := that.results.ListByRoom(r.Context(), roomID)
	if err != nil {
		that.logger.Error("failed to list results", "method", "ListRoomResults", "room_id", roomID, "error", err)
		that.writeError(w, http.StatusInternalServerError, protocol.NewError(roomID, err))
		return
	}

	that.writeJSON(w, http.StatusOK, results)
}

// GetTotals - GET /results/totals.
func (that *Handlers) GetTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := that.results.Totals(r.Context())
	if err != nil {
		that.logger.Error("failed to get totals", "method", "GetTotals", "error", err)
		that.writeError(w, http.StatusInternalServerError, protocol.NewError("", err))
		return
	}

	that.writeJSON(w, http.StatusOK, totals)
}

func (that *Handlers) writeError(w http.ResponseWriter, status int, reply protocol.Error) {
	that.writeJSON(w, status, reply)
}

func (that *Handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
