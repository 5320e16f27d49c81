package websocket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	gws "github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/queue"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

type uGame interface {
	Join(ctx context.Context, roomID string, outbox entity.Outbox) (entity.Connection, int, error)
	HandleMessage(ctx context.Context, roomID string, conn entity.Connection, payload []byte)
	Leave(ctx context.Context, roomID string, conn entity.Connection)
}

type Server struct {
	ctx    context.Context
	logger *slog.Logger
	uGame  uGame

	upgrader gws.Upgrader
}

// New - creates the websocket endpoint. Sessions end when ctx is cancelled.
// An empty origin list or "*" accepts any origin.
func New(ctx context.Context, logger *slog.Logger, uGame uGame, allowedOrigins []string) *Server {
	return &Server{
		ctx:    ctx,
		logger: logger,
		uGame:  uGame,

		upgrader: gws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// ServeJoin - upgrades GET /join/{roomID} and runs the player's session until either side goes away.
func (that *Server) ServeJoin(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeJoin")

	roomID := chi.URLParam(req, "roomID")
	if roomID == "" {
		http.Error(writer, "room id is required", http.StatusBadRequest)
		return
	}

	ws, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "room_id", roomID, "error", err)
		return
	}

	defer ws.Close()

	that.serveSession(roomID, ws)
}

func (that *Server) serveSession(roomID string, ws *gws.Conn) {
	log := that.logger.With("method", "serveSession", "room_id", roomID)

	outbox := queue.New()

	conn, occupancy, err := that.uGame.Join(that.ctx, roomID, outbox)
	if errors.Is(err, apperror.ErrRoomFull) {
		log.Info("room is full, rejecting connection", "occupancy", occupancy)
		that.rejectFull(ws, roomID, occupancy)
		return
	}

	if err != nil {
		log.Error("failed to join room", "error", err)
		return
	}

	sess := &session{
		logger: that.logger.With("room_id", roomID, "connection_id", conn.ID),
		uGame:  that.uGame,
		ws:     ws,
		roomID: roomID,
		conn:   conn,
		outbox: outbox,
	}

	reason := sess.run(that.ctx)

	outbox.Close()
	that.uGame.Leave(context.WithoutCancel(that.ctx), roomID, conn)

	log.Info("session closed", "connection_id", conn.ID, "reason", reason)
}

// rejectFull - tells the joiner the room is full and closes the socket.
func (that *Server) rejectFull(ws *gws.Conn, roomID string, occupancy int) {
	log := that.logger.With("method", "rejectFull", "room_id", roomID)

	payload, err := protocol.EncodeRoomState(protocol.NewRoomState(roomID, occupancy, usecase.MessageRoomFull, false, entity.EmptyCell))
	if err != nil {
		log.Error("failed to encode room state", "error", err)
		return
	}

	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err = ws.WriteMessage(gws.TextMessage, payload); err != nil {
		log.Warn("failed to send room state", "error", err)
		return
	}

	closeMsg := gws.FormatCloseMessage(gws.CloseNormalClosure, "")
	if err = ws.WriteControl(gws.CloseMessage, closeMsg, time.Now().Add(writeWait)); err != nil {
		log.Warn("failed to send close frame", "error", err)
	}
}

func checkOrigin(allowed []string) func(req *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}

	return func(req *http.Request) bool {
		origin := req.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
