package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gws "github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/queue"
)

var errSessionCancelled = errors.New("session cancelled")

type session struct {
	logger *slog.Logger
	uGame  uGame

	ws     *gws.Conn
	roomID string
	conn   entity.Connection
	outbox *queue.Queue
}

// run - pumps messages both ways until one direction fails or ctx is cancelled,
// then stops the other direction by closing the socket. Returns the reason the session ended.
func (that *session) run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return that.writeLoop(groupCtx)
	})

	group.Go(func() error {
		return that.readLoop(groupCtx)
	})

	go func() {
		<-groupCtx.Done()
		_ = that.ws.Close()
	}()

	return group.Wait()
}

// writeLoop - the only writer of the socket, drains the outbox in order.
func (that *session) writeLoop(ctx context.Context) error {
	for {
		msg, err := that.outbox.Pop(ctx)
		if err != nil {
			return fmt.Errorf("outbox: %w", err)
		}

		_ = that.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err = that.ws.WriteMessage(gws.TextMessage, msg); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
	}
}

// readLoop - hands every text message to the game manager. Other frame types are ignored.
func (that *session) readLoop(ctx context.Context) error {
	that.ws.SetReadLimit(maxMessageSize)

	for {
		msgType, payload, err := that.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return errSessionCancelled
			}
			return fmt.Errorf("failed to read message: %w", err)
		}

		if msgType != gws.TextMessage {
			that.logger.Debug("ignoring non-text frame", "type", msgType)
			continue
		}

		that.uGame.HandleMessage(ctx, that.roomID, that.conn, payload)
	}
}
