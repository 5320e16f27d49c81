package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/protocol"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/queue"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

type brokenOutbox struct{}

func (brokenOutbox) Push([]byte) error { return errBrokenPipe }

type envelope struct {
	ResponseType string          `json:"response_type"`
	Response     json.RawMessage `json:"response"`
}

func newTestBroadcaster() (*Broadcaster, *registry.Registry) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	reg := registry.New()

	return NewBroadcaster(logger, reg), reg
}

func pop(t *testing.T, q *queue.Queue) envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	data, err := q.Pop(ctx)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))

	return env
}

func TestBroadcaster_BroadcastGameState(t *testing.T) {
	t.Run("Every member receives the state", func(t *testing.T) {
		// Given: two members in a room
		b, reg := newTestBroadcaster()
		qx, qo := queue.New(), queue.New()
		_, _, err := reg.Register("abc", qx)
		require.NoError(t, err)
		_, _, err = reg.Register("abc", qo)
		require.NoError(t, err)

		// When: the state is broadcast
		b.BroadcastGameState("abc")

		// Then: both queues hold a game_state
		for _, q := range []*queue.Queue{qx, qo} {
			env := pop(t, q)
			assert.Equal(t, protocol.TypeGameState, env.ResponseType)

			var state map[string]any
			require.NoError(t, json.Unmarshal(env.Response, &state))
			assert.Equal(t, "abc", state["room_id"])
			assert.Equal(t, false, state["started"])
		}
	})

	t.Run("Unreachable members are removed", func(t *testing.T) {
		// Given: one healthy and one broken member
		b, reg := newTestBroadcaster()
		healthy := queue.New()
		_, _, err := reg.Register("abc", healthy)
		require.NoError(t, err)
		_, _, err = reg.Register("abc", brokenOutbox{})
		require.NoError(t, err)

		// When: the state is broadcast
		b.BroadcastGameState("abc")

		// Then: the healthy member got it and the broken one is gone
		assert.Equal(t, protocol.TypeGameState, pop(t, healthy).ResponseType)
		assert.Equal(t, 1, reg.Occupancy("abc"))
	})

	t.Run("Room is deleted when nobody is reachable", func(t *testing.T) {
		// Given: a room whose only member is broken
		b, reg := newTestBroadcaster()
		_, _, err := reg.Register("abc", brokenOutbox{})
		require.NoError(t, err)

		// When: the state is broadcast
		b.BroadcastGameState("abc")

		// Then: the room no longer exists
		assert.Empty(t, reg.Rooms())
	})

	t.Run("Unknown room is ignored", func(t *testing.T) {
		b, reg := newTestBroadcaster()

		b.BroadcastGameState("missing")

		assert.Empty(t, reg.Rooms())
	})
}

func TestBroadcaster_SendError(t *testing.T) {
	// Given: two members in a room
	b, reg := newTestBroadcaster()
	qx, qo := queue.New(), queue.New()
	x, _, err := reg.Register("abc", qx)
	require.NoError(t, err)
	_, _, err = reg.Register("abc", qo)
	require.NoError(t, err)

	// When: an error is sent to X
	b.SendError("abc", apperror.ErrNotYourTurn, x)

	// Then: only X receives it
	env := pop(t, qx)
	assert.Equal(t, protocol.TypeError, env.ResponseType)
	assert.JSONEq(t, `{"room_id":"abc","code":"not_your_turn","message":"not_your_turn"}`, string(env.Response))
	assert.Equal(t, 0, qo.Len())
}

func TestBroadcaster_Announce(t *testing.T) {
	// Given: two members in a room
	b, reg := newTestBroadcaster()
	qx, qo := queue.New(), queue.New()
	x, _, err := reg.Register("abc", qx)
	require.NoError(t, err)
	_, _, err = reg.Register("abc", qo)
	require.NoError(t, err)

	// When: a message is announced to everyone but X
	b.Announce("abc", "Player x left the room", x.ID)

	// Then: O receives it with its own mark and X receives nothing
	env := pop(t, qo)
	assert.Equal(t, protocol.TypeRoomState, env.ResponseType)
	assert.JSONEq(t, `{"room_id":"abc","num_connections":1,"message":"Player x left the room","success":true,"my_mark":"o"}`, string(env.Response))
	assert.Equal(t, 0, qx.Len())
}
