package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopOutbox struct{}

func (nopOutbox) Push([]byte) error { return nil }

func TestRegistry_Register(t *testing.T) {
	t.Run("Creates the room and hands out X then O", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: two connections join the same room
		first, firstOcc, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		second, secondOcc, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)

		// Then: they get distinct ids, X and O, and the occupancy grows
		assert.NotEqual(t, first.ID, second.ID)
		assert.Equal(t, entity.PlayerX, first.Mark)
		assert.Equal(t, entity.PlayerO, second.Mark)
		assert.Equal(t, 1, firstOcc)
		assert.Equal(t, 2, secondOcc)
	})

	t.Run("Third joiner is rejected without mutation", func(t *testing.T) {
		// Given: a full room
		reg := New()
		_, _, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		_, _, err = reg.Register("abc", nopOutbox{})
		require.NoError(t, err)

		// When: a third connection joins
		_, occ, err := reg.Register("abc", nopOutbox{})

		// Then: ErrRoomFull is returned and the room still holds two
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, 2, occ)
		assert.Equal(t, 2, reg.Occupancy("abc"))
	})

	t.Run("Concurrent joins admit exactly two", func(t *testing.T) {
		// Given: an empty registry and five joiners racing for one room
		reg := New()
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			admitted []entity.Connection
			rejected int
		)

		// When: they all join at once
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				conn, _, err := reg.Register("race", nopOutbox{})

				mu.Lock()
				defer mu.Unlock()
				if errors.Is(err, apperror.ErrRoomFull) {
					rejected++
					return
				}
				admitted = append(admitted, conn)
			}()
		}
		wg.Wait()

		// Then: two are admitted with X and O, three are rejected
		require.Len(t, admitted, 2)
		assert.Equal(t, 3, rejected)
		assert.ElementsMatch(t, []entity.Mark{entity.PlayerX, entity.PlayerO}, []entity.Mark{admitted[0].Mark, admitted[1].Mark})
		assert.NotEqual(t, admitted[0].ID, admitted[1].ID)
	})

	t.Run("Late joiner takes the vacated mark", func(t *testing.T) {
		// Given: X left a room where O stays
		reg := New()
		x, _, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		_, _, err = reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		reg.RemoveConnections("abc", x.ID)

		// When: a new connection joins
		late, occ, err := reg.Register("abc", nopOutbox{})

		// Then: it plays X
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, late.Mark)
		assert.Equal(t, 2, occ)
	})
}

func TestRegistry_RemoveConnections(t *testing.T) {
	t.Run("Room is deleted when the last connection leaves", func(t *testing.T) {
		// Given: a room with two connections
		reg := New()
		a, _, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		b, _, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)

		// When: both leave one at a time
		deletedFirst := reg.RemoveConnections("abc", a.ID)
		deletedSecond := reg.RemoveConnections("abc", b.ID)

		// Then: only the second removal deletes the room
		assert.False(t, deletedFirst)
		assert.True(t, deletedSecond)
		assert.Empty(t, reg.Rooms())
	})

	t.Run("Unknown room is a no-op", func(t *testing.T) {
		reg := New()

		assert.False(t, reg.RemoveConnections("missing", 1))
	})
}

func TestWithRoom(t *testing.T) {
	t.Run("Unknown room", func(t *testing.T) {
		// Given: an empty registry
		reg := New()

		// When: running against a missing room
		_, err := WithRoom(reg, "missing", func(room *entity.Room) (int, error) {
			return len(room.Connections), nil
		})

		// Then: ErrRoomNotFound is returned
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Mutations are visible afterwards", func(t *testing.T) {
		// Given: a full room
		reg := New()
		_, _, err := reg.Register("abc", nopOutbox{})
		require.NoError(t, err)
		_, _, err = reg.Register("abc", nopOutbox{})
		require.NoError(t, err)

		// When: the game is started under the lock
		status, err := WithRoom(reg, "abc", func(room *entity.Room) (string, error) {
			if err := room.StartGame(); err != nil {
				return "", err
			}
			return room.Game.Status(), nil
		})

		// Then: the room reports the started game
		require.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, status)
		assert.Equal(t, []RoomSummary{{ID: "abc", NumConnections: 2, Status: entity.StatusInProgress}}, reg.Rooms())
	})
}

func TestRegistry_SnapshotSenders(t *testing.T) {
	// Given: a room with two connections
	reg := New()
	a, _, err := reg.Register("abc", nopOutbox{})
	require.NoError(t, err)
	b, _, err := reg.Register("abc", nopOutbox{})
	require.NoError(t, err)

	// When: snapshotting with and without exclusion
	all := reg.SnapshotSenders("abc")
	others := reg.SnapshotSenders("abc", a.ID)

	// Then: the exclusion is honoured and order follows ids
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
	require.Len(t, others, 1)
	assert.Equal(t, b.ID, others[0].ID)
	assert.Nil(t, reg.SnapshotSenders("missing"))
}
