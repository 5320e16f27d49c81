package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/testing/suite"
)

func TestNewRedisStorage(t *testing.T) {
	t.Run("Connects to a running redis", func(t *testing.T) {
		ctx, st := suite.New(t)

		// When: connecting to the container's address
		storage, err := NewRedisStorage(ctx, st.Storage.Options().Addr)

		// Then: the connection is usable and closes cleanly
		require.NoError(t, err)
		assert.NoError(t, storage.Connection.Ping(ctx).Err())
		assert.NoError(t, storage.Close())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		// When: connecting to a closed port
		storage, err := NewRedisStorage(ctx, "127.0.0.1:1")

		// Then: an error is returned
		require.Error(t, err)
		assert.Nil(t, storage)
	})
}
