package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropsense-workers/internal/common/config"
	"cropsense-workers/internal/common/logger"
)

func TestNewRedis_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedis(config.RedisConfig{Address: mr.Addr()})
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Ping(context.Background()))

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}

func TestNewRedis_EmptyAddress(t *testing.T) {
	_, err := NewRedis(config.RedisConfig{})
	assert.Error(t, err)
}

func TestNewPostgres_OpensLazily(t *testing.T) {
	c, err := NewPostgres(config.PostgresConfig{Host: "localhost", Port: 5432, Database: "mandis", SSLMode: "disable", MaxConnections: 2})
	require.NoError(t, err)
	assert.NotNil(t, c.DB)
	assert.NoError(t, c.Close())
}

func TestRetryWithBackoff(t *testing.T) {
	log := logger.NewNoOpLogger()

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), 3, time.Millisecond, log, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("not yet")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(context.Background(), 2, time.Millisecond, log, "op", func(context.Context) error {
			calls++
			return errors.New("down")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "after 2 attempts")
		assert.Equal(t, 2, calls)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, 5, time.Hour, log, "op", func(context.Context) error {
			return errors.New("down")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
