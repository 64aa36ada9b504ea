package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisAdapter_GetLatestTicker_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		a := NewRedisAdapterFromClient(rdb, time.Minute)
		mock.ExpectGet("latest:alpha:X").RedisNil()

		got, err := a.GetLatestTicker(ctx, "X", "alpha")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection error", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		a := NewRedisAdapterFromClient(rdb, time.Minute)
		connErr := errors.New("connection refused")
		mock.ExpectGet("latest:alpha:X").SetErr(connErr)

		_, err := a.GetLatestTicker(ctx, "X", "alpha")
		assert.ErrorIs(t, err, connErr)
	})

	t.Run("corrupt value", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		a := NewRedisAdapterFromClient(rdb, time.Minute)
		mock.ExpectGet("latest:alpha:X").SetVal("not json")

		_, err := a.GetLatestTicker(ctx, "X", "alpha")
		assert.ErrorContains(t, err, "unmarshal")
	})
}

func TestRedisAdapter_Ping_Error(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	a := NewRedisAdapterFromClient(rdb, time.Minute)
	mock.ExpectPing().SetErr(errors.New("down"))

	assert.Error(t, a.Ping(context.Background()))
}
