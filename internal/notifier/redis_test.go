package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/staywatch/internal/model"
)

func TestRedisStreamNotifier_Deliver(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	n, err := NewRedisStreamNotifier(ctx, RedisOptions{Addr: mr.Addr(), Stream: "staywatch:listings", MaxLen: 100}, discardLogger())
	require.NoError(t, err)
	defer n.Close()

	require.NoError(t, n.Deliver(ctx, "first"))
	require.NoError(t, n.Deliver(ctx, "second"))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	msgs, err := client.XRange(ctx, "staywatch:listings", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Values["text"])
	assert.Equal(t, "second", msgs[1].Values["text"])
	assert.NotEmpty(t, msgs[0].Values["sent_at"])
}

func TestRedisStreamNotifier_RequiresAddr(t *testing.T) {
	_, err := NewRedisStreamNotifier(context.Background(), RedisOptions{Stream: "s"}, discardLogger())
	assert.ErrorIs(t, err, model.ErrMissingCredentials)
}

func TestRedisStreamNotifier_ServerGone(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	n, err := NewRedisStreamNotifier(ctx, RedisOptions{Addr: mr.Addr(), Stream: "s"}, discardLogger())
	require.NoError(t, err)
	defer n.Close()

	mr.Close()
	err = n.Deliver(ctx, "lost")
	var de *model.DeliveryError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.Equal(t, "redis", de.Channel)
}
