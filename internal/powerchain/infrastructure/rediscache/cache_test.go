package rediscache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	powerchain "power-assets/internal/powerchain/domain"
)

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(nil, time.Minute)
	require.Error(t, err)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	_, err = New(client, 0)
	require.Error(t, err)

	cache, err := New(client, time.Minute, WithPrefix("test"))
	require.NoError(t, err)
	require.Equal(t, "test:gen", cache.generationKey())
	require.Equal(t, "test:3:42", cache.key(3, 42))
}

func TestCacheRoundTripAgainstRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	cache, err := Dial(ctx, url, time.Minute, WithPrefix(fmt.Sprintf("test:%d", time.Now().UnixNano())))
	require.NoError(t, err)
	defer cache.Close()

	miss, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, miss)

	graph := &powerchain.Graph{
		Start: 1,
		Nodes: []powerchain.Node{{ID: 1, Label: "UPS-1"}, {ID: 2, Label: "电池组", Level: 1}},
		Edges: []powerchain.Edge{{ID: 9, From: 1, To: 2, Arrows: "to", Label: "电缆"}},
	}
	require.NoError(t, cache.Set(ctx, 1, graph))

	hit, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, graph, hit)

	require.NoError(t, cache.Invalidate(ctx))
	gone, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.Nil(t, gone)
}
