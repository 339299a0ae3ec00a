package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

func sampleIndex() types.DayIndex {
	return types.DayIndex{
		1: {
			{ID: "d1-0", Day: 1, SortOrder: 0, Type: types.ItemTransport, Title: "Airport"},
			{ID: "d1-1", Day: 1, SortOrder: 1, Type: types.ItemFood, Title: "Pork soup", Highlight: []string{"Must Eat"}},
		},
		3: {{ID: "d3-0", Day: 3, SortOrder: 0, Type: types.ItemSight, Title: "Palace"}},
	}
}

func TestCodecRoundTrip(t *testing.T) {
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	data, err := encode(sampleIndex(), now)
	require.NoError(t, err)

	snap, err := decode(data)
	require.NoError(t, err)
	assert.Equal(t, now, snap.SavedAt)
	assert.Equal(t, []int{1, 3}, snap.Days.Days())
	assert.Equal(t, []string{"d1-0", "d1-1"}, types.IDs(snap.Days[1]))
	assert.Equal(t, []string{"Must Eat"}, snap.Days[1][1].Highlight)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "{"},
		{name: "unknown version", data: `{"version":9,"days":{}}`},
		{name: "missing version", data: `{"days":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDecodeEmptyIndex(t *testing.T) {
	data, err := encode(nil, time.Now())
	require.NoError(t, err)
	snap, err := decode(data)
	require.NoError(t, err)
	assert.NotNil(t, snap.Days)
	assert.Empty(t, snap.Days.Days())
}

func TestNewWithClientDefaults(t *testing.T) {
	s := NewWithClient(nil, "", 0)
	assert.Equal(t, DefaultKey, s.key)
	assert.Equal(t, DefaultTTL, s.ttl)

	s = NewWithClient(nil, "custom", -1)
	assert.Equal(t, "custom", s.key)
	assert.Zero(t, s.ttl)
}

// Network tests run only against a real server.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("TRIPDECK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TRIPDECK_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestSnapshotsAgainstRedis(t *testing.T) {
	addr := redisAddr(t)
	ctx := context.Background()
	key := "tripdeck:test:" + t.Name()

	s, err := New(ctx, Options{Addr: addr, Key: key, TTL: time.Minute})
	require.NoError(t, err)
	defer s.Close()
	defer s.Clear(ctx)

	_, ok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, sampleIndex()))
	idx, ok, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, idx.Days())

	ttl, err := s.client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Clear(ctx))
	_, ok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := New(ctx, Options{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
