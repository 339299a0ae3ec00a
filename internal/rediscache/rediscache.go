// Package rediscache keeps the last good Day Index in Redis so every
// tripdeck process sharing the cache can serve a stale view while the
// item store is down.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/tripdeck/internal/itinerary"
	"github.com/mesh-intelligence/tripdeck/pkg/types"
)

// DefaultKey is the key the snapshot is stored under.
const DefaultKey = "tripdeck:snapshot:dayindex"

// DefaultTTL is used when Options.TTL is zero. A negative TTL keeps the
// snapshot forever.
const DefaultTTL = 24 * time.Hour

// Options configures a Snapshots.
type Options struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// Snapshots stores Day Index snapshots as a JSON string value.
type Snapshots struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ itinerary.Snapshots = (*Snapshots)(nil)

// New connects to Redis and checks the connection with PING.
func New(ctx context.Context, opts Options) (*Snapshots, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, opts.Key, opts.TTL), nil
}

// NewWithClient wraps an existing client. Empty key and zero ttl pick the
// defaults.
func NewWithClient(client *redis.Client, key string, ttl time.Duration) *Snapshots {
	if key == "" {
		key = DefaultKey
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Snapshots{client: client, key: key, ttl: ttl}
}

// Save replaces the stored snapshot.
func (s *Snapshots) Save(ctx context.Context, idx types.DayIndex) error {
	data, err := encode(idx, time.Now())
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot. A missing or expired key is not an
// error.
func (s *Snapshots) Load(ctx context.Context) (types.DayIndex, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading snapshot: %w", err)
	}
	snap, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return snap.Days, true, nil
}

// Clear removes the stored snapshot.
func (s *Snapshots) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close closes the Redis client.
func (s *Snapshots) Close() error {
	return s.client.Close()
}

const snapshotVersion = 1

type snapshot struct {
	Version int            `json:"version"`
	SavedAt time.Time      `json:"savedAt"`
	Days    types.DayIndex `json:"days"`
}

func encode(idx types.DayIndex, now time.Time) ([]byte, error) {
	if idx == nil {
		idx = types.DayIndex{}
	}
	data, err := json.Marshal(snapshot{Version: snapshotVersion, SavedAt: now.UTC(), Days: idx})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

func decode(data []byte) (snapshot, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return snapshot{}, fmt.Errorf("snapshot version %d not supported", snap.Version)
	}
	if snap.Days == nil {
		snap.Days = types.DayIndex{}
	}
	return snap, nil
}
