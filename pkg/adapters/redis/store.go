package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/vmchat/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the adapters.
const DefaultPrefix = "vmchat:history:"

// Store implements ports.HistoryStore using Redis lists.
type Store struct {
	client     *backend.Client
	prefix     string
	ttl        time.Duration
	maxHistory int
}

type Option func(*Store)

// WithTTL sets the expiration for transcripts, refreshed on every append.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for transcripts. A trailing ':' is added
// when missing.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if !strings.HasSuffix(prefix, ":") {
			prefix += ":"
		}
		s.prefix = prefix
	}
}

// WithMaxHistory keeps only the last n messages of each transcript (0 = unbounded).
func WithMaxHistory(n int) Option {
	return func(s *Store) {
		s.maxHistory = n
	}
}

// New creates a new Redis store from a redis:// URL.
func New(url string, opts ...Option) (*Store, error) {
	redisOpts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewFromClient(backend.NewClient(redisOpts), opts...), nil
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client returns the underlying redis client, shared with the Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

// indexKey is the sorted set of live sessions. It replaces the prefix's
// trailing ':' so no session id can map onto it.
func (s *Store) indexKey() string {
	return strings.TrimSuffix(s.prefix, ":") + ".index"
}

// Append pushes messages to the session list and refreshes its index entry.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	values := make([]any, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, s.key(sessionID), values...)
	if s.maxHistory > 0 {
		pipe.LTrim(ctx, s.key(sessionID), int64(-s.maxHistory), -1)
	}
	if s.ttl > 0 {
		pipe.Expire(ctx, s.key(sessionID), s.ttl)
	}

	// Score = expiry time, so List can prune lazily. No TTL: far future.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: sessionID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// Load retrieves the transcript from Redis.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	vals, err := s.client.LRange(ctx, s.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read from redis: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	history := make([]domain.Message, 0, len(vals))
	for _, v := range vals {
		var m domain.Message
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		history = append(history, m)
	}
	return history, nil
}

// Delete removes the transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns live sessions, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
