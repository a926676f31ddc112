package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// Repository persists the message log between turns.
type Repository interface {
	Load(ctx context.Context, userID string) ([]Message, error)
	Save(ctx context.Context, userID string, messages []Message) error
	Delete(ctx context.Context, userID string) error
}

type history struct {
	Messages []Message `json:"messages"`
}

// RedisRepository stores each user's log under conversation:<userID>.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(ctx context.Context, redisURL string, ttl time.Duration) (*RedisRepository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisRepository{client: client, ttl: ttl}, nil
}

func conversationKey(userID string) string {
	return "conversation:" + userID
}

func (r *RedisRepository) Load(ctx context.Context, userID string) ([]Message, error) {
	key := conversationKey(userID)
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var h history
	if err := sonic.Unmarshal([]byte(data), &h); err != nil {
		return nil, err
	}

	// Refresh TTL
	r.client.Expire(ctx, key, r.ttl)
	return h.Messages, nil
}

func (r *RedisRepository) Save(ctx context.Context, userID string, messages []Message) error {
	data, err := sonic.Marshal(history{Messages: messages})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, conversationKey(userID), data, r.ttl).Err()
}

func (r *RedisRepository) Delete(ctx context.Context, userID string) error {
	return r.client.Del(ctx, conversationKey(userID)).Err()
}

// MemoryRepository keeps logs in process memory. Used in tests and when no
// Redis is configured.
type MemoryRepository struct {
	mu   sync.Mutex
	logs map[string][]Message
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{logs: make(map[string][]Message)}
}

func (r *MemoryRepository) Load(ctx context.Context, userID string) ([]Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.logs[userID]
	if !ok {
		return nil, nil
	}
	out := make([]Message, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *MemoryRepository) Save(ctx context.Context, userID string, messages []Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]Message, len(messages))
	copy(stored, messages)
	r.logs[userID] = stored
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.logs, userID)
	return nil
}
