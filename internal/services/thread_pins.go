package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

const threadPinKeyPrefix = "chat:thread_pin:"

// ThreadPinStore remembers which vendor thread a persistence key is bound to,
// so repeat chat requests from the same browser session continue the same
// conversation.
type ThreadPinStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, threadID string) error
	Delete(ctx context.Context, key string) error
}

type redisThreadPinStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedisThreadPinStore backs thread pins with redis. TTL comes from
// CHAT_THREAD_PIN_TTL_HOURS (default 72) so stale sessions expire on their
// own.
func NewRedisThreadPinStore(rdb *redis.Client, baseLog *logger.Logger) ThreadPinStore {
	hours := utils.GetEnvAsInt("CHAT_THREAD_PIN_TTL_HOURS", 72, baseLog)
	return &redisThreadPinStore{
		rdb: rdb,
		ttl: time.Duration(hours) * time.Hour,
		log: baseLog.With("store", "ThreadPinStore"),
	}
}

func (s *redisThreadPinStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, threadPinKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (s *redisThreadPinStore) Set(ctx context.Context, key, threadID string) error {
	return s.rdb.Set(ctx, threadPinKeyPrefix+key, threadID, s.ttl).Err()
}

func (s *redisThreadPinStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, threadPinKeyPrefix+key).Err()
}

// memoryThreadPinStore keeps pins in-process. Used when redis is not
// configured and in tests.
type memoryThreadPinStore struct {
	mu   sync.Mutex
	pins map[string]string
}

func NewMemoryThreadPinStore() ThreadPinStore {
	return &memoryThreadPinStore{pins: map[string]string{}}
}

func (s *memoryThreadPinStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pins[key], nil
}

func (s *memoryThreadPinStore) Set(_ context.Context, key, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pins[key] = threadID
	return nil
}

func (s *memoryThreadPinStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pins, key)
	return nil
}
