package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

const batchStatusKeyPrefix = "ai:batch:"

// Batch lifecycle statuses.
const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

// BatchStatus is the progress snapshot clients poll while a batch runs.
type BatchStatus struct {
	ID        string         `json:"id"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Failed    int            `json:"failed"`
	Status    string         `json:"status"`
	Items     map[string]any `json:"items"`
	StartTime time.Time      `json:"startTime"`
	EndTime   *time.Time     `json:"endTime,omitempty"`
	Duration  float64        `json:"duration,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BatchStatusStore persists batch progress snapshots with a bounded lifetime.
// Get returns nil with no error for unknown or expired batches.
type BatchStatusStore interface {
	Init(ctx context.Context, id string, total int) (*BatchStatus, error)
	Get(ctx context.Context, id string) (*BatchStatus, error)
	RecordItem(ctx context.Context, id, prompt string, result any, failed bool) error
	Finalize(ctx context.Context, id string, batchErr error) error
}

// keyedMutex serializes read-modify-write cycles per batch id.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: map[string]*sync.Mutex{}}
}

func (k *keyedMutex) forKey(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	if m, ok := k.locks[key]; ok {
		return m
	}
	m := &sync.Mutex{}
	k.locks[key] = m
	return m
}

type redisBatchStatusStore struct {
	rdb *redis.Client
	ttl time.Duration
	mu  *keyedMutex
	log *logger.Logger
	now func() time.Time
}

// NewRedisBatchStatusStore keeps batch snapshots in redis as JSON blobs. TTL
// comes from BATCH_STATUS_TTL_MINUTES (default 60); every write refreshes it.
func NewRedisBatchStatusStore(rdb *redis.Client, baseLog *logger.Logger) BatchStatusStore {
	minutes := utils.GetEnvAsInt("BATCH_STATUS_TTL_MINUTES", 60, baseLog)
	return &redisBatchStatusStore{
		rdb: rdb,
		ttl: time.Duration(minutes) * time.Minute,
		mu:  newKeyedMutex(),
		log: baseLog.With("store", "BatchStatusStore"),
		now: time.Now,
	}
}

func (s *redisBatchStatusStore) Init(ctx context.Context, id string, total int) (*BatchStatus, error) {
	status := &BatchStatus{
		ID:        id,
		Total:     total,
		Status:    BatchProcessing,
		Items:     map[string]any{},
		StartTime: s.now(),
	}
	if err := s.write(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

func (s *redisBatchStatusStore) Get(ctx context.Context, id string) (*BatchStatus, error) {
	raw, err := s.rdb.Get(ctx, batchStatusKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var status BatchStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *redisBatchStatusStore) RecordItem(ctx context.Context, id, prompt string, result any, failed bool) error {
	lock := s.mu.forKey(id)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.Get(ctx, id)
	if err != nil || status == nil {
		return err
	}
	status.Items[prompt] = result
	status.Completed++
	if failed {
		status.Failed++
	}
	return s.write(ctx, status)
}

func (s *redisBatchStatusStore) Finalize(ctx context.Context, id string, batchErr error) error {
	lock := s.mu.forKey(id)
	lock.Lock()
	defer lock.Unlock()

	status, err := s.Get(ctx, id)
	if err != nil || status == nil {
		return err
	}
	finalize(status, batchErr, s.now())
	return s.write(ctx, status)
}

func (s *redisBatchStatusStore) write(ctx context.Context, status *BatchStatus) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, batchStatusKeyPrefix+status.ID, raw, s.ttl).Err()
}

func finalize(status *BatchStatus, batchErr error, endTime time.Time) {
	status.EndTime = &endTime
	status.Duration = endTime.Sub(status.StartTime).Seconds()
	if batchErr != nil {
		status.Status = BatchFailed
		status.Error = batchErr.Error()
		return
	}
	status.Status = BatchCompleted
}

type memoryBatchEntry struct {
	status    *BatchStatus
	expiresAt time.Time
}

type memoryBatchStatusStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*memoryBatchEntry
	now     func() time.Time
}

// NewMemoryBatchStatusStore is the in-process fallback used when redis is not
// configured, and by tests.
func NewMemoryBatchStatusStore(ttl time.Duration) BatchStatusStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &memoryBatchStatusStore{
		ttl:     ttl,
		entries: map[string]*memoryBatchEntry{},
		now:     time.Now,
	}
}

func (s *memoryBatchStatusStore) Init(_ context.Context, id string, total int) (*BatchStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := &BatchStatus{
		ID:        id,
		Total:     total,
		Status:    BatchProcessing,
		Items:     map[string]any{},
		StartTime: s.now(),
	}
	s.entries[id] = &memoryBatchEntry{status: status, expiresAt: s.now().Add(s.ttl)}
	return copyStatus(status), nil
}

func (s *memoryBatchStatusStore) Get(_ context.Context, id string) (*BatchStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(id)
	if entry == nil {
		return nil, nil
	}
	return copyStatus(entry.status), nil
}

func (s *memoryBatchStatusStore) RecordItem(_ context.Context, id, prompt string, result any, failed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(id)
	if entry == nil {
		return nil
	}
	entry.status.Items[prompt] = result
	entry.status.Completed++
	if failed {
		entry.status.Failed++
	}
	entry.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *memoryBatchStatusStore) Finalize(_ context.Context, id string, batchErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.live(id)
	if entry == nil {
		return nil
	}
	finalize(entry.status, batchErr, s.now())
	entry.expiresAt = s.now().Add(s.ttl)
	return nil
}

func (s *memoryBatchStatusStore) live(id string) *memoryBatchEntry {
	entry, ok := s.entries[id]
	if !ok {
		return nil
	}
	if s.now().After(entry.expiresAt) {
		delete(s.entries, id)
		return nil
	}
	return entry
}

func copyStatus(status *BatchStatus) *BatchStatus {
	clone := *status
	clone.Items = make(map[string]any, len(status.Items))
	for k, v := range status.Items {
		clone.Items[k] = v
	}
	return &clone
}
