package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/utils"
)

// ItemFunc generates the result for a single batch prompt.
type ItemFunc func(ctx context.Context, prompt string) (any, error)

// BatchService fans a list of prompts out in fixed-size chunks and tracks
// progress in a BatchStatusStore. A failing item is recorded as an error entry
// and never sinks the rest of the batch.
type BatchService struct {
	log       *logger.Logger
	store     BatchStatusStore
	chunkSize int
	timeout   time.Duration
}

func NewBatchService(baseLog *logger.Logger, store BatchStatusStore) *BatchService {
	log := baseLog.With("service", "BatchService")
	return &BatchService{
		log:       log,
		store:     store,
		chunkSize: utils.GetEnvAsInt("BATCH_CHUNK_SIZE", 5, log),
		timeout:   time.Duration(utils.GetEnvAsInt("BATCH_TIMEOUT_MINUTES", 30, log)) * time.Minute,
	}
}

// Run registers a new batch and processes every prompt before returning, so
// the caller gets the merged results alongside the batch id. The status store
// is updated item by item for anyone polling the id concurrently; the final
// snapshot is what Run hands back.
func (s *BatchService) Run(ctx context.Context, prompts []string, run ItemFunc) (*BatchStatus, error) {
	if len(prompts) == 0 {
		return nil, fmt.Errorf("batch requires at least one prompt")
	}
	id := uuid.NewString()
	if _, err := s.store.Init(ctx, id, len(prompts)); err != nil {
		return nil, fmt.Errorf("init batch %s: %w", id, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	for offset := 0; offset < len(prompts); offset += s.chunkSize {
		end := offset + s.chunkSize
		if end > len(prompts) {
			end = len(prompts)
		}
		s.processChunk(runCtx, id, prompts[offset:end], run)

		if runCtx.Err() != nil {
			s.log.Error("batch aborted", "batch_id", id, "error", runCtx.Err())
			if err := s.store.Finalize(ctx, id, fmt.Errorf("batch timed out after %s", s.timeout)); err != nil {
				s.log.Error("failed to finalize batch", "batch_id", id, "error", err)
			}
			return s.snapshot(ctx, id)
		}
	}

	if err := s.store.Finalize(ctx, id, nil); err != nil {
		return nil, fmt.Errorf("finalize batch %s: %w", id, err)
	}
	s.log.Info("batch finished", "batch_id", id, "total", len(prompts), "duration", time.Since(start).String())
	return s.snapshot(ctx, id)
}

// Status returns the current snapshot, or nil for unknown/expired batches.
func (s *BatchService) Status(ctx context.Context, id string) (*BatchStatus, error) {
	return s.store.Get(ctx, id)
}

func (s *BatchService) snapshot(ctx context.Context, id string) (*BatchStatus, error) {
	status, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", id, err)
	}
	if status == nil {
		return nil, fmt.Errorf("batch %s vanished from the status store", id)
	}
	return status, nil
}

func (s *BatchService) processChunk(ctx context.Context, id string, chunk []string, run ItemFunc) {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, prompt := range chunk {
		prompt := prompt
		group.Go(func() error {
			result, err := run(groupCtx, prompt)
			if err != nil {
				s.log.Warn("batch item failed", "batch_id", id, "error", err)
				result = map[string]any{"error": err.Error()}
			}
			if storeErr := s.store.RecordItem(groupCtx, id, prompt, result, err != nil); storeErr != nil {
				s.log.Error("failed to record batch item", "batch_id", id, "error", storeErr)
			}
			// Item failures are recorded, not propagated; the group only
			// aborts on context cancellation.
			return nil
		})
	}
	_ = group.Wait()
}
