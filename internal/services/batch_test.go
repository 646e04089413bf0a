package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBatchRunReturnsMergedResults(t *testing.T) {
	store := NewMemoryBatchStatusStore(time.Hour)
	service := NewBatchService(testLogger(t), store)

	status, err := service.Run(context.Background(), []string{"a", "b", "c"}, func(_ context.Context, prompt string) (any, error) {
		if prompt == "b" {
			return nil, errors.New("upstream exploded")
		}
		return "result for " + prompt, nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if status.Status != BatchCompleted {
		t.Fatalf("status: want=%s got=%s", BatchCompleted, status.Status)
	}
	if status.Total != 3 || status.Completed != 3 || status.Failed != 1 {
		t.Fatalf("counters: %+v", status)
	}

	if got := status.Items["a"]; got != "result for a" {
		t.Fatalf("item a: %v", got)
	}
	failure, ok := status.Items["b"].(map[string]any)
	if !ok || failure["error"] != "upstream exploded" {
		t.Fatalf("item b must carry its error, got %v", status.Items["b"])
	}
	if status.EndTime == nil || status.Duration < 0 {
		t.Fatalf("finalization fields missing: %+v", status)
	}
}

func TestBatchStatusPollableAfterRun(t *testing.T) {
	store := NewMemoryBatchStatusStore(time.Hour)
	service := NewBatchService(testLogger(t), store)

	final, err := service.Run(context.Background(), []string{"x"}, func(context.Context, string) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for i := 0; i < 3; i++ {
		status, err := service.Status(context.Background(), final.ID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if status.Completed != final.Completed || status.Status != final.Status {
			t.Fatalf("polling changed the snapshot: %+v vs %+v", status, final)
		}
	}
}

func TestBatchUnknownIDReturnsNil(t *testing.T) {
	store := NewMemoryBatchStatusStore(time.Hour)
	service := NewBatchService(testLogger(t), store)

	status, err := service.Status(context.Background(), "nope")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != nil {
		t.Fatalf("unknown batch must be nil, got %+v", status)
	}
}

func TestBatchRequiresPrompts(t *testing.T) {
	service := NewBatchService(testLogger(t), NewMemoryBatchStatusStore(time.Hour))
	if _, err := service.Run(context.Background(), nil, func(context.Context, string) (any, error) {
		return nil, nil
	}); err == nil {
		t.Fatal("empty batch must be rejected")
	}
}

func TestMemoryBatchStoreExpiry(t *testing.T) {
	store := NewMemoryBatchStatusStore(time.Millisecond)
	if _, err := store.Init(context.Background(), "short", 1); err != nil {
		t.Fatalf("init: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	status, err := store.Get(context.Background(), "short")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if status != nil {
		t.Fatalf("expired batch must be gone, got %+v", status)
	}
}
