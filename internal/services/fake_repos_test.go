package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/types"
)

type fakeAssistantRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*types.Assistant
	byAID map[string]*types.Assistant
}

func newFakeAssistantRepo() *fakeAssistantRepo {
	return &fakeAssistantRepo{
		byID:  map[uuid.UUID]*types.Assistant{},
		byAID: map[string]*types.Assistant{},
	}
}

func (r *fakeAssistantRepo) Create(_ context.Context, _ *gorm.DB, assistant *types.Assistant) (*types.Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assistant.ID == uuid.Nil {
		assistant.ID = uuid.New()
	}
	r.byID[assistant.ID] = assistant
	r.byAID[assistant.AssistantID] = assistant
	return assistant, nil
}

func (r *fakeAssistantRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assistant, ok := r.byID[id]; ok {
		return assistant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAssistantRepo) GetByAssistantID(_ context.Context, _ *gorm.DB, assistantID string) (*types.Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assistant, ok := r.byAID[assistantID]; ok {
		return assistant, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAssistantRepo) GetAll(_ context.Context, _ *gorm.DB, onlyActive bool) ([]*types.Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Assistant
	for _, assistant := range r.byID {
		if onlyActive && !assistant.IsActive {
			continue
		}
		out = append(out, assistant)
	}
	return out, nil
}

func (r *fakeAssistantRepo) Update(_ context.Context, _ *gorm.DB, assistant *types.Assistant) (*types.Assistant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[assistant.ID] = assistant
	r.byAID[assistant.AssistantID] = assistant
	return assistant, nil
}

func (r *fakeAssistantRepo) DeleteByID(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if assistant, ok := r.byID[id]; ok {
		delete(r.byAID, assistant.AssistantID)
		delete(r.byID, id)
	}
	return nil
}

type fakeThreadRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*types.Thread
	byTID map[string]*types.Thread
}

func newFakeThreadRepo() *fakeThreadRepo {
	return &fakeThreadRepo{
		byID:  map[uuid.UUID]*types.Thread{},
		byTID: map[string]*types.Thread{},
	}
}

func (r *fakeThreadRepo) Create(_ context.Context, _ *gorm.DB, thread *types.Thread) (*types.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if thread.ID == uuid.Nil {
		thread.ID = uuid.New()
	}
	r.byID[thread.ID] = thread
	r.byTID[thread.ThreadID] = thread
	return thread, nil
}

func (r *fakeThreadRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if thread, ok := r.byID[id]; ok {
		return thread, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeThreadRepo) GetByThreadID(_ context.Context, _ *gorm.DB, threadID string) (*types.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if thread, ok := r.byTID[threadID]; ok {
		return thread, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeThreadRepo) GetByAssistantID(_ context.Context, _ *gorm.DB, assistantID uuid.UUID, onlyActive bool) ([]*types.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Thread
	for _, thread := range r.byID {
		if thread.AssistantID != assistantID {
			continue
		}
		if onlyActive && !thread.IsActive {
			continue
		}
		out = append(out, thread)
	}
	return out, nil
}

func (r *fakeThreadRepo) Update(_ context.Context, _ *gorm.DB, thread *types.Thread) (*types.Thread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[thread.ID] = thread
	r.byTID[thread.ThreadID] = thread
	return thread, nil
}

func (r *fakeThreadRepo) DeleteByID(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if thread, ok := r.byID[id]; ok {
		delete(r.byTID, thread.ThreadID)
		delete(r.byID, id)
	}
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*types.Message
}

func newFakeMessageRepo() *fakeMessageRepo { return &fakeMessageRepo{} }

func (r *fakeMessageRepo) Create(_ context.Context, _ *gorm.DB, message *types.Message) (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	r.messages = append(r.messages, message)
	return message, nil
}

func (r *fakeMessageRepo) GetByThreadID(_ context.Context, _ *gorm.DB, threadID uuid.UUID, limit int, order string) ([]*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*types.Message
	for _, message := range r.messages {
		if message.ThreadID == threadID {
			out = append(out, message)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) LatestByThreadID(_ context.Context, _ *gorm.DB, threadID uuid.UUID) (*types.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ThreadID == threadID {
			return r.messages[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
