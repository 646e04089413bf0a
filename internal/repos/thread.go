package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type ThreadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Thread, error)
	GetByThreadID(ctx context.Context, tx *gorm.DB, threadID string) (*types.Thread, error)
	GetByAssistantID(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, onlyActive bool) ([]*types.Thread, error)
	Update(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	repoLog := baseLog.With("repo", "ThreadRepo")
	return &threadRepo{db: db, log: repoLog}
}

func (r *threadRepo) Create(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *threadRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Thread
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *threadRepo) GetByThreadID(ctx context.Context, tx *gorm.DB, threadID string) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Thread
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *threadRepo) GetByAssistantID(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, onlyActive bool) ([]*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Thread
	query := transaction.WithContext(ctx).Where("assistant_id = ?", assistantID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *threadRepo) Update(ctx context.Context, tx *gorm.DB, thread *types.Thread) (*types.Thread, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Save(thread).Error; err != nil {
		return nil, err
	}
	return thread, nil
}

func (r *threadRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Thread{}).Error
}
