package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type AssistantRepo interface {
	Create(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assistant, error)
	GetByAssistantID(ctx context.Context, tx *gorm.DB, assistantID string) (*types.Assistant, error)
	GetAll(ctx context.Context, tx *gorm.DB, onlyActive bool) ([]*types.Assistant, error)
	Update(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error)
	DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type assistantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssistantRepo(db *gorm.DB, baseLog *logger.Logger) AssistantRepo {
	repoLog := baseLog.With("repo", "AssistantRepo")
	return &assistantRepo{db: db, log: repoLog}
}

func (r *assistantRepo) Create(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(assistant).Error; err != nil {
		return nil, err
	}
	return assistant, nil
}

func (r *assistantRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Assistant
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assistantRepo) GetByAssistantID(ctx context.Context, tx *gorm.DB, assistantID string) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Assistant
	if err := transaction.WithContext(ctx).
		Where("assistant_id = ?", assistantID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *assistantRepo) GetAll(ctx context.Context, tx *gorm.DB, onlyActive bool) ([]*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Assistant
	query := transaction.WithContext(ctx)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *assistantRepo) Update(ctx context.Context, tx *gorm.DB, assistant *types.Assistant) (*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Save(assistant).Error; err != nil {
		return nil, err
	}
	return assistant, nil
}

func (r *assistantRepo) DeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Assistant{}).Error
}
