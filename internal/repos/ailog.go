package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type AILogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, log *types.AILog) (*types.AILog, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AILog, error)
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AILog, error)
	MarkTaken(ctx context.Context, tx *gorm.DB, id uuid.UUID, taken bool) error
}

type aiLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAILogRepo(db *gorm.DB, baseLog *logger.Logger) AILogRepo {
	repoLog := baseLog.With("repo", "AILogRepo")
	return &aiLogRepo{db: db, log: repoLog}
}

func (r *aiLogRepo) Create(ctx context.Context, tx *gorm.DB, logRow *types.AILog) (*types.AILog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(logRow).Error; err != nil {
		return nil, err
	}
	return logRow, nil
}

func (r *aiLogRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.AILog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.AILog
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *aiLogRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.AILog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AILog
	query := transaction.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkTaken flips the editorial acceptance flag; the rest of the row stays
// immutable.
func (r *aiLogRepo) MarkTaken(ctx context.Context, tx *gorm.DB, id uuid.UUID, taken bool) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.AILog{}).
		Where("id = ?", id).
		Update("taken_prompt", taken).Error
}
