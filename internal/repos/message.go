package repos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error)
	GetByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int, order string) ([]*types.Message, error)
	LatestByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.Message) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

func (r *messageRepo) GetByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID, limit int, order string) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if strings.ToLower(order) != "asc" {
		order = "desc"
	}
	var results []*types.Message
	query := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at " + order)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *messageRepo) LatestByThreadID(ctx context.Context, tx *gorm.DB, threadID uuid.UUID) (*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Message
	if err := transaction.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at desc").
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
