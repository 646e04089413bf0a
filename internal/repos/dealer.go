package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type DealerRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Dealer, error)
	GetDefault(ctx context.Context, tx *gorm.DB) (*types.Dealer, error)
}

type dealerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDealerRepo(db *gorm.DB, baseLog *logger.Logger) DealerRepo {
	repoLog := baseLog.With("repo", "DealerRepo")
	return &dealerRepo{db: db, log: repoLog}
}

func (r *dealerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Dealer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Dealer
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *dealerRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.Dealer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Dealer
	if err := transaction.WithContext(ctx).
		Where("is_default = ?", true).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
