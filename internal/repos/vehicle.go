package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nerdworks/dealerai-backend/internal/platform/logger"
	"github.com/nerdworks/dealerai-backend/internal/types"
)

type VehicleRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Vehicle, error)
}

type vehicleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVehicleRepo(db *gorm.DB, baseLog *logger.Logger) VehicleRepo {
	repoLog := baseLog.With("repo", "VehicleRepo")
	return &vehicleRepo{db: db, log: repoLog}
}

func (r *vehicleRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Vehicle
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *vehicleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Vehicle, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Vehicle
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
