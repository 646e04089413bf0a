package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vehicle is an inventory record used as prompt grounding for generated
// descriptions.
type Vehicle struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DealerID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"dealer_id"`
	Dealer       *Dealer        `gorm:"constraint:OnDelete:CASCADE;foreignKey:DealerID;references:ID" json:"dealer,omitempty"`
	Make         string         `gorm:"column:make;not null" json:"make"`
	Model        string         `gorm:"column:model;not null" json:"model"`
	Year         int            `gorm:"column:year" json:"year"`
	Trim         string         `gorm:"column:trim" json:"trim"`
	Color        string         `gorm:"column:color" json:"color"`
	Mileage      int            `gorm:"column:mileage" json:"mileage"`
	Price        float64        `gorm:"column:price" json:"price"`
	Transmission string         `gorm:"column:transmission" json:"transmission"`
	FuelType     string         `gorm:"column:fuel_type" json:"fuel_type"`
	IsHybrid     bool           `gorm:"column:is_hybrid;not null;default:false" json:"is_hybrid"`
	IsCertified  bool           `gorm:"column:is_certified;not null;default:false" json:"is_certified"`
	VIN          string         `gorm:"column:vin" json:"vin"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Vehicle) TableName() string { return "vehicle" }
