package types

import (
	"time"

	"github.com/google/uuid"
)

// Dealer holds the dealership identity that generated copy impersonates.
type Dealer struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Address   string    `gorm:"column:address" json:"address"`
	Phone     string    `gorm:"column:phone" json:"phone"`
	Website   string    `gorm:"column:website" json:"website"`
	Context   string    `gorm:"column:context" json:"context"`
	IsDefault bool      `gorm:"column:is_default;not null;default:false" json:"is_default"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Dealer) TableName() string { return "dealer" }
