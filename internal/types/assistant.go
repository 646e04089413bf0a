package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Assistant mirrors a vendor-hosted assistant configuration. The vendor is the
// source of truth for instructions and tools; the local row is a cache and the
// join point for threads.
type Assistant struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssistantID  string         `gorm:"column:assistant_id;not null;uniqueIndex" json:"assistant_id"`
	Name         string         `gorm:"column:name;not null" json:"name"`
	Description  string         `gorm:"column:description" json:"description"`
	Instructions string         `gorm:"column:instructions" json:"instructions"`
	Model        string         `gorm:"column:model;not null" json:"model"`
	Tools        datatypes.JSON `gorm:"column:tools;type:jsonb" json:"tools"`
	HandlerID    string         `gorm:"column:handler_id" json:"handler_id"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Assistant) TableName() string { return "ai_assistant" }
