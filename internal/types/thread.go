package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Thread is a persistent conversation context. A thread belongs to exactly one
// assistant for its lifetime and is never reassigned.
type Thread struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ThreadID    string         `gorm:"column:thread_id;not null;uniqueIndex" json:"thread_id"`
	AssistantID uuid.UUID      `gorm:"type:uuid;not null;index" json:"assistant_id"`
	Assistant   *Assistant     `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssistantID;references:ID" json:"assistant,omitempty"`
	Title       string         `gorm:"column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Thread) TableName() string { return "ai_thread" }
