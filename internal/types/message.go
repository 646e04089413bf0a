package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message is an append-only thread entry, ordered by creation time. Rows are
// only removed through cascading thread deletion.
type Message struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	MessageID string         `gorm:"column:message_id;not null;uniqueIndex" json:"message_id"`
	ThreadID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"thread_id"`
	Thread    *Thread        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ThreadID;references:ID" json:"thread,omitempty"`
	Role      string         `gorm:"column:role;not null" json:"role"`
	Content   string         `gorm:"column:content;not null" json:"content"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Message) TableName() string { return "ai_message" }

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
