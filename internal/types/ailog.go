package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AILog is the audit record: one row per primary query, holding the serialized
// request parameters and raw response. Immutable after creation except for the
// taken_prompt editorial acceptance flag.
type AILog struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Model       string         `gorm:"column:model;not null" json:"model"`
	Task        string         `gorm:"column:task;not null" json:"task"`
	Mode        string         `gorm:"column:mode;not null" json:"mode"`
	Request     datatypes.JSON `gorm:"column:request;type:jsonb" json:"request"`
	Response    datatypes.JSON `gorm:"column:response;type:jsonb" json:"response"`
	TakenPrompt bool           `gorm:"column:taken_prompt;not null;default:false" json:"taken_prompt"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (AILog) TableName() string { return "ai_log" }
