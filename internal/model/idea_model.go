package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const (
	StatusQueued    = "queued"
	StatusAnalyzing = "analyzing"
	StatusScored    = "scored"
	StatusFailed    = "failed"
)

type Idea struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID        string           `gorm:"type:varchar(64);index" json:"owner_id"`
	OwnerName      string           `gorm:"type:varchar(120)" json:"owner_name"`
	OwnerAvatarURL string           `gorm:"type:text" json:"owner_avatar_url"`
	Title          string           `gorm:"type:varchar(120)" json:"title"`
	Description    string           `gorm:"type:text" json:"description"`
	Status         string           `gorm:"type:varchar(16);index" json:"status"` // queued, analyzing, scored, failed
	Score          *int             `gorm:"type:int" json:"score"`
	Summary        string           `gorm:"type:text" json:"summary"`
	Analysis       string           `gorm:"type:text" json:"analysis"` // raw LLM JSON, owner-visible only
	FailureReason  string           `gorm:"type:text" json:"failure_reason"`
	Embedding      *pgvector.Vector `gorm:"type:vector(3072)" json:"-"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (i *Idea) TableName() string {
	return "ideas"
}

func (i *Idea) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether the idea can no longer change status.
func (i *Idea) Terminal() bool {
	return i.Status == StatusScored || i.Status == StatusFailed
}
