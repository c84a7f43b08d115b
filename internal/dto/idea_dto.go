package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/nucleushq/nucleus/internal/model"
)

type SubmitIdeaRequest struct {
	Title       string `json:"title" validate:"required,max=120"`
	Description string `json:"description" validate:"required,max=2000"`
}

type OwnerDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// IdeaDTO is the sanitized idea projection. Analysis carries the raw LLM
// payload and is populated only for the owner's own view.
type IdeaDTO struct {
	ID            uuid.UUID `json:"id"`
	Owner         OwnerDTO  `json:"owner"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	Score         *int      `json:"score"`
	Summary       string    `json:"summary,omitempty"`
	Analysis      string    `json:"analysis,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// LeaderboardEntryDTO is the public projection: never includes the raw
// analysis or the full description.
type LeaderboardEntryDTO struct {
	ID        uuid.UUID `json:"id"`
	Owner     OwnerDTO  `json:"owner"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

func NewIdeaDTO(idea *model.Idea, includeAnalysis bool) IdeaDTO {
	d := IdeaDTO{
		ID: idea.ID,
		Owner: OwnerDTO{
			ID:          idea.OwnerID,
			DisplayName: idea.OwnerName,
			AvatarURL:   idea.OwnerAvatarURL,
		},
		Title:         idea.Title,
		Description:   idea.Description,
		Status:        idea.Status,
		Score:         idea.Score,
		Summary:       idea.Summary,
		FailureReason: idea.FailureReason,
		CreatedAt:     idea.CreatedAt,
		UpdatedAt:     idea.UpdatedAt,
	}
	if includeAnalysis {
		d.Analysis = idea.Analysis
	}
	return d
}

func NewLeaderboardEntryDTO(idea *model.Idea) LeaderboardEntryDTO {
	score := 0
	if idea.Score != nil {
		score = *idea.Score
	}
	return LeaderboardEntryDTO{
		ID: idea.ID,
		Owner: OwnerDTO{
			ID:          idea.OwnerID,
			DisplayName: idea.OwnerName,
			AvatarURL:   idea.OwnerAvatarURL,
		},
		Title:     idea.Title,
		Summary:   idea.Summary,
		Score:     score,
		CreatedAt: idea.CreatedAt,
	}
}
