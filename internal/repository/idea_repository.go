package repository

import (
	"errors"
	"time"

	"github.com/nucleushq/nucleus/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

const maxLeaderboardLimit = 100

type IdeaRepository struct {
	db *gorm.DB
}

func NewIdeaRepository(db *gorm.DB) *IdeaRepository {
	return &IdeaRepository{db}
}

func (r *IdeaRepository) Create(idea *model.Idea) error {
	return r.db.Create(idea).Error
}

func (r *IdeaRepository) FindByID(id string) (*model.Idea, error) {
	var idea model.Idea
	err := r.db.First(&idea, "id = ?", id).Error
	return &idea, err
}

func (r *IdeaRepository) FindByOwner(ownerID string) ([]model.Idea, error) {
	var ideas []model.Idea
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&ideas).Error
	return ideas, err
}

// ClaimNextQueued atomically moves the oldest queued idea to analyzing and
// returns it. The conditional UPDATE is the claim; a concurrent worker that
// lost the race gets zero rows affected and tries the next record. Returns
// nil when the queue is empty.
func (r *IdeaRepository) ClaimNextQueued() (*model.Idea, error) {
	for {
		var idea model.Idea
		err := r.db.Where("status = ?", model.StatusQueued).Order("created_at ASC").First(&idea).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		res := r.db.Model(&model.Idea{}).
			Where("id = ? AND status = ?", idea.ID, model.StatusQueued).
			Update("status", model.StatusAnalyzing)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			idea.Status = model.StatusAnalyzing
			return &idea, nil
		}
		// Lost the claim race, look for another queued record.
	}
}

// MarkScored finalizes an analyzing idea. The status guard keeps terminal
// states frozen: a record that already left analyzing is not touched.
func (r *IdeaRepository) MarkScored(id string, score int, summary, rawAnalysis string) error {
	res := r.db.Model(&model.Idea{}).
		Where("id = ? AND status = ?", id, model.StatusAnalyzing).
		Updates(map[string]interface{}{
			"status":   model.StatusScored,
			"score":    score,
			"summary":  summary,
			"analysis": rawAnalysis,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *IdeaRepository) MarkFailed(id string, reason string) error {
	res := r.db.Model(&model.Idea{}).
		Where("id = ? AND status = ?", id, model.StatusAnalyzing).
		Updates(map[string]interface{}{
			"status":         model.StatusFailed,
			"failure_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetStaleAnalyzing requeues records orphaned in analyzing by a previous
// process dying mid-flight. Called once at startup, before workers begin.
func (r *IdeaRepository) ResetStaleAnalyzing() (int64, error) {
	res := r.db.Model(&model.Idea{}).
		Where("status = ?", model.StatusAnalyzing).
		Update("status", model.StatusQueued)
	return res.RowsAffected, res.Error
}

// Leaderboard returns up to limit scored ideas ordered by score, newest
// first on ties, along with the total number of scored ideas. Limit defaults
// to 100 and is hard-capped at 100.
func (r *IdeaRepository) Leaderboard(limit int) ([]model.Idea, int64, error) {
	if limit <= 0 || limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	scored := r.db.Model(&model.Idea{}).
		Where("status = ? AND score IS NOT NULL", model.StatusScored)

	var total int64
	if err := scored.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ideas []model.Idea
	err := r.db.
		Where("status = ? AND score IS NOT NULL", model.StatusScored).
		Order("score DESC, created_at DESC").
		Limit(limit).
		Find(&ideas).Error
	return ideas, total, err
}

// BestOfDay returns the top scored idea created within [start, end), or nil
// when the window is empty.
func (r *IdeaRepository) BestOfDay(start, end time.Time) (*model.Idea, error) {
	var idea model.Idea
	err := r.db.
		Where("status = ? AND score IS NOT NULL AND created_at >= ? AND created_at < ?",
			model.StatusScored, start, end).
		Order("score DESC, created_at DESC").
		First(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

func (r *IdeaRepository) UpdateEmbedding(id string, embedding pgvector.Vector) error {
	return r.db.Model(&model.Idea{}).Where("id = ?", id).Update("embedding", embedding).Error
}

// SearchSimilar finds scored ideas nearest to the embedding, excluding the
// idea itself. Postgres/pgvector only.
func (r *IdeaRepository) SearchSimilar(embedding pgvector.Vector, excludeID string, topK int) ([]model.Idea, error) {
	var ideas []model.Idea
	err := r.db.Raw(`
        SELECT * FROM ideas
        WHERE status = ? AND embedding IS NOT NULL AND id <> ?
        ORDER BY embedding <-> ?
        LIMIT ?
    `, model.StatusScored, excludeID, embedding, topK).Scan(&ideas).Error
	return ideas, err
}
