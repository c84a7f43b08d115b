package repository

import (
	"time"

	"github.com/nucleushq/nucleus/internal/model"
	"gorm.io/gorm"
)

type QuotaRepository struct {
	db *gorm.DB
}

func NewQuotaRepository(db *gorm.DB) *QuotaRepository {
	return &QuotaRepository{db}
}

// TryConsume spends one slot of the owner's quota for the given local day.
// The upsert is a single statement, so two concurrent submissions at the
// quota boundary cannot both pass: the conditional UPDATE affects zero rows
// once the count reaches the limit.
func (r *QuotaRepository) TryConsume(ownerID, day string, limit int) (bool, error) {
	if limit < 1 {
		return false, nil
	}

	now := time.Now()
	res := r.db.Exec(`
        INSERT INTO submission_quotas (owner_id, day, count, created_at, updated_at)
        VALUES (?, ?, 1, ?, ?)
        ON CONFLICT (owner_id, day)
        DO UPDATE SET count = submission_quotas.count + 1, updated_at = ?
        WHERE submission_quotas.count < ?
    `, ownerID, day, now, now, now, limit)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Release gives one slot back, for submissions that consumed quota but never
// produced a record. A count already at zero is left alone.
func (r *QuotaRepository) Release(ownerID, day string) error {
	return r.db.Exec(`
        UPDATE submission_quotas SET count = count - 1, updated_at = ?
        WHERE owner_id = ? AND day = ? AND count > 0
    `, time.Now(), ownerID, day).Error
}

// Count returns the number of submissions recorded for the owner on the day.
func (r *QuotaRepository) Count(ownerID, day string) (int, error) {
	var quota model.SubmissionQuota
	err := r.db.Where("owner_id = ? AND day = ?", ownerID, day).First(&quota).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return quota.Count, nil
}
