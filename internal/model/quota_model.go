package model

import "time"

// SubmissionQuota tracks how many ideas an owner submitted on a given local
// day. One row per (owner, day), incremented atomically so two concurrent
// submissions cannot both slip under the limit.
type SubmissionQuota struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   string    `gorm:"type:varchar(64);uniqueIndex:idx_quota_owner_day" json:"owner_id"`
	Day       string    `gorm:"type:varchar(10);uniqueIndex:idx_quota_owner_day" json:"day"` // YYYY-MM-DD
	Count     int       `gorm:"type:int" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (q *SubmissionQuota) TableName() string {
	return "submission_quotas"
}
