package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nucleushq/nucleus/internal/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Idea{}, &model.SubmissionQuota{}))
	return db
}

func seedIdea(t *testing.T, db *gorm.DB, status string, score *int, createdAt time.Time) *model.Idea {
	t.Helper()
	idea := &model.Idea{
		ID:          uuid.New(),
		OwnerID:     "owner-1",
		OwnerName:   "Owner One",
		Title:       "Test idea",
		Description: "A description",
		Status:      status,
		Score:       score,
	}
	require.NoError(t, db.Create(idea).Error)
	// CreatedAt is set by gorm; push it to the wanted instant explicitly.
	require.NoError(t, db.Model(idea).UpdateColumn("created_at", createdAt).Error)
	idea.CreatedAt = createdAt
	return idea
}

func intPtr(v int) *int { return &v }
