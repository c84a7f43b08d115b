package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nucleushq/nucleus/internal/analysis"
	"github.com/nucleushq/nucleus/internal/dto"
	"github.com/nucleushq/nucleus/internal/model"
	"github.com/nucleushq/nucleus/internal/repository"
	"github.com/nucleushq/nucleus/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const workerAnalysisJSON = `{
  "one_sentence": "Fine.",
  "rubric": {
    "market_size": 3,
    "competition_intensity": 3,
    "novelty": 3,
    "execution_complexity": 3,
    "monetization_clarity": 3
  }
}`

type instantProvider struct{}

func (instantProvider) Name() string { return "instant" }

func (instantProvider) Complete(context.Context, string) (string, error) {
	return workerAnalysisJSON, nil
}

type stallProvider struct{}

func (stallProvider) Name() string { return "stall" }

func (stallProvider) Complete(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newWorkerFixture(t *testing.T, provider analysis.Provider) (*usecase.IdeaUsecase, *repository.IdeaRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Idea{}, &model.SubmissionQuota{}))

	ideaRepo := repository.NewIdeaRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	uc := usecase.NewIdeaUsecase(ideaRepo, quotaRepo, analysis.NewAnalyzer(provider), nil, time.UTC, 100)
	return uc, ideaRepo, db
}

func TestWorkerDrainsQueue(t *testing.T) {
	uc, repo, _ := newWorkerFixture(t, instantProvider{})

	o := dto.OwnerDTO{ID: "user-1", DisplayName: "Ada"}
	var ids []string
	for i := 0; i < 3; i++ {
		idea, err := uc.Submit(o, dto.SubmitIdeaRequest{
			Title:       fmt.Sprintf("idea %d", i),
			Description: "desc",
		})
		require.NoError(t, err)
		ids = append(ids, idea.ID.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(uc, 2, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		for _, id := range ids {
			idea, err := repo.FindByID(id)
			if err != nil || idea.Status != model.StatusScored {
				return false
			}
		}
		return true
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	for _, id := range ids {
		idea, err := repo.FindByID(id)
		require.NoError(t, err)
		require.NotNil(t, idea.Score)
		assert.Equal(t, 54, *idea.Score)
	}
}

func TestWorkerShutdownKeepsInFlightRecoverable(t *testing.T) {
	uc, repo, _ := newWorkerFixture(t, stallProvider{})

	idea, err := uc.Submit(dto.OwnerDTO{ID: "user-1", DisplayName: "Ada"}, dto.SubmitIdeaRequest{
		Title:       "interrupted",
		Description: "desc",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(uc, 1, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		stored, err := repo.FindByID(idea.ID.String())
		return err == nil && stored.Status == model.StatusAnalyzing
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	// Interrupted, not failed: the next startup sweep gets it back.
	stored, err := repo.FindByID(idea.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusAnalyzing, stored.Status)
	assert.Empty(t, stored.FailureReason)

	requeued, err := uc.RecoverOrphans()
	require.NoError(t, err)
	assert.EqualValues(t, 1, requeued)
}

func TestWorkerRecoversOrphansOnStart(t *testing.T) {
	uc, repo, db := newWorkerFixture(t, instantProvider{})

	orphan := &model.Idea{
		ID:          uuid.New(),
		OwnerID:     "user-1",
		Title:       "orphaned",
		Description: "left mid-flight by a dead process",
		Status:      model.StatusAnalyzing,
	}
	require.NoError(t, db.Create(orphan).Error)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(uc, 1, 10*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		idea, err := repo.FindByID(orphan.ID.String())
		return err == nil && idea.Status == model.StatusScored
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	<-done
}
