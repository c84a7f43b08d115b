package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nucleushq/nucleus/internal/analysis"
	"github.com/nucleushq/nucleus/internal/dto"
	"github.com/nucleushq/nucleus/internal/model"
	"github.com/nucleushq/nucleus/internal/repository"
	"github.com/nucleushq/nucleus/internal/util"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrDailyLimitReached = errors.New("daily idea limit reached")
	ErrNotFound          = errors.New("idea not found")
	ErrBadTimezone       = errors.New("unknown timezone")
)

const similarIdeasLimit = 5

// Embedder produces embedding vectors for similar-idea search. Optional: a
// nil embedder degrades the feature to empty results.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type IdeaUsecase struct {
	ideaRepo   *repository.IdeaRepository
	quotaRepo  *repository.QuotaRepository
	analyzer   *analysis.Analyzer
	embedder   Embedder
	validate   *validator.Validate
	loc        *time.Location
	dailyLimit int
	notify     chan struct{}
}

func NewIdeaUsecase(ideaRepo *repository.IdeaRepository, quotaRepo *repository.QuotaRepository, analyzer *analysis.Analyzer, embedder Embedder, loc *time.Location, dailyLimit int) *IdeaUsecase {
	return &IdeaUsecase{
		ideaRepo:   ideaRepo,
		quotaRepo:  quotaRepo,
		analyzer:   analyzer,
		embedder:   embedder,
		validate:   validator.New(),
		loc:        loc,
		dailyLimit: dailyLimit,
		notify:     make(chan struct{}, 1),
	}
}

// Notify is the worker's wake-up channel. Submissions nudge it so the queue
// is drained without waiting for the next poll tick.
func (uc *IdeaUsecase) Notify() <-chan struct{} {
	return uc.notify
}

// Submit validates and persists a new idea in queued status. The quota slot
// is consumed atomically before the record is created, so concurrent
// submissions at the boundary cannot exceed the daily limit.
func (uc *IdeaUsecase) Submit(owner dto.OwnerDTO, req dto.SubmitIdeaRequest) (*model.Idea, error) {
	req.Title = util.SanitizeText(req.Title)
	req.Description = util.SanitizeText(req.Description)

	if err := uc.validate.Struct(req); err != nil {
		fields := map[string]string{}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		return nil, util.NewFormError("invalid idea submission", fields)
	}

	day := time.Now().In(uc.loc).Format("2006-01-02")
	ok, err := uc.quotaRepo.TryConsume(owner.ID, day, uc.dailyLimit)
	if err != nil {
		return nil, fmt.Errorf("consume quota: %w", err)
	}
	if !ok {
		return nil, ErrDailyLimitReached
	}

	idea := &model.Idea{
		ID:             uuid.New(),
		OwnerID:        owner.ID,
		OwnerName:      owner.DisplayName,
		OwnerAvatarURL: owner.AvatarURL,
		Title:          req.Title,
		Description:    req.Description,
		Status:         model.StatusQueued,
	}
	if err := uc.ideaRepo.Create(idea); err != nil {
		// Give the slot back: the owner gets nothing for a failed insert.
		if relErr := uc.quotaRepo.Release(owner.ID, day); relErr != nil {
			logrus.Warnf("release quota slot for %s: %v", owner.ID, relErr)
		}
		return nil, fmt.Errorf("create idea: %w", err)
	}

	select {
	case uc.notify <- struct{}{}:
	default:
	}

	return idea, nil
}

// Analyze runs the pipeline for a claimed idea: LLM analysis, scoring,
// summary, then the terminal transition. An analysis error lands the record
// in failed with the diagnostic in failure_reason. A shutdown is the
// exception: the record stays in analyzing so the startup sweep requeues it.
func (uc *IdeaUsecase) Analyze(ctx context.Context, idea *model.Idea) error {
	result, raw, err := uc.analyzer.Analyze(ctx, idea.Description)
	if err != nil {
		if ctx.Err() != nil {
			logrus.Warnf("analysis of idea %s interrupted, left for requeue: %v", idea.ID, err)
			return err
		}
		logrus.Errorf("analysis failed for idea %s: %v", idea.ID, err)
		if markErr := uc.ideaRepo.MarkFailed(idea.ID.String(), err.Error()); markErr != nil {
			return fmt.Errorf("mark failed: %w", markErr)
		}
		return err
	}

	score := analysis.ValidationScore(result.Rubric)
	summary := analysis.Summarize(result)

	if err := uc.ideaRepo.MarkScored(idea.ID.String(), score, summary, raw); err != nil {
		return fmt.Errorf("mark scored: %w", err)
	}
	logrus.Infof("idea %s scored %d", idea.ID, score)

	uc.embedIdea(ctx, idea)
	return nil
}

// embedIdea is best-effort: similar-idea search simply skips records without
// an embedding.
func (uc *IdeaUsecase) embedIdea(ctx context.Context, idea *model.Idea) {
	if uc.embedder == nil {
		return
	}
	vec, err := uc.embedder.GenerateEmbedding(ctx, idea.Description)
	if err != nil {
		logrus.Warnf("embedding failed for idea %s: %v", idea.ID, err)
		return
	}
	if err := uc.ideaRepo.UpdateEmbedding(idea.ID.String(), pgvector.NewVector(vec)); err != nil {
		logrus.Warnf("storing embedding failed for idea %s: %v", idea.ID, err)
	}
}

// ClaimNext hands the worker the next queued idea, already transitioned to
// analyzing. Nil means the queue is empty.
func (uc *IdeaUsecase) ClaimNext() (*model.Idea, error) {
	return uc.ideaRepo.ClaimNextQueued()
}

// RecoverOrphans requeues ideas left in analyzing by a crashed process.
func (uc *IdeaUsecase) RecoverOrphans() (int64, error) {
	return uc.ideaRepo.ResetStaleAnalyzing()
}

// GetIdea returns the sanitized projection; the raw analysis is included
// only when the requester owns the idea.
func (uc *IdeaUsecase) GetIdea(id, requesterID string) (*dto.IdeaDTO, error) {
	idea, err := uc.ideaRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	includeAnalysis := requesterID != "" && requesterID == idea.OwnerID
	d := dto.NewIdeaDTO(idea, includeAnalysis)
	return &d, nil
}

// OwnerIdeas returns the owner's ideas, raw analysis included.
func (uc *IdeaUsecase) OwnerIdeas(ownerID string) ([]dto.IdeaDTO, error) {
	ideas, err := uc.ideaRepo.FindByOwner(ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IdeaDTO, 0, len(ideas))
	for i := range ideas {
		out = append(out, dto.NewIdeaDTO(&ideas[i], true))
	}
	return out, nil
}

func (uc *IdeaUsecase) Leaderboard(limit int) ([]dto.LeaderboardEntryDTO, int64, error) {
	ideas, total, err := uc.ideaRepo.Leaderboard(limit)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]dto.LeaderboardEntryDTO, 0, len(ideas))
	for i := range ideas {
		entries = append(entries, dto.NewLeaderboardEntryDTO(&ideas[i]))
	}
	return entries, total, nil
}

// BestOfDay returns the top entry for the current local day in the requested
// timezone, or nil when no idea was scored today.
func (uc *IdeaUsecase) BestOfDay(tz string) (*dto.LeaderboardEntryDTO, error) {
	loc := uc.loc
	if tz != "" {
		var err error
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, ErrBadTimezone
		}
	}

	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	idea, err := uc.ideaRepo.BestOfDay(start, end)
	if err != nil || idea == nil {
		return nil, err
	}
	entry := dto.NewLeaderboardEntryDTO(idea)
	return &entry, nil
}

// SimilarIdeas returns scored neighbours of the idea by embedding distance.
// Without an embedding (no Gemini key, or embedding still pending) the list
// is empty rather than an error.
func (uc *IdeaUsecase) SimilarIdeas(id string) ([]dto.LeaderboardEntryDTO, error) {
	idea, err := uc.ideaRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entries := []dto.LeaderboardEntryDTO{}
	if idea.Embedding == nil {
		return entries, nil
	}

	neighbours, err := uc.ideaRepo.SearchSimilar(*idea.Embedding, id, similarIdeasLimit)
	if err != nil {
		return nil, err
	}
	for i := range neighbours {
		entries = append(entries, dto.NewLeaderboardEntryDTO(&neighbours[i]))
	}
	return entries, nil
}
