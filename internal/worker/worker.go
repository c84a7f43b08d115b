package worker

import (
	"context"
	"sync"
	"time"

	"github.com/nucleushq/nucleus/internal/usecase"
	"github.com/sirupsen/logrus"
)

// Worker drains queued ideas through the analysis pipeline. The queued
// status in the database is the queue itself, so work survives restarts:
// Run first requeues anything a previous process left in analyzing, then
// alternates between submit nudges and a poll ticker.
type Worker struct {
	uc           *usecase.IdeaUsecase
	concurrency  int
	pollInterval time.Duration
}

func New(uc *usecase.IdeaUsecase, concurrency int, pollInterval time.Duration) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Worker{uc: uc, concurrency: concurrency, pollInterval: pollInterval}
}

// Run blocks until ctx is canceled, then waits for in-flight analyses.
func (w *Worker) Run(ctx context.Context) {
	requeued, err := w.uc.RecoverOrphans()
	if err != nil {
		logrus.Errorf("orphan recovery failed: %v", err)
	} else if requeued > 0 {
		logrus.Infof("requeued %d orphaned ideas", requeued)
	}

	sem := make(chan struct{}, w.concurrency)
	var wg sync.WaitGroup

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		w.drain(ctx, sem, &wg)

		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-w.uc.Notify():
		case <-ticker.C:
		}
	}
}

func (w *Worker) drain(ctx context.Context, sem chan struct{}, wg *sync.WaitGroup) {
	for {
		if ctx.Err() != nil {
			return
		}

		idea, err := w.uc.ClaimNext()
		if err != nil {
			logrus.Errorf("claim queued idea: %v", err)
			return
		}
		if idea == nil {
			return
		}

		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if err := w.uc.Analyze(ctx, idea); err != nil && ctx.Err() == nil {
				logrus.Errorf("analyze idea %s: %v", idea.ID, err)
			}
		}()
	}
}
