package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerCounterSafeUnderConcurrency(t *testing.T) {
	s := &GeminiService{circuitBreakerMax: 5}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if n%2 == 0 {
					s.noteFailure()
				} else {
					s.noteSuccess()
				}
				_ = s.breakerOpen()
			}
		}(i)
	}
	wg.Wait()

	s.noteSuccess()
	assert.False(t, s.breakerOpen())
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	s := &GeminiService{circuitBreakerMax: 5, RequestTimeout: time.Second}

	for i := 0; i < 4; i++ {
		s.noteFailure()
	}
	assert.False(t, s.breakerOpen())
	s.noteFailure()
	assert.True(t, s.breakerOpen())

	// An open breaker rejects before any upstream call is attempted.
	_, err := s.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	_, err = s.GenerateEmbedding(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")

	s.noteSuccess()
	assert.False(t, s.breakerOpen())
}
