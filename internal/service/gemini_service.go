package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nucleushq/nucleus/internal/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const geminiEmbeddingModel = "gemini-embedding-001"

// GeminiService talks to the Gemini API for text completion and embeddings.
// Calls are retried with exponential backoff and a consecutive-error circuit
// breaker guards against hammering a failing upstream.
type GeminiService struct {
	Client            *genai.Client
	Model             string
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	circuitBreakerMax int

	// Shared across worker goroutines, so reads and writes go through
	// the atomic.
	consecutiveErrors atomic.Int64
}

func (s *GeminiService) breakerOpen() bool {
	return s.consecutiveErrors.Load() >= int64(s.circuitBreakerMax)
}

func (s *GeminiService) noteFailure() { s.consecutiveErrors.Add(1) }
func (s *GeminiService) noteSuccess() { s.consecutiveErrors.Store(0) }

func NewGeminiService(ctx context.Context) (*GeminiService, error) {
	cfg := config.LoadGeminiConfig()
	apiKey := cfg.APIKey
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiService{
		Client:            client,
		Model:             cfg.Model,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		circuitBreakerMax: 5,
	}, nil
}

func (s *GeminiService) Name() string {
	return "gemini"
}

// Complete generates a text response for the prompt.
func (s *GeminiService) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	if s.breakerOpen() {
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors.Load())
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			logrus.Infof("retry attempt %d/%d for Gemini completion after %v", attempt, s.MaxRetries, delay)

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		genConfig := &genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(0.1)),
		}

		result, err := s.Client.Models.GenerateContent(timeoutCtx, s.Model, genai.Text(prompt), genConfig)

		if err == nil {
			s.noteSuccess()
			if err := validateGenerateResponse(result); err != nil {
				return "", fmt.Errorf("invalid response: %w", err)
			}
			return result.Text(), nil
		}

		lastErr = err

		if !s.isRetryableError(err) {
			logrus.Warnf("non-retryable Gemini error: %v", err)
			s.noteFailure()
			return "", fmt.Errorf("generate content failed: %w", err)
		}

		logrus.Warnf("retryable Gemini error on attempt %d: %v", attempt+1, err)
	}

	s.noteFailure()
	return "", fmt.Errorf("max retries (%d) exceeded for Gemini completion: %w", s.MaxRetries, lastErr)
}

// GenerateEmbedding returns an embedding vector for the text.
func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(trimmed) > 10000 {
		trimmed = trimmed[:10000]
	}

	if s.breakerOpen() {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors.Load())
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmed, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			logrus.Infof("retry attempt %d/%d for Gemini embedding after %v", attempt, s.MaxRetries, delay)

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.EmbedContent(timeoutCtx, geminiEmbeddingModel, content, nil)

		if err == nil {
			s.noteSuccess()
			return validateEmbeddingResponse(result)
		}

		lastErr = err

		if !s.isRetryableError(err) {
			logrus.Warnf("non-retryable Gemini error: %v", err)
			s.noteFailure()
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}

		logrus.Warnf("retryable Gemini error on attempt %d: %v", attempt+1, err)
	}

	s.noteFailure()
	return nil, fmt.Errorf("max retries (%d) exceeded for Gemini embedding: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))

	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)

	return delay
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429:
			return true
		case 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}

	return false
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	embedding := resp.Embeddings[0].Values
	if len(embedding) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, val := range embedding {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}
	return embedding, nil
}
