package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Provider is a completion backend. Implementations live in internal/service.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Analyzer wraps a provider with the pipeline's retry contract: transport
// failures and unparseable responses are retried the same way, with a fixed
// delay between attempts.
type Analyzer struct {
	provider   Provider
	maxRetries int
	retryDelay time.Duration
}

func NewAnalyzer(provider Provider) *Analyzer {
	return &Analyzer{
		provider:   provider,
		maxRetries: 2,
		retryDelay: time.Second,
	}
}

// Analyze sends the idea description to the model and parses the structured
// result. It returns the parsed result and the raw JSON that produced it.
func (a *Analyzer) Analyze(ctx context.Context, description string) (*Result, string, error) {
	var lastErr error

	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.retryDelay):
			case <-ctx.Done():
				return nil, "", fmt.Errorf("analysis canceled during retry: %w", ctx.Err())
			}
		}

		// The last attempt leans on the model with an explicit JSON-only
		// instruction.
		strict := attempt == a.maxRetries
		prompt := BuildPrompt(description, strict)

		text, err := a.provider.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			logrus.Warnf("analysis attempt %d/%d failed (%s): %v", attempt+1, a.maxRetries+1, a.provider.Name(), err)
			continue
		}

		result, raw, err := ParseResult(text)
		if err != nil {
			lastErr = err
			logrus.Warnf("analysis attempt %d/%d returned unparseable content (%s): %v", attempt+1, a.maxRetries+1, a.provider.Name(), err)
			continue
		}

		return result, raw, nil
	}

	return nil, "", fmt.Errorf("analysis failed after %d attempts: %w", a.maxRetries+1, lastErr)
}

// ParseResult extracts the analysis JSON from model output. Models sometimes
// wrap the object in code fences or prose, so the object is located before
// decoding rather than decoded from the full text.
func ParseResult(text string) (*Result, string, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return nil, "", fmt.Errorf("no JSON object in model output")
	}

	if !gjson.Get(raw, "rubric").IsObject() {
		return nil, "", fmt.Errorf("model output missing rubric object")
	}
	if gjson.Get(raw, "one_sentence").String() == "" {
		return nil, "", fmt.Errorf("model output missing one_sentence")
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, "", fmt.Errorf("decode analysis JSON: %w", err)
	}

	return &result, raw, nil
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	candidate := text[start : end+1]
	if !gjson.Valid(candidate) {
		return ""
	}
	return candidate
}
