package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nucleushq/nucleus/internal/config"
	"github.com/tidwall/gjson"
)

const openRouterTimeout = 45 * time.Second

type OpenRouterService struct {
	client *resty.Client
	apiKey string
	model  string
}

func NewOpenRouterService() *OpenRouterService {
	cfg := config.LoadOpenRouterConfig()
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(openRouterTimeout)
	return &OpenRouterService{
		client: client,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
	}
}

func (s *OpenRouterService) Name() string {
	return "openrouter"
}

func (s *OpenRouterService) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+s.apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are an AI evaluating startup ideas. Always answer in JSON."},
				{"role": "user", "content": prompt},
			},
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("openrouter returned status %d", resp.StatusCode())
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("no content in openrouter response")
	}
	return text, nil
}
