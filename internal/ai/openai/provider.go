// Package openai implements the chart analyzer on OpenAI vision models.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/kaia/internal/ai"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the vision model used when none is configured
	DefaultModel = "gpt-4o-mini"

	// Temperature keeps answers close to deterministic
	Temperature = 0.3

	// MaxImageSize is the largest image accepted (20MB)
	MaxImageSize = 20 * 1024 * 1024

	// Pricing in hundredths of a cent per 1M tokens for gpt-4o-mini
	pricingInputCentiCents  = 1500 // $0.15 per 1M input tokens
	pricingOutputCentiCents = 6000 // $0.60 per 1M output tokens
)

// Config contains configuration for the OpenAI provider
type Config struct {
	APIKey         string
	Model          string
	BaseURL        string // Optional; defaults to the public API
	ProviderConfig ai.ProviderConfig
}

// Provider implements ai.ChartAnalyzer with go-openai
type Provider struct {
	config Config
	client *goopenai.Client
	logger *slog.Logger
}

// New creates a new OpenAI provider
func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	config.ProviderConfig = config.ProviderConfig.WithDefaults()

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.ProviderConfig.RequestTimeout}

	return &Provider{
		config: config,
		client: goopenai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// AnalyzeChart sends the chart as a data URL and asks for a JSON object
func (p *Provider) AnalyzeChart(ctx context.Context, params ai.AnalyzeChartParams) (*ai.ChartResult, error) {
	startTime := time.Now()

	if err := ai.ValidateParams(params, MaxImageSize); err != nil {
		return nil, ai.WrapError("analyze chart", err)
	}

	req := p.buildRequest(params)

	resp, err := p.executeWithRetry(ctx, req)
	if err != nil {
		return nil, ai.WrapError("execute request", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ai.WrapError("parse response", fmt.Errorf("%w: no choices", ai.EAIMalformed))
	}
	analysis, err := ai.ParseChartAnalysis(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, ai.WrapError("parse response", err)
	}

	return &ai.ChartResult{
		Analysis: *analysis,
		Usage: ai.UsageInfo{
			Model:        p.config.Model,
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			CostCents:    calculateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
			Duration:     time.Since(startTime),
		},
	}, nil
}

func (p *Provider) buildRequest(params ai.AnalyzeChartParams) goopenai.ChatCompletionRequest {
	dataURL := fmt.Sprintf("data:%s;base64,%s", params.ContentType, base64.StdEncoding.EncodeToString(params.ImageData))

	return goopenai.ChatCompletionRequest{
		Model:       p.config.Model,
		Temperature: Temperature,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: ai.SystemPrompt(params.Language) + "\n\n" + ai.ResponseSchema,
			},
			{
				Role: goopenai.ChatMessageRoleUser,
				MultiContent: []goopenai.ChatMessagePart{
					{
						Type: goopenai.ChatMessagePartTypeText,
						Text: ai.TaskPrompt(params.Variant, params.Timeframe),
					},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: goopenai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	}
}

// executeWithRetry calls the API with exponential backoff on transient errors
func (p *Provider) executeWithRetry(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	var lastErr error

	for attempt := 1; attempt <= p.config.ProviderConfig.MaxRetries; attempt++ {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = mapError(ctx, err)

		if !ai.IsRetryable(lastErr) || attempt >= p.config.ProviderConfig.MaxRetries {
			break
		}

		delay := ai.Backoff(p.config.ProviderConfig.RetryBaseDelay, attempt)
		p.logger.Info("Retrying AI request", "provider", "openai", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return goopenai.ChatCompletionResponse{}, fmt.Errorf("%w: %v", ai.EAITimeout, ctx.Err())
		}
	}

	return goopenai.ChatCompletionResponse{}, lastErr
}

// mapError converts client errors to provider errors
func mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ai.EAIUnauthorized, err)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ai.EAIRateLimit, err)
	case status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: %v", ai.EAITimeout, err)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %v", ai.EAIInvalidImage, err)
	case status >= 500:
		return fmt.Errorf("%w: %v", ai.EAIUnavailable, err)
	default:
		return fmt.Errorf("API error (status %d): %w", status, err)
	}
}

// calculateCost returns the cost in whole cents, rounded up
func calculateCost(inputTokens, outputTokens int) int {
	centiCents := (inputTokens*pricingInputCentiCents + outputTokens*pricingOutputCentiCents) / 1_000_000
	return (centiCents + 99) / 100
}
