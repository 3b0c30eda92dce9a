package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChartAnalyzer is the external engine that reads a chart image and returns
// a structured market analysis.
type ChartAnalyzer interface {
	AnalyzeChart(ctx context.Context, params AnalyzeChartParams) (*ChartResult, error)
}

// AnalyzeChartParams contains parameters for chart analysis
type AnalyzeChartParams struct {
	ImageData   []byte    // Raw image bytes
	ContentType string    // MIME type (e.g., "image/png")
	Timeframe   string    // Chart timeframe, e.g. "H4"
	Variant     string    // Analysis strategy, e.g. "SMC"
	Language    string    // Response language code
	AccountID   uuid.UUID // Account ID for tracking
}

// ChartResult is a parsed analysis plus the usage it cost.
type ChartResult struct {
	Analysis ChartAnalysis
	Usage    UsageInfo
}

// ChartAnalysis is the JSON object the model is asked to return.
type ChartAnalysis struct {
	MarketBias         string `json:"market_bias"`
	MarketPhase        string `json:"market_phase"`
	Confidence         string `json:"confidence"`
	AnalysisText       string `json:"analysis_text"`
	RiskNote           string `json:"risk_note"`
	OpportunityContext string `json:"opportunity_context"`
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	CostCents    int           // Estimated cost in cents
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	MaxRetries     int           // Maximum retry attempts for transient errors
	RetryBaseDelay time.Duration // Base delay for exponential backoff
	RequestTimeout time.Duration // Timeout for individual requests
}

// WithDefaults fills unset fields.
func (c ProviderConfig) WithDefaults() ProviderConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 60 * time.Second
	}
	return c
}

// Error codes for AI provider operations
var (
	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAIInvalidImage indicates the image format or content is invalid
	EAIInvalidImage = errors.New("invalid image format or content")

	// EAIContentPolicy indicates the image violates content policy
	EAIContentPolicy = errors.New("image violates content policy")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIMalformed indicates the model answered with something that is not
	// the expected analysis object
	EAIMalformed = errors.New("ai response could not be parsed")
)

// IsRetryable returns true if the error is a transient error that can be retried
func IsRetryable(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// Backoff returns the wait before retry attempt n (1-based).
func Backoff(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(1<<(attempt-1))
}

// SupportedContentTypes lists the image types every provider accepts.
var SupportedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateParams checks the image payload before any network call.
func ValidateParams(params AnalyzeChartParams, maxSize int) error {
	if len(params.ImageData) == 0 {
		return EAIInvalidImage
	}
	if maxSize > 0 && len(params.ImageData) > maxSize {
		return fmt.Errorf("%w: image size %d exceeds maximum %d", EAIInvalidImage, len(params.ImageData), maxSize)
	}
	if !SupportedContentTypes[params.ContentType] {
		return fmt.Errorf("%w: unsupported content type %q", EAIInvalidImage, params.ContentType)
	}
	return nil
}
