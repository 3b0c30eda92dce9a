package mock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/kaia/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger
	mu     sync.Mutex

	// Configurable responses for testing
	AnalyzeChartResponse *ai.ChartResult
	AnalyzeChartError    error

	// Delay simulates a slow engine. The call honors ctx while waiting.
	Delay time.Duration

	// Call tracking for testing
	AnalyzeChartCalls int
	LastParams        ai.AnalyzeChartParams
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

// AnalyzeChart returns a canned analysis
func (p *Provider) AnalyzeChart(ctx context.Context, params ai.AnalyzeChartParams) (*ai.ChartResult, error) {
	p.mu.Lock()
	p.AnalyzeChartCalls++
	p.LastParams = params
	resp, respErr, delay := p.AnalyzeChartResponse, p.AnalyzeChartError, p.Delay
	p.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ai.WrapError("analyze chart", ai.EAITimeout)
		}
	}

	if respErr != nil {
		return nil, respErr
	}
	if resp != nil {
		out := *resp
		return &out, nil
	}

	if p.logger != nil {
		p.logger.Debug("mock chart analysis", "variant", params.Variant, "timeframe", params.Timeframe)
	}

	return &ai.ChartResult{
		Analysis: ai.ChartAnalysis{
			MarketBias:         "Bullish",
			MarketPhase:        "Markup",
			Confidence:         "Medium",
			AnalysisText:       "Price swept sell-side liquidity below the prior low and closed back inside the range, leaving a fresh bullish order block.",
			RiskNote:           "A close below the order block invalidates the setup.",
			OpportunityContext: "Pullback into the order block on the " + params.Timeframe + " timeframe.",
		},
		Usage: ai.UsageInfo{
			Model:        "mock-ai-v1",
			InputTokens:  1100,
			OutputTokens: 320,
			CostCents:    1,
			Duration:     150 * time.Millisecond,
		},
	}, nil
}

// Calls returns the number of AnalyzeChart calls so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.AnalyzeChartCalls
}

// Reset clears call counters and custom responses for testing
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AnalyzeChartCalls = 0
	p.AnalyzeChartResponse = nil
	p.AnalyzeChartError = nil
	p.Delay = 0
	p.LastParams = ai.AnalyzeChartParams{}
}
