package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseChartAnalysis decodes the model's text answer. Markdown code fences
// around the JSON are tolerated. The answer must at least carry a bias and
// an analysis text.
func ParseChartAnalysis(text string) (*ChartAnalysis, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return nil, fmt.Errorf("%w: empty answer", EAIMalformed)
	}

	var out ChartAnalysis
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", EAIMalformed, err)
	}

	out.MarketBias = strings.TrimSpace(out.MarketBias)
	out.AnalysisText = strings.TrimSpace(out.AnalysisText)
	if out.MarketBias == "" || out.AnalysisText == "" {
		return nil, fmt.Errorf("%w: missing market_bias or analysis_text", EAIMalformed)
	}
	return &out, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
