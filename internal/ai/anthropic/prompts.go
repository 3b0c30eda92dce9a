package anthropic

import "github.com/DukeRupert/kaia/internal/ai"

// buildChartPrompt combines the task with the response schema. The Messages
// API has no JSON response mode, so the schema travels in the prompt.
func buildChartPrompt(variant, timeframe string) string {
	return ai.TaskPrompt(variant, timeframe) + "\n\n" + ai.ResponseSchema +
		"\n\nReturn ONLY the JSON object, no additional text or explanation."
}
