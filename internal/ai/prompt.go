package ai

import "fmt"

// SystemPrompt frames the model as an institutional analyst answering in lang.
func SystemPrompt(lang string) string {
	return fmt.Sprintf("You are a professional Institutional Analyst. Analyze the chart and return JSON ONLY. Lang: %s", lang)
}

// TaskPrompt names the strategy and timeframe to analyze.
func TaskPrompt(variant, timeframe string) string {
	return fmt.Sprintf("Task: Analyze %s on %s timeframe.", variant, timeframe)
}

// ResponseSchema describes the JSON object expected back.
const ResponseSchema = `Respond with a single JSON object with exactly these string fields:
{
  "market_bias": "Bullish|Bearish|Neutral",
  "market_phase": "Accumulation|Markup|Distribution|Markdown|Ranging",
  "confidence": "High|Medium|Low",
  "analysis_text": "The full reasoning behind the bias",
  "risk_note": "Main risk to the scenario",
  "opportunity_context": "Where an opportunity may form"
}`
