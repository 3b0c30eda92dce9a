package domain

import (
	"time"

	"github.com/google/uuid"
)

// Variant names the analysis strategy requested for a chart.
type Variant string

const (
	VariantSMC    Variant = "SMC"
	VariantMaster Variant = "master"
)

// DefaultVariant is used when the caller names none.
const DefaultVariant = VariantSMC

// VariantRequirements lists the tier an analysis variant is restricted to.
// Variants not listed are open to every tier.
var VariantRequirements = map[Variant]Tier{
	VariantMaster: TierPlatinum,
}

// RequiredTier returns the tier a variant is restricted to, if any.
func RequiredTier(v Variant) (Tier, bool) {
	t, ok := VariantRequirements[v]
	return t, ok
}

// AnalysisRecord is one row of the usage ledger. Records are never updated.
type AnalysisRecord struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Subject   string
	Signal    string
	Rationale string
	Timeframe string
	CreatedAt time.Time
}

// ChartUpload is a transient chart image waiting to be analyzed.
type ChartUpload struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	StorageKey  string
	Filename    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// AnalyzeParams is a request to analyze an uploaded chart.
type AnalyzeParams struct {
	Filename  string
	Timeframe string
	Variant   Variant
	Language  string
}

// ChartAnalysis is the structured result returned by the analysis engine.
type ChartAnalysis struct {
	MarketBias         string `json:"market_bias"`
	MarketPhase        string `json:"market_phase"`
	Confidence         string `json:"confidence"`
	AnalysisText       string `json:"analysis_text"`
	RiskNote           string `json:"risk_note"`
	OpportunityContext string `json:"opportunity_context"`
}

// OutcomeStatus distinguishes a completed analysis from a normal denial.
type OutcomeStatus string

const (
	OutcomeSuccess         OutcomeStatus = "success"
	OutcomeUpgradeRequired OutcomeStatus = "upgrade_required"
)

// AnalysisOutcome is what the analysis gate returns when it does not fail.
type AnalysisOutcome struct {
	Status           OutcomeStatus
	Message          string
	RequiredTier     Tier
	Analysis         *ChartAnalysis
	Record           *AnalysisRecord
	RemainingCredits int
}
