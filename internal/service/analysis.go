package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/DukeRupert/kaia/internal/ai"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/storage"
)

const (
	// DefaultAnalysisTimeout bounds a single engine call.
	DefaultAnalysisTimeout = 60 * time.Second

	// cleanupTimeout bounds releasing the chart after the request is done.
	cleanupTimeout = 10 * time.Second

	maxTimeframeLength = 16
)

// =============================================================================
// Interface Definition
// =============================================================================

// AnalysisService is the gate in front of the paid analysis engine.
type AnalysisService interface {
	// Analyze runs the engine against an uploaded chart owned by caller.
	//
	// Checks happen in order and all before the engine is called: the
	// upload must exist and belong to caller, the balance must allow a
	// debit (domain.EINSUFFICIENTCREDITS), and the variant must be open to
	// caller's tier. A restricted variant is not an error; it returns an
	// outcome with Status OutcomeUpgradeRequired.
	//
	// An engine failure or timeout returns domain.EUNAVAILABLE and leaves
	// credits and the ledger untouched. On success the debit and the ledger
	// row commit together. Accounts that are whales when the debit runs are
	// not charged.
	//
	// The uploaded chart is deleted on every return path once resolved.
	Analyze(ctx context.Context, caller *domain.Account, params domain.AnalyzeParams) (*domain.AnalysisOutcome, error)
}

// AnalysisConfig tunes the gate.
type AnalysisConfig struct {
	Engine        string        // Provider name, used as a metrics label
	Timeout       time.Duration // Per-call engine timeout
	MaxImageBytes int64         // Largest chart read back from storage
}

// =============================================================================
// Implementation
// =============================================================================

type analysisService struct {
	store    repository.Store
	storage  storage.Storage
	analyzer ai.ChartAnalyzer
	cfg      AnalysisConfig
	now      Clock
	logger   *slog.Logger
}

// NewAnalysisService creates a new AnalysisService instance.
func NewAnalysisService(
	store repository.Store,
	files storage.Storage,
	analyzer ai.ChartAnalyzer,
	cfg AnalysisConfig,
	clock Clock,
	logger *slog.Logger,
) AnalysisService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAnalysisTimeout
	}
	if cfg.Engine == "" {
		cfg.Engine = "unknown"
	}
	return &analysisService{
		store:    store,
		storage:  files,
		analyzer: analyzer,
		cfg:      cfg,
		now:      utcClock(clock),
		logger:   logger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, caller *domain.Account, params domain.AnalyzeParams) (*domain.AnalysisOutcome, error) {
	const op = "AnalysisService.Analyze"

	if caller == nil {
		return nil, domain.Unauthorized(op, "Authentication required")
	}
	if err := normalizeAnalyzeParams(&params); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, domain.ErrorMessage(err))
	}

	// Resolve the upload. Someone else's chart is reported as missing.
	row, err := s.store.GetChartUploadByFilename(ctx, params.Filename)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "chart", params.Filename)
		}
		return nil, domain.Internal(err, op, "Failed to load chart")
	}
	if row.AccountID != caller.ID {
		return nil, domain.NotFound(op, "chart", params.Filename)
	}
	upload := repoUploadToDomain(row)
	defer s.release(ctx, upload)

	// Re-read the account; the caller snapshot may predate a concurrent debit.
	accountRow, err := s.store.GetAccountByID(ctx, caller.ID)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.Unauthorized(op, "Account no longer exists")
		}
		return nil, domain.Internal(err, op, "Failed to load account")
	}
	account := repoAccountToDomain(accountRow)

	if !account.CanDebit() {
		metrics.AnalysesTotal.WithLabelValues("insufficient_credits").Inc()
		return nil, domain.InsufficientCredits(op)
	}

	if required, ok := domain.RequiredTier(params.Variant); ok && !account.Tier.AtLeast(required) {
		metrics.AnalysesTotal.WithLabelValues(string(domain.OutcomeUpgradeRequired)).Inc()
		return &domain.AnalysisOutcome{
			Status:           domain.OutcomeUpgradeRequired,
			Message:          fmt.Sprintf("The %s analysis is available on the %s plan.", params.Variant, required),
			RequiredTier:     required,
			RemainingCredits: account.Credits,
		}, nil
	}

	image, err := s.readChart(ctx, upload)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, domain.NotFound(op, "chart", params.Filename)
		}
		return nil, domain.Internal(err, op, "Failed to read chart")
	}

	result, err := s.callEngine(ctx, account, upload, image, params)
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("engine_error").Inc()
		s.logger.Warn("analysis engine failed",
			"account_id", account.ID,
			"variant", params.Variant,
			"error", err,
		)
		return nil, domain.AnalysisEngine(err, op)
	}

	record, debit, err := s.commit(ctx, account, params, result.Analysis)
	if err != nil {
		if domain.IsCode(err, domain.EINSUFFICIENTCREDITS) {
			metrics.AnalysesTotal.WithLabelValues("insufficient_credits").Inc()
		}
		return nil, err
	}

	remaining := int(debit.Credits)
	metrics.AnalysesTotal.WithLabelValues(string(domain.OutcomeSuccess)).Inc()
	if !debit.IsWhale {
		metrics.CreditsDebited.Inc()
	}
	metrics.AIUsage(result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.CostCents)

	s.logger.Info("chart analyzed",
		"account_id", account.ID,
		"analysis_id", record.ID,
		"variant", params.Variant,
		"timeframe", params.Timeframe,
		"signal", record.Signal,
		"remaining_credits", remaining,
		"model", result.Usage.Model,
		"duration_ms", result.Usage.Duration.Milliseconds(),
	)

	analysis := domain.ChartAnalysis(result.Analysis)
	return &domain.AnalysisOutcome{
		Status:           domain.OutcomeSuccess,
		Analysis:         &analysis,
		Record:           record,
		RemainingCredits: remaining,
	}, nil
}

func (s *analysisService) callEngine(ctx context.Context, account *domain.Account, upload *domain.ChartUpload, image []byte, params domain.AnalyzeParams) (*ai.ChartResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.analyzer.AnalyzeChart(ctx, ai.AnalyzeChartParams{
		ImageData:   image,
		ContentType: upload.ContentType,
		Timeframe:   params.Timeframe,
		Variant:     string(params.Variant),
		Language:    params.Language,
		AccountID:   account.ID,
	})
	if err == nil && result == nil {
		err = ai.EAIMalformed
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ai.EAITimeout) {
			err = fmt.Errorf("%w: %w", ai.EAITimeout, err)
		}
		metrics.AIAPICalls.WithLabelValues(s.cfg.Engine, "error").Inc()
		return nil, err
	}
	metrics.AIAPICalls.WithLabelValues(s.cfg.Engine, "success").Inc()
	return result, nil
}

// commit debits and records in one transaction. Whether the account pays
// is decided by the row the debit locks, so a tier change made while the
// engine ran is honored.
func (s *analysisService) commit(ctx context.Context, account *domain.Account, params domain.AnalyzeParams, analysis ai.ChartAnalysis) (*domain.AnalysisRecord, repository.DebitCreditRow, error) {
	const op = "AnalysisService.Analyze"

	var (
		record domain.AnalysisRecord
		debit  repository.DebitCreditRow
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		debit, err = q.DebitCredit(ctx, account.ID)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.InsufficientCredits(op)
			}
			return domain.Internal(err, op, "Failed to debit credit")
		}

		row, err := q.CreateAnalysis(ctx, repository.CreateAnalysisParams{
			AccountID: account.ID,
			Subject:   string(params.Variant),
			Signal:    analysis.MarketBias,
			Rationale: analysis.AnalysisText,
			Timeframe: params.Timeframe,
			CreatedAt: s.now(),
		})
		if err != nil {
			return domain.Internal(err, op, "Failed to record analysis")
		}
		record = repoAnalysisToDomain(row)
		return nil
	})
	if err != nil {
		return nil, repository.DebitCreditRow{}, err
	}
	return &record, debit, nil
}

func (s *analysisService) readChart(ctx context.Context, upload *domain.ChartUpload) ([]byte, error) {
	rc, _, err := s.storage.Get(ctx, upload.StorageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := io.Reader(rc)
	if s.cfg.MaxImageBytes > 0 {
		r = io.LimitReader(rc, s.cfg.MaxImageBytes)
	}
	return io.ReadAll(r)
}

// release deletes the chart object and its tracking row. It runs after the
// request context may already be cancelled.
func (s *analysisService) release(ctx context.Context, upload *domain.ChartUpload) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := s.storage.Delete(ctx, upload.StorageKey); err != nil {
		s.logger.Error("failed to delete chart", "key", upload.StorageKey, "error", err)
	}
	if err := s.store.DeleteChartUpload(ctx, upload.ID); err != nil {
		s.logger.Error("failed to delete chart upload row", "upload_id", upload.ID, "error", err)
	}
}

func normalizeAnalyzeParams(p *domain.AnalyzeParams) error {
	p.Filename = strings.TrimSpace(p.Filename)
	p.Timeframe = strings.TrimSpace(p.Timeframe)
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	p.Variant = domain.Variant(strings.TrimSpace(string(p.Variant)))

	if p.Filename == "" {
		return domain.Invalid("", "Filename is required")
	}
	if path.Base(p.Filename) != p.Filename || strings.Contains(p.Filename, "..") {
		return domain.Invalid("", "Filename is not valid")
	}
	if p.Timeframe == "" {
		return domain.Invalid("", "Timeframe is required")
	}
	if len(p.Timeframe) > maxTimeframeLength {
		return domain.Invalid("", "Timeframe is not valid")
	}
	if p.Variant == "" {
		p.Variant = domain.DefaultVariant
	}
	if p.Language == "" {
		p.Language = domain.DefaultLanguage
	}
	return nil
}
