package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/google/uuid"
)

// LedgerService reads the append-only analysis history. Rows are written
// only by AnalysisService inside its debit transaction.
type LedgerService interface {
	// History returns the account's analyses, most recent first. An
	// unknown or deleted account has an empty history.
	History(ctx context.Context, accountID uuid.UUID) ([]domain.AnalysisRecord, error)
}

type ledgerService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewLedgerService creates a new LedgerService instance.
func NewLedgerService(store repository.Store, logger *slog.Logger) LedgerService {
	return &ledgerService{store: store, logger: logger}
}

func (s *ledgerService) History(ctx context.Context, accountID uuid.UUID) ([]domain.AnalysisRecord, error) {
	const op = "LedgerService.History"

	rows, err := s.store.ListAnalysesByAccount(ctx, accountID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load history")
	}

	records := make([]domain.AnalysisRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, repoAnalysisToDomain(row))
	}
	return records, nil
}
