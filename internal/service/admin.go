package service

import (
	"context"
	"log/slog"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/storage"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AdminService is the administrative boundary. Every method checks
// caller.Admin first and returns domain.EFORBIDDEN without touching the
// store when it is false.
type AdminService interface {
	// ListAccounts returns all accounts, newest first.
	ListAccounts(ctx context.Context, caller *domain.Account) ([]*domain.Account, error)

	// UpdateAccount applies a patch in a single transaction.
	// Returns domain.EINVALID for an unknown tier or negative credits and
	// domain.ENOTFOUND when the account does not exist.
	UpdateAccount(ctx context.Context, caller *domain.Account, patch domain.AccountPatch) (*domain.Account, error)

	// DeleteAccount removes the account, its ledger rows and its pending
	// chart uploads together, then deletes the uploaded objects.
	// Returns domain.ENOTFOUND when the account does not exist.
	DeleteAccount(ctx context.Context, caller *domain.Account, id uuid.UUID) error

	// Promote makes the account an administrator on the Platinum tier,
	// verified with a window if it has none. credits overrides the Platinum
	// grant when set. Used by the operator CLI; there is no caller to check.
	Promote(ctx context.Context, email string, credits *int) (*domain.Account, error)
}

// =============================================================================
// Implementation
// =============================================================================

type adminService struct {
	store   repository.Store
	storage storage.Storage
	now     Clock
	logger  *slog.Logger
}

// NewAdminService creates a new AdminService instance. A nil clock uses
// time.Now. files may be nil only for callers that never delete accounts.
func NewAdminService(store repository.Store, files storage.Storage, clock Clock, logger *slog.Logger) AdminService {
	return &adminService{
		store:   store,
		storage: files,
		now:     utcClock(clock),
		logger:  logger,
	}
}

func (s *adminService) ListAccounts(ctx context.Context, caller *domain.Account) ([]*domain.Account, error) {
	const op = "AdminService.ListAccounts"

	if err := requireAdmin(caller, op); err != nil {
		return nil, err
	}

	rows, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list accounts")
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		a := repoAccountToDomain(row)
		a.PasswordHash = ""
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// UpdateAccount locks the row, applies the patch in its fixed order
// (tier/credits, verification, renewal, flagging), and writes the result
// back before committing.
func (s *adminService) UpdateAccount(ctx context.Context, caller *domain.Account, patch domain.AccountPatch) (*domain.Account, error) {
	const op = "AdminService.UpdateAccount"

	if err := requireAdmin(caller, op); err != nil {
		return nil, err
	}
	if err := patch.Validate(op); err != nil {
		return nil, err
	}

	var updated *domain.Account
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		row, err := q.GetAccountByIDForUpdate(ctx, patch.AccountID)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.NotFound(op, "account", patch.AccountID.String())
			}
			return domain.Internal(err, op, "Failed to load account")
		}

		account := repoAccountToDomain(row)
		account.ApplyPatch(patch, s.now())

		row, err = q.UpdateAccountEntitlements(ctx, entitlementsParams(account))
		if err != nil {
			return domain.Internal(err, op, "Failed to update account")
		}
		updated = repoAccountToDomain(row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated.PasswordHash = ""
	metrics.AdminActions.WithLabelValues("update").Inc()
	s.logger.Info("account updated",
		"admin_id", caller.ID,
		"account_id", updated.ID,
		"tier", updated.Tier,
		"credits", updated.Credits,
		"verified", updated.Verified,
		"renewed", patch.Renew,
	)

	return updated, nil
}

func (s *adminService) DeleteAccount(ctx context.Context, caller *domain.Account, id uuid.UUID) error {
	const op = "AdminService.DeleteAccount"

	if err := requireAdmin(caller, op); err != nil {
		return err
	}

	// Ledger rows go first; the foreign key cascade covers upload rows, so
	// their objects are collected before the delete and removed after commit.
	var uploads []repository.ChartUpload
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		uploads, err = q.ListChartUploadsByAccount(ctx, id)
		if err != nil {
			return domain.Internal(err, op, "Failed to list chart uploads")
		}
		if _, err := q.DeleteAnalysesByAccount(ctx, id); err != nil {
			return domain.Internal(err, op, "Failed to delete analyses")
		}
		n, err := q.DeleteAccount(ctx, id)
		if err != nil {
			return domain.Internal(err, op, "Failed to delete account")
		}
		if n == 0 {
			return domain.NotFound(op, "account", id.String())
		}
		return nil
	})
	if err != nil {
		return err
	}

	removed := s.removeChartObjects(ctx, uploads)

	metrics.AdminActions.WithLabelValues("delete").Inc()
	s.logger.Info("account deleted",
		"admin_id", caller.ID,
		"account_id", id,
		"charts_removed", removed,
	)
	return nil
}

// removeChartObjects deletes stored charts whose rows are already gone.
// Failures are logged; the account delete has committed either way.
func (s *adminService) removeChartObjects(ctx context.Context, uploads []repository.ChartUpload) int {
	if s.storage == nil || len(uploads) == 0 {
		return 0
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	removed := 0
	for _, u := range uploads {
		if err := s.storage.Delete(ctx, u.StorageKey); err != nil && !storage.IsNotFound(err) {
			s.logger.Error("failed to delete chart", "key", u.StorageKey, "account_id", u.AccountID, "error", err)
			continue
		}
		removed++
	}
	return removed
}

func (s *adminService) Promote(ctx context.Context, email string, credits *int) (*domain.Account, error) {
	const op = "AdminService.Promote"

	if credits != nil {
		if err := domain.CheckCredits(op, *credits); err != nil {
			return nil, err
		}
	}
	email = domain.NormalizeEmail(email)

	var promoted *domain.Account
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		row, err := q.GetAccountByEmail(ctx, email)
		if err != nil {
			if repository.IsNoRows(err) {
				return domain.NotFound(op, "account", email)
			}
			return domain.Internal(err, op, "Failed to load account")
		}

		if err := q.SetAccountAdmin(ctx, repository.SetAccountAdminParams{ID: row.ID, IsAdmin: true}); err != nil {
			return domain.Internal(err, op, "Failed to grant admin")
		}

		account := repoAccountToDomain(row)
		account.SetTier(domain.TierPlatinum)
		account.Credits = domain.DefaultCredits(domain.TierPlatinum)
		if credits != nil {
			account.Credits = *credits
		}
		if !account.Verified {
			account.Verify(s.now())
		}
		if _, err := q.UpdateAccountEntitlements(ctx, entitlementsParams(account)); err != nil {
			return domain.Internal(err, op, "Failed to update entitlements")
		}

		row, err = q.GetAccountByID(ctx, row.ID)
		if err != nil {
			return domain.Internal(err, op, "Failed to reload account")
		}
		promoted = repoAccountToDomain(row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	promoted.PasswordHash = ""
	metrics.AdminActions.WithLabelValues("promote").Inc()
	s.logger.Info("account promoted to admin", "account_id", promoted.ID, "credits", promoted.Credits)
	return promoted, nil
}
