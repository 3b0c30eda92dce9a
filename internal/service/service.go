// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, storage, the
// analysis engine, and domain logic. They are responsible for:
// - Input validation
// - Authorization of administrative callers
// - Transaction coordination
// - Error translation (database errors -> domain errors)
package service

import (
	"strings"
	"time"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Not configurable at runtime; change it here and redeploy.
	BcryptCost = 12

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength is the bcrypt input limit.
	MaxPasswordLength = 72
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func utcClock(c Clock) Clock {
	if c == nil {
		c = time.Now
	}
	return func() time.Time { return c().UTC() }
}

// validate is shared by all services; validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// =============================================================================
// Conversion Helpers
// =============================================================================

// repoAccountToDomain converts a repository.Account to domain.Account.
func repoAccountToDomain(a repository.Account) *domain.Account {
	var ip string
	if a.RegistrationIp.Valid {
		ip = a.RegistrationIp.IPNet.IP.String()
	}

	return &domain.Account{
		ID:                 a.ID,
		Email:              a.Email,
		PasswordHash:       a.PasswordHash,
		FullName:           domain.NullStringValue(a.FullName),
		Phone:              domain.NullStringValue(a.Phone),
		WhatsApp:           domain.NullStringValue(a.Whatsapp),
		Country:            domain.NullStringValue(a.Country),
		Tier:               domain.Tier(a.Tier),
		Credits:            int(a.Credits),
		Premium:            a.IsPremium,
		Whale:              a.IsWhale,
		Admin:              a.IsAdmin,
		Verified:           a.IsVerified,
		VerifiedAt:         domain.NullTimeValue(a.VerifiedAt),
		VerificationMethod: domain.NullStringValue(a.VerificationMethod),
		RegistrationIP:     ip,
		Flagged:            a.IsFlagged,
		SubscriptionStart:  domain.NullTimeValue(a.SubscriptionStart),
		SubscriptionEnd:    domain.NullTimeValue(a.SubscriptionEnd),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

// entitlementsParams maps the mutable administrative fields of an account
// back to the update query.
func entitlementsParams(a *domain.Account) repository.UpdateAccountEntitlementsParams {
	return repository.UpdateAccountEntitlementsParams{
		ID:                 a.ID,
		Tier:               string(a.Tier),
		Credits:            int32(a.Credits),
		IsPremium:          a.Premium,
		IsWhale:            a.Whale,
		IsVerified:         a.Verified,
		VerifiedAt:         domain.ToNullTime(a.VerifiedAt),
		VerificationMethod: domain.ToNullString(a.VerificationMethod),
		IsFlagged:          a.Flagged,
		SubscriptionStart:  domain.ToNullTime(a.SubscriptionStart),
		SubscriptionEnd:    domain.ToNullTime(a.SubscriptionEnd),
	}
}

func repoAnalysisToDomain(a repository.Analysis) domain.AnalysisRecord {
	return domain.AnalysisRecord{
		ID:        a.ID,
		AccountID: a.AccountID,
		Subject:   a.Subject,
		Signal:    a.Signal,
		Rationale: a.Rationale,
		Timeframe: a.Timeframe,
		CreatedAt: a.CreatedAt,
	}
}

func repoUploadToDomain(u repository.ChartUpload) *domain.ChartUpload {
	return &domain.ChartUpload{
		ID:          u.ID,
		AccountID:   u.AccountID,
		StorageKey:  u.StorageKey,
		Filename:    u.Filename,
		ContentType: u.ContentType,
		SizeBytes:   u.SizeBytes,
		CreatedAt:   u.CreatedAt,
	}
}

// =============================================================================
// Validation Helpers
// =============================================================================

// validateEmail checks the address after normalization.
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}
	if err := validate.Var(email, "email,max=254"); err != nil {
		return domain.Invalid("", "Email address is not valid")
	}
	return nil
}

// validatePassword enforces length bounds only.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}
	return nil
}

// requireAdmin is the single authorization check in front of every
// administrative mutation.
func requireAdmin(caller *domain.Account, op string) error {
	if caller == nil {
		return domain.Unauthorized(op, "Authentication required")
	}
	if !caller.Admin {
		return domain.Forbidden(op, "Administrator access required")
	}
	return nil
}

func trimAll(ss ...*string) {
	for _, s := range ss {
		*s = strings.TrimSpace(*s)
	}
}
