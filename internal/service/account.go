package service

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so a failed login
// costs the same as a wrong password.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// =============================================================================
// Interface Definition
// =============================================================================

// TokenIssuer signs and validates bearer tokens. *auth.TokenIssuer
// satisfies it.
type TokenIssuer interface {
	Issue(subject string) (string, time.Time, error)
	Subject(token string) (string, error)
}

// AccountService defines account registration, login, and lookup.
type AccountService interface {
	// Register creates a new account with the tier's default credits.
	// Returns domain.ECONFLICT if the normalized email already exists.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.Account, error)

	// Login checks credentials and issues a bearer token.
	// Returns domain.EUNAUTHORIZED for invalid credentials.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// Authenticate resolves a bearer token to its account.
	// Returns domain.EUNAUTHORIZED for expired, malformed, or orphaned tokens.
	Authenticate(ctx context.Context, token string) (*domain.Account, error)

	// GetByEmail returns domain.ENOTFOUND if no account has the email.
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)

	// GetByID returns domain.ENOTFOUND if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

// =============================================================================
// Implementation
// =============================================================================

type accountService struct {
	store  repository.Store
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(store repository.Store, tokens TokenIssuer, logger *slog.Logger) AccountService {
	return &accountService{
		store:  store,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates an unverified account. The requested tier decides the
// opening credit grant and flags; unknown tiers register as Trial.
func (s *accountService) Register(ctx context.Context, params domain.RegisterParams) (*domain.Account, error) {
	const op = "AccountService.Register"

	params.Email = domain.NormalizeEmail(params.Email)
	trimAll(&params.FullName, &params.Phone, &params.WhatsApp, &params.Country)

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, domain.ErrorMessage(err))
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, domain.ErrorMessage(err))
	}

	tier, ok := domain.ParseTier(params.Tier)
	if !ok {
		tier = domain.TierTrial
	}
	flags := domain.DeriveFlags(tier)

	_, err := s.store.GetAccountByEmail(ctx, params.Email)
	if err == nil {
		// Hash anyway so a duplicate costs the same as a new account.
		_, _ = bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
		return nil, domain.DuplicateAccount(op)
	}
	if !repository.IsNoRows(err) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	row, err := s.store.CreateAccount(ctx, repository.CreateAccountParams{
		Email:          params.Email,
		PasswordHash:   string(hash),
		FullName:       domain.ToNullString(params.FullName),
		Phone:          domain.ToNullString(params.Phone),
		Whatsapp:       domain.ToNullString(params.WhatsApp),
		Country:        domain.ToNullString(params.Country),
		Tier:           string(tier),
		Credits:        int32(domain.DefaultCredits(tier)),
		IsPremium:      flags.Premium,
		IsWhale:        flags.Whale,
		RegistrationIp: toInet(params.RegistrationIP),
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, domain.DuplicateAccount(op)
		}
		return nil, domain.Internal(err, op, "Failed to create account")
	}

	account := repoAccountToDomain(row)
	account.PasswordHash = ""

	metrics.AccountsRegistered.WithLabelValues(string(tier)).Inc()
	s.logger.Info("account registered", "account_id", account.ID, "email", account.Email, "tier", account.Tier)

	return account, nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "AccountService.Login"

	email = domain.NormalizeEmail(email)

	row, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if repository.IsNoRows(err) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	token, expiresAt, err := s.tokens.Issue(row.Email)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to issue token")
	}

	account := repoAccountToDomain(row)
	account.PasswordHash = ""

	s.logger.Info("account logged in", "account_id", account.ID)

	return &domain.LoginResult{
		Account:   account,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *accountService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	const op = "AccountService.Authenticate"

	subject, err := s.tokens.Subject(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, domain.Wrap(err, domain.EUNAUTHORIZED, op, "Session expired, please log in again")
		}
		return nil, domain.Wrap(err, domain.EUNAUTHORIZED, op, "Invalid token")
	}

	row, err := s.store.GetAccountByEmail(ctx, domain.NormalizeEmail(subject))
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.Unauthorized(op, "Invalid token")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve account")
	}

	account := repoAccountToDomain(row)
	account.PasswordHash = ""
	return account, nil
}

func (s *accountService) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const op = "AccountService.GetByEmail"

	email = domain.NormalizeEmail(email)
	row, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "account", email)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve account")
	}
	return repoAccountToDomain(row), nil
}

func (s *accountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	const op = "AccountService.GetByID"

	row, err := s.store.GetAccountByID(ctx, id)
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.NotFound(op, "account", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve account")
	}
	return repoAccountToDomain(row), nil
}

// toInet converts a textual address for the INET column. Unparseable input
// is stored as NULL.
func toInet(s string) pqtype.Inet {
	ip := domain.ParseIP(s)
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}
