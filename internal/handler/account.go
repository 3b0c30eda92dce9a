package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/service"
	"github.com/google/uuid"
)

// LoginAttempts lets the login handler feed failures back to a rate limiter.
type LoginAttempts interface {
	RecordFailedLogin(ip string)
	ResetLogin(ip string)
}

// AccountHandler serves registration, login, the profile and history.
type AccountHandler struct {
	accounts service.AccountService
	ledger   service.LedgerService
	attempts LoginAttempts
	now      func() time.Time
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler. attempts may be nil.
func NewAccountHandler(accounts service.AccountService, ledger service.LedgerService, attempts LoginAttempts, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		ledger:   ledger,
		attempts: attempts,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterRoutes registers account routes.
func (h *AccountHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAccount func(http.Handler) http.Handler,
	limitRegister func(http.Handler) http.Handler,
	limitLogin func(http.Handler) http.Handler,
) {
	mux.Handle("POST /api/register", limitRegister(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/login", limitLogin(http.HandlerFunc(h.Login)))
	mux.Handle("POST /api/token", limitLogin(http.HandlerFunc(h.Login)))
	mux.Handle("GET /api/me", requireAccount(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/history", requireAccount(http.HandlerFunc(h.History)))
}

// =============================================================================
// Request / Response Types
// =============================================================================

type registerRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=32"`
	WhatsApp string `json:"whatsapp" validate:"max=32"`
	Country  string `json:"country" validate:"max=64"`
	Tier     string `json:"tier" validate:"max=32"`
}

func (req *registerRequest) bindForm(form url.Values) {
	req.Email = form.Get("email")
	req.Password = form.Get("password")
	req.FullName = form.Get("full_name")
	req.Phone = form.Get("phone")
	req.WhatsApp = form.Get("whatsapp")
	req.Country = form.Get("country")
	req.Tier = form.Get("tier")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// bindForm accepts the OAuth2 password-grant field name for the email.
func (req *loginRequest) bindForm(form url.Values) {
	req.Email = form.Get("email")
	if req.Email == "" {
		req.Email = form.Get("username")
	}
	req.Password = form.Get("password")
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type accountResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Email              string     `json:"email"`
	FullName           string     `json:"full_name"`
	Phone              string     `json:"phone,omitempty"`
	WhatsApp           string     `json:"whatsapp,omitempty"`
	Country            string     `json:"country,omitempty"`
	Tier               string     `json:"tier"`
	Credits            int        `json:"credits"`
	IsPremium          bool       `json:"is_premium"`
	IsWhale            bool       `json:"is_whale"`
	IsAdmin            bool       `json:"is_admin"`
	IsVerified         bool       `json:"is_verified"`
	VerifiedAt         *time.Time `json:"verified_at"`
	VerificationMethod string     `json:"verification_method,omitempty"`
	RegistrationIP     string     `json:"registration_ip,omitempty"`
	IsFlagged          bool       `json:"is_flagged"`
	SubscriptionStart  *time.Time `json:"subscription_start"`
	SubscriptionEnd    *time.Time `json:"subscription_end"`
	SubscriptionActive bool       `json:"subscription_active"`
	CreatedAt          time.Time  `json:"created_at"`
}

// newAccountResponse renders an account for its owner. Registration IP and
// verification method are only shown to administrators.
func newAccountResponse(a *domain.Account, now time.Time, forAdmin bool) accountResponse {
	resp := accountResponse{
		ID:                 a.ID,
		Email:              a.Email,
		FullName:           a.FullName,
		Phone:              a.Phone,
		WhatsApp:           a.WhatsApp,
		Country:            a.Country,
		Tier:               string(a.Tier),
		Credits:            a.Credits,
		IsPremium:          a.Premium,
		IsWhale:            a.Whale,
		IsAdmin:            a.Admin,
		IsVerified:         a.Verified,
		VerifiedAt:         a.VerifiedAt,
		IsFlagged:          a.Flagged,
		SubscriptionStart:  a.SubscriptionStart,
		SubscriptionEnd:    a.SubscriptionEnd,
		SubscriptionActive: a.SubscriptionActive(now),
		CreatedAt:          a.CreatedAt,
	}
	if forAdmin {
		resp.VerificationMethod = a.VerificationMethod
		resp.RegistrationIP = a.RegistrationIP
	}
	return resp
}

type historyItem struct {
	ID        uuid.UUID `json:"id"`
	Symbol    string    `json:"symbol"`
	Signal    string    `json:"signal"`
	Reason    string    `json:"reason"`
	Timeframe string    `json:"timeframe"`
	CreatedAt time.Time `json:"created_at"`
}

// =============================================================================
// Handlers
// =============================================================================

// Register handles POST /api/register.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "AccountHandler.Register"

	var req registerRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	account, err := h.accounts.Register(r.Context(), domain.RegisterParams{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		Phone:          req.Phone,
		WhatsApp:       req.WhatsApp,
		Country:        req.Country,
		Tier:           req.Tier,
		RegistrationIP: ClientIP(r),
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newAccountResponse(account, h.now(), false))
}

// Login handles POST /api/login and POST /api/token.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "AccountHandler.Login"

	var req loginRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ip := ClientIP(r)
	result, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.attempts != nil && domain.IsCode(err, domain.EUNAUTHORIZED) {
			h.attempts.RecordFailedLogin(ip)
		}
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if h.attempts != nil {
		h.attempts.ResetLogin(ip)
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresAt:   result.ExpiresAt,
	})
}

// Me handles GET /api/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, newAccountResponse(account, h.now(), account.Admin))
}

// History handles GET /api/history.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	account := auth.GetAccountFromRequest(r)
	if account == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	records, err := h.ledger.History(r.Context(), account.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	items := make([]historyItem, 0, len(records))
	for _, rec := range records {
		items = append(items, historyItem{
			ID:        rec.ID,
			Symbol:    rec.Subject,
			Signal:    rec.Signal,
			Reason:    rec.Rationale,
			Timeframe: rec.Timeframe,
			CreatedAt: rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
