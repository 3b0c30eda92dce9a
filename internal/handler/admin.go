package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/service"
	"github.com/google/uuid"
)

// AdminHandler serves account administration and content publishing.
type AdminHandler struct {
	admin    service.AdminService
	content  service.ContentService
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin service.AdminService, content service.ContentService, maxBytes int64, logger *slog.Logger) *AdminHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultUploadMaxBytes
	}
	return &AdminHandler{
		admin:    admin,
		content:  content,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// RegisterRoutes registers admin routes with the provided middleware.
func (h *AdminHandler) RegisterRoutes(
	mux *http.ServeMux,
	requireAdmin func(http.Handler) http.Handler,
) {
	mux.Handle("GET /api/admin/users", requireAdmin(http.HandlerFunc(h.ListUsers)))
	mux.Handle("POST /api/admin/update_user", requireAdmin(http.HandlerFunc(h.UpdateUser)))
	mux.Handle("DELETE /api/admin/delete_user/{id}", requireAdmin(http.HandlerFunc(h.DeleteUser)))
	mux.Handle("POST /api/admin/articles", requireAdmin(http.HandlerFunc(h.CreateArticle)))
	mux.Handle("POST /api/admin/upload-article-image", requireAdmin(http.HandlerFunc(h.UploadArticleImage)))
	mux.Handle("POST /api/admin/sponsors", requireAdmin(http.HandlerFunc(h.CreateSponsor)))
}

// =============================================================================
// Request Types
// =============================================================================

// updateUserRequest is a partial update. Absent fields are left untouched.
type updateUserRequest struct {
	UserID            string  `json:"user_id" validate:"required,uuid"`
	Tier              *string `json:"tier"`
	Credits           *int    `json:"credits" validate:"omitempty,gte=0,lte=2147483647"`
	IsVerified        *bool   `json:"is_verified"`
	RenewSubscription bool    `json:"renew_subscription"`
	IsFlagged         *bool   `json:"is_flagged"`

	// creditsRaw keeps an unparsable form value so it is rejected rather
	// than silently dropped.
	creditsRaw string
}

func (req *updateUserRequest) bindForm(form url.Values) {
	req.UserID = form.Get("user_id")
	if form.Has("tier") && strings.TrimSpace(form.Get("tier")) != "" {
		tier := form.Get("tier")
		req.Tier = &tier
	}
	if raw := strings.TrimSpace(form.Get("credits")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			req.Credits = &n
		} else {
			req.creditsRaw = raw
		}
	}
	req.IsVerified = optionalBool(form, "is_verified")
	req.RenewSubscription = parseBool(form.Get("renew_subscription"))
	req.IsFlagged = optionalBool(form, "is_flagged")
}

// patch converts the request into a domain.AccountPatch.
func (req *updateUserRequest) patch(op string) (domain.AccountPatch, error) {
	if req.creditsRaw != "" {
		return domain.AccountPatch{}, domain.NewValidationError(op, "credits", "Must be a whole number")
	}
	id, err := uuid.Parse(req.UserID)
	if err != nil {
		return domain.AccountPatch{}, domain.NewValidationError(op, "user_id", "Must be a valid id")
	}

	p := domain.AccountPatch{
		AccountID: id,
		Credits:   req.Credits,
		Verified:  req.IsVerified,
		Renew:     req.RenewSubscription,
		Flagged:   req.IsFlagged,
	}
	if req.Tier != nil {
		tier, ok := domain.ParseTier(*req.Tier)
		if !ok {
			return domain.AccountPatch{}, domain.Invalid(op, "Unknown tier")
		}
		p.Tier = &tier
	}
	return p, nil
}

type articleRequest struct {
	Title    string `json:"title" validate:"required,max=300"`
	Summary  string `json:"summary" validate:"max=1000"`
	Content  string `json:"content" validate:"required"`
	ImageURL string `json:"image_url" validate:"omitempty,max=2048"`
	Language string `json:"language" validate:"omitempty,max=8"`
}

func (req *articleRequest) bindForm(form url.Values) {
	req.Title = form.Get("title")
	req.Summary = form.Get("summary")
	req.Content = form.Get("content")
	req.ImageURL = form.Get("image_url")
	req.Language = form.Get("language")
}

type sponsorRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	ImageURL string `json:"image_url" validate:"required,max=2048"`
	LinkURL  string `json:"link_url" validate:"omitempty,url,max=2048"`
	Location string `json:"location" validate:"omitempty,max=32"`
	IsActive *bool  `json:"is_active"`
}

func (req *sponsorRequest) bindForm(form url.Values) {
	req.Name = form.Get("name")
	req.ImageURL = form.Get("image_url")
	req.LinkURL = form.Get("link_url")
	req.Location = form.Get("location")
	req.IsActive = optionalBool(form, "is_active")
}

type articleResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

func newArticleResponse(a domain.Article) articleResponse {
	return articleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Summary:   a.Summary,
		Content:   a.Content,
		ImageURL:  a.ImageURL,
		Language:  a.Language,
		CreatedAt: a.CreatedAt,
	}
}

type sponsorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	LinkURL   string    `json:"link_url"`
	Location  string    `json:"location"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func newSponsorResponse(s domain.Sponsor) sponsorResponse {
	return sponsorResponse{
		ID:        s.ID,
		Name:      s.Name,
		ImageURL:  s.ImageURL,
		LinkURL:   s.LinkURL,
		Location:  s.Location,
		IsActive:  s.Active,
		CreatedAt: s.CreatedAt,
	}
}

// =============================================================================
// Account administration
// =============================================================================

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller := auth.GetAccountFromRequest(r)

	accounts, err := h.admin.ListAccounts(r.Context(), caller)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	now := h.now()
	items := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		items = append(items, newAccountResponse(a, now, true))
	}
	writeJSON(w, http.StatusOK, items)
}

// UpdateUser handles POST /api/admin/update_user.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.UpdateUser"
	caller := auth.GetAccountFromRequest(r)

	var req updateUserRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	patch, err := req.patch(op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	account, err := h.admin.UpdateAccount(r.Context(), caller, patch)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newAccountResponse(account, h.now(), true))
}

// DeleteUser handles DELETE /api/admin/delete_user/{id}.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.DeleteUser"
	caller := auth.GetAccountFromRequest(r)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Invalid account id"))
		return
	}

	if err := h.admin.DeleteAccount(r.Context(), caller, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Content publishing
// =============================================================================

// CreateArticle handles POST /api/admin/articles.
func (h *AdminHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.CreateArticle"
	caller := auth.GetAccountFromRequest(r)

	var req articleRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	article, err := h.content.CreateArticle(r.Context(), caller, domain.ArticleParams{
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		Language: req.Language,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newArticleResponse(*article))
}

// UploadArticleImage handles POST /api/admin/upload-article-image.
func (h *AdminHandler) UploadArticleImage(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.UploadArticleImage"
	caller := auth.GetAccountFromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Image is too large"))
			return
		}
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "file", "An image is required"))
		return
	}
	defer file.Close()

	imageURL, err := h.content.UploadArticleImage(r.Context(), caller, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"url": imageURL})
}

// CreateSponsor handles POST /api/admin/sponsors.
func (h *AdminHandler) CreateSponsor(w http.ResponseWriter, r *http.Request) {
	const op = "AdminHandler.CreateSponsor"
	caller := auth.GetAccountFromRequest(r)

	var req sponsorRequest
	if err := decodeRequest(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	sponsor, err := h.content.CreateSponsor(r.Context(), caller, domain.SponsorParams{
		Name:     req.Name,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Location: req.Location,
		Active:   active,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSponsorResponse(*sponsor))
}
