package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/DukeRupert/kaia/internal/auth"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/google/uuid"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// withAccount stands in for the bearer middleware.
func withAccount(r *http.Request, a *domain.Account) *http.Request {
	return r.WithContext(auth.SetAccount(r.Context(), a))
}

func passthrough(next http.Handler) http.Handler { return next }

func serve(mux *http.ServeMux, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, r)
	return rec
}

type fakeAccounts struct {
	registered domain.RegisterParams
	registerFn func(domain.RegisterParams) (*domain.Account, error)
	loginFn    func(email, password string) (*domain.LoginResult, error)
}

func (f *fakeAccounts) Register(_ context.Context, p domain.RegisterParams) (*domain.Account, error) {
	f.registered = p
	return f.registerFn(p)
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (*domain.LoginResult, error) {
	return f.loginFn(email, password)
}

func (f *fakeAccounts) Authenticate(context.Context, string) (*domain.Account, error) {
	return nil, domain.Unauthorized("", "Invalid token")
}

func (f *fakeAccounts) GetByEmail(context.Context, string) (*domain.Account, error) {
	return nil, domain.NotFound("", "account", "")
}

func (f *fakeAccounts) GetByID(context.Context, uuid.UUID) (*domain.Account, error) {
	return nil, domain.NotFound("", "account", "")
}

type fakeLedger struct {
	records []domain.AnalysisRecord
}

func (f *fakeLedger) History(context.Context, uuid.UUID) ([]domain.AnalysisRecord, error) {
	return f.records, nil
}

type fakeAttempts struct {
	failed []string
	resets []string
}

func (f *fakeAttempts) RecordFailedLogin(ip string) { f.failed = append(f.failed, ip) }
func (f *fakeAttempts) ResetLogin(ip string)        { f.resets = append(f.resets, ip) }

type fakeCharts struct {
	received []byte
	err      error
}

func (f *fakeCharts) Upload(_ context.Context, caller *domain.Account, data io.Reader) (*domain.ChartUpload, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	f.received = b
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChartUpload{ID: uuid.New(), AccountID: caller.ID, Filename: "abc.png"}, nil
}

func (f *fakeCharts) SweepStale(context.Context, time.Time, int) (int, error) { return 0, nil }

type fakeAnalyses struct {
	params  domain.AnalyzeParams
	outcome *domain.AnalysisOutcome
	err     error
}

func (f *fakeAnalyses) Analyze(_ context.Context, _ *domain.Account, p domain.AnalyzeParams) (*domain.AnalysisOutcome, error) {
	f.params = p
	return f.outcome, f.err
}

type fakeAdmin struct {
	patch    domain.AccountPatch
	deleted  uuid.UUID
	accounts []*domain.Account
	err      error
}

func (f *fakeAdmin) ListAccounts(context.Context, *domain.Account) ([]*domain.Account, error) {
	return f.accounts, f.err
}

func (f *fakeAdmin) UpdateAccount(_ context.Context, _ *domain.Account, p domain.AccountPatch) (*domain.Account, error) {
	f.patch = p
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Account{ID: p.AccountID, Email: "user@kaia.test", Tier: domain.TierPro, Credits: 40}, nil
}

func (f *fakeAdmin) DeleteAccount(_ context.Context, _ *domain.Account, id uuid.UUID) error {
	f.deleted = id
	return f.err
}

func (f *fakeAdmin) Promote(context.Context, string, *int) (*domain.Account, error) {
	return nil, nil
}

type fakeContent struct {
	lang     string
	location string
	article  domain.ArticleParams
	sponsor  domain.SponsorParams
}

func (f *fakeContent) ListArticles(_ context.Context, lang string) ([]domain.Article, error) {
	f.lang = lang
	return []domain.Article{{ID: uuid.New(), Title: "Gold outlook", Language: "ar"}}, nil
}

func (f *fakeContent) ListSponsors(_ context.Context, location string) ([]domain.Sponsor, error) {
	f.location = location
	return []domain.Sponsor{{ID: uuid.New(), Name: "Broker", Location: "main", Active: true}}, nil
}

func (f *fakeContent) CreateArticle(_ context.Context, _ *domain.Account, p domain.ArticleParams) (*domain.Article, error) {
	f.article = p
	return &domain.Article{ID: uuid.New(), Title: p.Title, Content: p.Content, Language: "ar"}, nil
}

func (f *fakeContent) CreateSponsor(_ context.Context, _ *domain.Account, p domain.SponsorParams) (*domain.Sponsor, error) {
	f.sponsor = p
	return &domain.Sponsor{ID: uuid.New(), Name: p.Name, Active: p.Active, Location: "main"}, nil
}

func (f *fakeContent) UploadArticleImage(context.Context, *domain.Account, io.Reader) (string, error) {
	return "http://files.test/articles/art_1.png", nil
}
