// Package repotest provides an in-memory repository.Store for service tests.
//
// The store enforces the same rules the SQL schema does: unique normalized
// email, a guarded credit decrement that never goes below zero, and cascading
// deletes from accounts to their analyses and uploads. ExecTx snapshots the
// data and restores it when the callback fails.
package repotest

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store is an in-memory implementation of repository.Store.
type Store struct {
	mu  sync.Mutex
	txs sync.Mutex

	accounts map[uuid.UUID]repository.Account
	analyses map[uuid.UUID]repository.Analysis
	uploads  map[uuid.UUID]repository.ChartUpload
	articles map[uuid.UUID]repository.Article
	sponsors map[uuid.UUID]repository.Sponsor

	// Injected failures
	CreateAnalysisErr error
	DebitCreditErr    error

	// Call counters
	DebitCalls          int
	CreateAnalysisCalls int
	Commits             int
	Rollbacks           int

	Now func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]repository.Account),
		analyses: make(map[uuid.UUID]repository.Analysis),
		uploads:  make(map[uuid.UUID]repository.ChartUpload),
		articles: make(map[uuid.UUID]repository.Article),
		sponsors: make(map[uuid.UUID]repository.Sponsor),
		Now:      time.Now,
	}
}

func (s *Store) now() time.Time {
	return s.Now().UTC()
}

// ExecTx runs fn serially against the store. Changes are discarded when fn
// returns an error.
func (s *Store) ExecTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.txs.Lock()
	defer s.txs.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		s.mu.Lock()
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

type snapshot struct {
	accounts map[uuid.UUID]repository.Account
	analyses map[uuid.UUID]repository.Analysis
	uploads  map[uuid.UUID]repository.ChartUpload
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		accounts: cloneMap(s.accounts),
		analyses: cloneMap(s.analyses),
		uploads:  cloneMap(s.uploads),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = snap.accounts
	s.analyses = snap.analyses
	s.uploads = snap.uploads
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// =============================================================================
// Test helpers
// =============================================================================

// PutAccount inserts or replaces an account row directly.
func (s *Store) PutAccount(a repository.Account) repository.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
		a.UpdatedAt = a.CreatedAt
	}
	s.accounts[a.ID] = a
	return a
}

// Account returns the stored row for id.
func (s *Store) Account(id uuid.UUID) (repository.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

// AnalysisCount returns the number of ledger rows for an account.
func (s *Store) AnalysisCount(accountID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.analyses {
		if a.AccountID == accountID {
			n++
		}
	}
	return n
}

// UploadCount returns the number of stored chart uploads.
func (s *Store) UploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// =============================================================================
// Accounts
// =============================================================================

func (s *Store) CreateAccount(ctx context.Context, arg repository.CreateAccountParams) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == arg.Email {
			return repository.Account{}, &pgconn.PgError{Code: "23505", ConstraintName: "accounts_email_key"}
		}
	}
	now := s.now()
	a := repository.Account{
		ID:             uuid.New(),
		Email:          arg.Email,
		PasswordHash:   arg.PasswordHash,
		FullName:       arg.FullName,
		Phone:          arg.Phone,
		Whatsapp:       arg.Whatsapp,
		Country:        arg.Country,
		Tier:           arg.Tier,
		Credits:        arg.Credits,
		IsPremium:      arg.IsPremium,
		IsWhale:        arg.IsWhale,
		RegistrationIp: arg.RegistrationIp,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return repository.Account{}, sql.ErrNoRows
}

func (s *Store) GetAccountByID(ctx context.Context, id uuid.UUID) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return repository.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (s *Store) GetAccountByIDForUpdate(ctx context.Context, id uuid.UUID) (repository.Account, error) {
	return s.GetAccountByID(ctx, id)
}

func (s *Store) ListAccounts(ctx context.Context) ([]repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateAccountEntitlements(ctx context.Context, arg repository.UpdateAccountEntitlementsParams) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[arg.ID]
	if !ok {
		return repository.Account{}, sql.ErrNoRows
	}
	a.Tier = arg.Tier
	a.Credits = arg.Credits
	a.IsPremium = arg.IsPremium
	a.IsWhale = arg.IsWhale
	a.IsVerified = arg.IsVerified
	a.VerifiedAt = arg.VerifiedAt
	a.VerificationMethod = arg.VerificationMethod
	a.IsFlagged = arg.IsFlagged
	a.SubscriptionStart = arg.SubscriptionStart
	a.SubscriptionEnd = arg.SubscriptionEnd
	a.UpdatedAt = s.now()
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) SetAccountAdmin(ctx context.Context, arg repository.SetAccountAdminParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[arg.ID]
	if !ok {
		return nil
	}
	a.IsAdmin = arg.IsAdmin
	s.accounts[a.ID] = a
	return nil
}

func (s *Store) DebitCredit(ctx context.Context, id uuid.UUID) (repository.DebitCreditRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DebitCalls++
	if s.DebitCreditErr != nil {
		return repository.DebitCreditRow{}, s.DebitCreditErr
	}
	a, ok := s.accounts[id]
	if !ok || (!a.IsWhale && a.Credits <= 0) {
		return repository.DebitCreditRow{}, sql.ErrNoRows
	}
	if !a.IsWhale {
		a.Credits--
		a.UpdatedAt = s.now()
		s.accounts[id] = a
	}
	return repository.DebitCreditRow{Credits: a.Credits, IsWhale: a.IsWhale}, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return 0, nil
	}
	delete(s.accounts, id)
	for k, a := range s.analyses {
		if a.AccountID == id {
			delete(s.analyses, k)
		}
	}
	for k, u := range s.uploads {
		if u.AccountID == id {
			delete(s.uploads, k)
		}
	}
	return 1, nil
}

// =============================================================================
// Analyses
// =============================================================================

func (s *Store) CreateAnalysis(ctx context.Context, arg repository.CreateAnalysisParams) (repository.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateAnalysisCalls++
	if s.CreateAnalysisErr != nil {
		return repository.Analysis{}, s.CreateAnalysisErr
	}
	a := repository.Analysis{
		ID:        uuid.New(),
		AccountID: arg.AccountID,
		Subject:   arg.Subject,
		Signal:    arg.Signal,
		Rationale: arg.Rationale,
		Timeframe: arg.Timeframe,
		CreatedAt: arg.CreatedAt,
	}
	s.analyses[a.ID] = a
	return a, nil
}

func (s *Store) ListAnalysesByAccount(ctx context.Context, accountID uuid.UUID) ([]repository.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Analysis
	for _, a := range s.analyses {
		if a.AccountID == accountID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteAnalysesByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, a := range s.analyses {
		if a.AccountID == accountID {
			delete(s.analyses, k)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Chart uploads
// =============================================================================

func (s *Store) CreateChartUpload(ctx context.Context, arg repository.CreateChartUploadParams) (repository.ChartUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := repository.ChartUpload{
		ID:          uuid.New(),
		AccountID:   arg.AccountID,
		StorageKey:  arg.StorageKey,
		Filename:    arg.Filename,
		ContentType: arg.ContentType,
		SizeBytes:   arg.SizeBytes,
		CreatedAt:   s.now(),
	}
	s.uploads[u.ID] = u
	return u, nil
}

// PutChartUpload inserts an upload row directly, keeping CreatedAt if set.
func (s *Store) PutChartUpload(u repository.ChartUpload) repository.ChartUpload {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.uploads[u.ID] = u
	return u
}

func (s *Store) GetChartUploadByFilename(ctx context.Context, filename string) (repository.ChartUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.uploads {
		if u.Filename == filename {
			return u, nil
		}
	}
	return repository.ChartUpload{}, sql.ErrNoRows
}

func (s *Store) DeleteChartUpload(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uploads, id)
	return nil
}

func (s *Store) ListChartUploadsByAccount(ctx context.Context, accountID uuid.UUID) ([]repository.ChartUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ChartUpload
	for _, u := range s.uploads {
		if u.AccountID == accountID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListStaleChartUploads(ctx context.Context, arg repository.ListStaleChartUploadsParams) ([]repository.ChartUpload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.ChartUpload
	for _, u := range s.uploads {
		if u.CreatedAt.Before(arg.CreatedAt) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if int32(len(out)) > arg.Limit {
		out = out[:arg.Limit]
	}
	return out, nil
}

// =============================================================================
// Content
// =============================================================================

func (s *Store) CreateArticle(ctx context.Context, arg repository.CreateArticleParams) (repository.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := repository.Article{
		ID:        uuid.New(),
		Title:     arg.Title,
		Summary:   arg.Summary,
		Content:   arg.Content,
		ImageUrl:  arg.ImageUrl,
		Language:  arg.Language,
		CreatedAt: s.now(),
	}
	s.articles[a.ID] = a
	return a, nil
}

func (s *Store) ListArticlesByLanguage(ctx context.Context, arg repository.ListArticlesByLanguageParams) ([]repository.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Article
	for _, a := range s.articles {
		if a.Language == arg.Language {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int32(len(out)) > arg.Limit {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (s *Store) CreateSponsor(ctx context.Context, arg repository.CreateSponsorParams) (repository.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp := repository.Sponsor{
		ID:        uuid.New(),
		Name:      arg.Name,
		ImageUrl:  arg.ImageUrl,
		LinkUrl:   arg.LinkUrl,
		Location:  arg.Location,
		IsActive:  arg.IsActive,
		CreatedAt: s.now(),
	}
	s.sponsors[sp.ID] = sp
	return sp, nil
}

func (s *Store) ListActiveSponsorsByLocation(ctx context.Context, location string) ([]repository.Sponsor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.Sponsor
	for _, sp := range s.sponsors {
		if sp.Location == location && sp.IsActive {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
