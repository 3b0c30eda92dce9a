package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DukeRupert/kaia/internal/ai"
	"github.com/DukeRupert/kaia/internal/ai/mock"
	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository/repotest"
	"github.com/DukeRupert/kaia/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gateFixture struct {
	store  *repotest.Store
	files  *storage.LocalStorage
	engine *mock.Provider
	svc    AnalysisService
}

func newGateFixture(t *testing.T, cfg AnalysisConfig) *gateFixture {
	t.Helper()
	store := repotest.New()
	store.Now = fixedClock
	files := newLocalStorage(t)
	engine := mock.New(discardLogger())
	cfg.Engine = "mock"
	return &gateFixture{
		store:  store,
		files:  files,
		engine: engine,
		svc:    NewAnalysisService(store, files, engine, cfg, fixedClock, discardLogger()),
	}
}

func (f *gateFixture) credits(t *testing.T, a *domain.Account) int {
	t.Helper()
	row, ok := f.store.Account(a.ID)
	require.True(t, ok)
	return int(row.Credits)
}

func TestAnalyze_DebitsOneCreditAndRecords(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 1)
	filename := seedChart(t, f.store, f.files, account)

	out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H4"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, out.Status)
	assert.Equal(t, 0, out.RemainingCredits)
	require.NotNil(t, out.Analysis)
	assert.Equal(t, "Bullish", out.Analysis.MarketBias)

	require.NotNil(t, out.Record)
	assert.Equal(t, "SMC", out.Record.Subject)
	assert.Equal(t, "Bullish", out.Record.Signal)
	assert.Equal(t, "H4", out.Record.Timeframe)
	assert.Equal(t, testNow, out.Record.CreatedAt)

	assert.Equal(t, 0, f.credits(t, account))
	assert.Equal(t, 1, f.store.AnalysisCount(account.ID))
	assert.Equal(t, 1, f.engine.Calls())

	assert.False(t, chartExists(t, f.files, filename), "chart must be released")
	assert.Equal(t, 0, f.store.UploadCount())
}

func TestAnalyze_PassesDefaultsToEngine(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "pro@kaia.test", domain.TierPro, 5)
	filename := seedChart(t, f.store, f.files, account)

	_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "D1"})
	require.NoError(t, err)

	p := f.engine.LastParams
	assert.Equal(t, "SMC", p.Variant)
	assert.Equal(t, "ar", p.Language)
	assert.Equal(t, "D1", p.Timeframe)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, account.ID, p.AccountID)
	assert.NotEmpty(t, p.ImageData)
}

func TestAnalyze_NoCreditsRejectedBeforeEngine(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "empty@kaia.test", domain.TierBasic, 0)
	filename := seedChart(t, f.store, f.files, account)

	out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, domain.EINSUFFICIENTCREDITS, domain.ErrorCode(err))

	assert.Equal(t, 0, f.engine.Calls(), "engine must not be called")
	assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
	assert.Equal(t, 0, f.credits(t, account))
	assert.False(t, chartExists(t, f.files, filename))
}

func TestAnalyze_SecondRequestAfterLastCredit(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 1)

	_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: seedChart(t, f.store, f.files, account), Timeframe: "H1"})
	require.NoError(t, err)

	// account still carries credits=1 from before; the gate must re-read it
	_, err = f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: seedChart(t, f.store, f.files, account), Timeframe: "H1"})
	assert.Equal(t, domain.EINSUFFICIENTCREDITS, domain.ErrorCode(err))
	assert.Equal(t, 1, f.engine.Calls())
	assert.Equal(t, 1, f.store.AnalysisCount(account.ID))
}

func TestAnalyze_WhaleIsNotDebited(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "whale@kaia.test", domain.TierPlatinum, 0)
	filename := seedChart(t, f.store, f.files, account)

	out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeSuccess, out.Status)
	assert.Equal(t, 0, out.RemainingCredits)
	assert.Equal(t, 0, f.credits(t, account))
	assert.Equal(t, 1, f.store.AnalysisCount(account.ID))
}

// duringCall runs hook while the engine is working, before it answers.
type duringCall struct {
	ai.ChartAnalyzer
	hook func()
}

func (d duringCall) AnalyzeChart(ctx context.Context, params ai.AnalyzeChartParams) (*ai.ChartResult, error) {
	d.hook()
	return d.ChartAnalyzer.AnalyzeChart(ctx, params)
}

func TestAnalyze_DowngradeDuringEngineCallIsCharged(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "whale@kaia.test", domain.TierPlatinum, 200)
	filename := seedChart(t, f.store, f.files, account)

	engine := duringCall{ChartAnalyzer: f.engine, hook: func() {
		row, ok := f.store.Account(account.ID)
		require.True(t, ok)
		flags := domain.DeriveFlags(domain.TierBasic)
		row.Tier = string(domain.TierBasic)
		row.Credits = 20
		row.IsPremium = flags.Premium
		row.IsWhale = flags.Whale
		f.store.PutAccount(row)
	}}
	svc := NewAnalysisService(f.store, f.files, engine, AnalysisConfig{Engine: "mock"}, fixedClock, discardLogger())

	out, err := svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H4"})
	require.NoError(t, err)

	assert.Equal(t, 19, out.RemainingCredits)
	assert.Equal(t, 19, f.credits(t, account))
	assert.Equal(t, 1, f.store.AnalysisCount(account.ID))
}

func TestAnalyze_DowngradedToEmptyBalanceDuringEngineCall(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "whale@kaia.test", domain.TierPlatinum, 0)
	filename := seedChart(t, f.store, f.files, account)

	engine := duringCall{ChartAnalyzer: f.engine, hook: func() {
		row, ok := f.store.Account(account.ID)
		require.True(t, ok)
		row.Tier = string(domain.TierTrial)
		row.IsPremium = false
		row.IsWhale = false
		f.store.PutAccount(row)
	}}
	svc := NewAnalysisService(f.store, f.files, engine, AnalysisConfig{Engine: "mock"}, fixedClock, discardLogger())

	_, err := svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H4"})
	assert.Equal(t, domain.EINSUFFICIENTCREDITS, domain.ErrorCode(err))
	assert.Equal(t, 0, f.credits(t, account))
	assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
	assert.False(t, chartExists(t, f.files, filename))
}

func TestAnalyze_EngineFailureChangesNothing(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 5)
	filename := seedChart(t, f.store, f.files, account)
	f.engine.AnalyzeChartError = ai.WrapError("analyze chart", ai.EAIUnavailable)

	out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.True(t, errors.Is(err, ai.EAIUnavailable))

	assert.Equal(t, 5, f.credits(t, account))
	assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
	assert.Equal(t, 0, f.store.DebitCalls)
	assert.False(t, chartExists(t, f.files, filename))
	assert.Equal(t, 0, f.store.UploadCount())
}

func TestAnalyze_EngineTimeout(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{Timeout: 20 * time.Millisecond})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 5)
	filename := seedChart(t, f.store, f.files, account)
	f.engine.Delay = time.Second

	_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.True(t, errors.Is(err, ai.EAITimeout))

	assert.Equal(t, 5, f.credits(t, account))
	assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
	assert.False(t, chartExists(t, f.files, filename))
}

func TestAnalyze_CancelledRequestStillReleasesChart(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 5)
	filename := seedChart(t, f.store, f.files, account)
	f.engine.Delay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.svc.Analyze(ctx, account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, 5, f.credits(t, account))
	assert.False(t, chartExists(t, f.files, filename))
	assert.Equal(t, 0, f.store.UploadCount())
}

func TestAnalyze_LedgerFailureRollsBackDebit(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "basic@kaia.test", domain.TierBasic, 2)
	filename := seedChart(t, f.store, f.files, account)
	f.store.CreateAnalysisErr = errors.New("disk full")

	_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
	require.Error(t, err)
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

	assert.Equal(t, 1, f.store.DebitCalls, "debit ran inside the transaction")
	assert.Equal(t, 2, f.credits(t, account), "debit must be rolled back")
	assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
	assert.Equal(t, 1, f.store.Rollbacks)
	assert.Equal(t, 0, f.store.Commits)
}

func TestAnalyze_RestrictedVariant(t *testing.T) {
	t.Run("pro gets upgrade_required", func(t *testing.T) {
		f := newGateFixture(t, AnalysisConfig{})
		account := seedAccount(t, f.store, "pro@kaia.test", domain.TierPro, 10)
		filename := seedChart(t, f.store, f.files, account)

		out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{
			Filename:  filename,
			Timeframe: "H4",
			Variant:   domain.VariantMaster,
		})
		require.NoError(t, err, "upgrade_required is not an error")
		assert.Equal(t, domain.OutcomeUpgradeRequired, out.Status)
		assert.Equal(t, domain.TierPlatinum, out.RequiredTier)
		assert.NotEmpty(t, out.Message)
		assert.Nil(t, out.Analysis)

		assert.Equal(t, 0, f.engine.Calls())
		assert.Equal(t, 10, f.credits(t, account))
		assert.Equal(t, 0, f.store.AnalysisCount(account.ID))
		assert.False(t, chartExists(t, f.files, filename))
	})

	t.Run("platinum runs it", func(t *testing.T) {
		f := newGateFixture(t, AnalysisConfig{})
		account := seedAccount(t, f.store, "whale@kaia.test", domain.TierPlatinum, 200)
		filename := seedChart(t, f.store, f.files, account)

		out, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{
			Filename:  filename,
			Timeframe: "H4",
			Variant:   domain.VariantMaster,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.OutcomeSuccess, out.Status)
		assert.Equal(t, "master", out.Record.Subject)
		assert.Equal(t, 200, out.RemainingCredits)
	})

	t.Run("credits are checked first", func(t *testing.T) {
		f := newGateFixture(t, AnalysisConfig{})
		account := seedAccount(t, f.store, "trial@kaia.test", domain.TierTrial, 0)
		filename := seedChart(t, f.store, f.files, account)

		_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{
			Filename:  filename,
			Timeframe: "H4",
			Variant:   domain.VariantMaster,
		})
		assert.Equal(t, domain.EINSUFFICIENTCREDITS, domain.ErrorCode(err))
	})
}

func TestAnalyze_UploadLookup(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	owner := seedAccount(t, f.store, "owner@kaia.test", domain.TierBasic, 5)
	other := seedAccount(t, f.store, "other@kaia.test", domain.TierBasic, 5)
	filename := seedChart(t, f.store, f.files, owner)

	t.Run("someone else's chart", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), other, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
		assert.True(t, chartExists(t, f.files, filename), "owner's chart must survive")
		assert.Equal(t, 5, f.credits(t, other))
	})

	t.Run("unknown filename", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), owner, domain.AnalyzeParams{Filename: "missing.png", Timeframe: "H1"})
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})

	t.Run("path traversal", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), owner, domain.AnalyzeParams{Filename: "../secret.png", Timeframe: "H1"})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("empty filename", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), owner, domain.AnalyzeParams{})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("blank timeframe", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), owner, domain.AnalyzeParams{Filename: filename, Timeframe: "   "})
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
		assert.True(t, chartExists(t, f.files, filename), "rejected before the upload is resolved")
		assert.Equal(t, 0, f.store.AnalysisCount(owner.ID))
	})

	t.Run("no caller", func(t *testing.T) {
		_, err := f.svc.Analyze(context.Background(), nil, domain.AnalyzeParams{Filename: filename, Timeframe: "H1"})
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	})

	assert.Equal(t, 0, f.engine.Calls())
}

func TestAnalyze_ConcurrentRequestsNeverOverdraw(t *testing.T) {
	f := newGateFixture(t, AnalysisConfig{})
	account := seedAccount(t, f.store, "busy@kaia.test", domain.TierBasic, 3)

	const requests = 10
	filenames := make([]string, requests)
	for i := range filenames {
		filenames[i] = seedChart(t, f.store, f.files, account)
	}

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successes    int
		insufficient int
	)
	for _, name := range filenames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := f.svc.Analyze(context.Background(), account, domain.AnalyzeParams{Filename: name, Timeframe: "H1"})
			mu.Lock()
			defer mu.Unlock()
			switch domain.ErrorCode(err) {
			case "":
				successes++
			case domain.EINSUFFICIENTCREDITS:
				insufficient++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(name)
	}
	wg.Wait()

	assert.Equal(t, 3, successes)
	assert.Equal(t, requests-3, insufficient)
	assert.Equal(t, 0, f.credits(t, account))
	assert.Equal(t, 3, f.store.AnalysisCount(account.ID))
}
