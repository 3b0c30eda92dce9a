package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/repository/repotest"
	"github.com/DukeRupert/kaia/internal/storage"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

func newLocalStorage(t *testing.T) *storage.LocalStorage {
	t.Helper()
	s, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "http://localhost:8080/files"})
	require.NoError(t, err)
	return s
}

// seedAccount stores an account with flags derived from tier.
func seedAccount(t *testing.T, store *repotest.Store, email string, tier domain.Tier, credits int) *domain.Account {
	t.Helper()
	flags := domain.DeriveFlags(tier)
	row := store.PutAccount(repository.Account{
		Email:     email,
		Tier:      string(tier),
		Credits:   int32(credits),
		IsPremium: flags.Premium,
		IsWhale:   flags.Whale,
	})
	return repoAccountToDomain(row)
}

func seedAdmin(t *testing.T, store *repotest.Store) *domain.Account {
	t.Helper()
	row := store.PutAccount(repository.Account{
		Email:     "admin@kaia.test",
		Tier:      string(domain.TierPlatinum),
		Credits:   200,
		IsPremium: true,
		IsWhale:   true,
		IsAdmin:   true,
	})
	return repoAccountToDomain(row)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// seedChart writes a small PNG to files and tracks it for owner.
func seedChart(t *testing.T, store *repotest.Store, files storage.Storage, owner *domain.Account) string {
	t.Helper()
	filename := storage.NewChartFilename(".png")
	key := storage.ChartKey(filename)
	require.NoError(t, files.Put(context.Background(), key, bytes.NewReader(pngBytes(t, 4, 4)), storage.PutOptions{ContentType: "image/png"}))
	store.PutChartUpload(repository.ChartUpload{
		AccountID:   owner.ID,
		StorageKey:  key,
		Filename:    filename,
		ContentType: "image/png",
		SizeBytes:   1,
	})
	return filename
}

func chartExists(t *testing.T, files storage.Storage, filename string) bool {
	t.Helper()
	rc, _, err := files.Get(context.Background(), storage.ChartKey(filename))
	if err != nil {
		require.True(t, storage.IsNotFound(err), "unexpected error: %v", err)
		return false
	}
	rc.Close()
	return true
}
