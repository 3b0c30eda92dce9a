package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContentFixture(t *testing.T) (*repotest.Store, ContentService, *domain.Account) {
	t.Helper()
	store := repotest.New()
	return store, NewContentService(store, newLocalStorage(t), 0, discardLogger()), seedAdmin(t, store)
}

func TestContent_Articles(t *testing.T) {
	store, svc, admin := newContentFixture(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := svc.CreateArticle(ctx, admin, domain.ArticleParams{Title: "Gold outlook", Content: "body"})
		require.NoError(t, err)
	}
	_, err := svc.CreateArticle(ctx, admin, domain.ArticleParams{Title: "Weekly recap", Content: "body", Language: "EN"})
	require.NoError(t, err)

	arabic, err := svc.ListArticles(ctx, "")
	require.NoError(t, err)
	assert.Len(t, arabic, domain.ArticlesPerPage)

	english, err := svc.ListArticles(ctx, "en")
	require.NoError(t, err)
	require.Len(t, english, 1)
	assert.Equal(t, "Weekly recap", english[0].Title)

	user := seedAccount(t, store, "u@kaia.test", domain.TierBasic, 1)
	_, err = svc.CreateArticle(ctx, user, domain.ArticleParams{Title: "x", Content: "y"})
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))

	_, err = svc.CreateArticle(ctx, admin, domain.ArticleParams{Title: " ", Content: "y"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestContent_Sponsors(t *testing.T) {
	_, svc, admin := newContentFixture(t)
	ctx := context.Background()

	_, err := svc.CreateSponsor(ctx, admin, domain.SponsorParams{Name: "Broker A", ImageURL: "https://cdn/a.png", Active: true})
	require.NoError(t, err)
	_, err = svc.CreateSponsor(ctx, admin, domain.SponsorParams{Name: "Broker B", ImageURL: "https://cdn/b.png", Active: false})
	require.NoError(t, err)
	_, err = svc.CreateSponsor(ctx, admin, domain.SponsorParams{Name: "Broker C", ImageURL: "https://cdn/c.png", Location: "sidebar", Active: true})
	require.NoError(t, err)

	placed, err := svc.ListSponsors(ctx, "")
	require.NoError(t, err)
	require.Len(t, placed, 1)
	assert.Equal(t, "Broker A", placed[0].Name)

	_, err = svc.CreateSponsor(ctx, admin, domain.SponsorParams{Name: "No image"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestContent_UploadArticleImage(t *testing.T) {
	store, svc, admin := newContentFixture(t)
	ctx := context.Background()

	url, err := svc.UploadArticleImage(ctx, admin, bytes.NewReader(pngBytes(t, 8, 8)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/files/articles/art_"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	user := seedAccount(t, store, "u@kaia.test", domain.TierBasic, 1)
	_, err = svc.UploadArticleImage(ctx, user, bytes.NewReader(pngBytes(t, 8, 8)))
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
}
