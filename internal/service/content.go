package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/storage"
)

// ContentService manages the public article feed and sponsor placements.
type ContentService interface {
	// ListArticles returns the latest articles in a language.
	ListArticles(ctx context.Context, language string) ([]domain.Article, error)

	// ListSponsors returns the active sponsors at a placement.
	ListSponsors(ctx context.Context, location string) ([]domain.Sponsor, error)

	// CreateArticle publishes an article. Admin only.
	CreateArticle(ctx context.Context, caller *domain.Account, params domain.ArticleParams) (*domain.Article, error)

	// CreateSponsor adds a sponsor placement. Admin only.
	CreateSponsor(ctx context.Context, caller *domain.Account, params domain.SponsorParams) (*domain.Sponsor, error)

	// UploadArticleImage stores an illustration and returns its public URL.
	// Admin only.
	UploadArticleImage(ctx context.Context, caller *domain.Account, data io.Reader) (string, error)
}

type contentService struct {
	store    repository.Store
	storage  storage.Storage
	maxBytes int64
	logger   *slog.Logger
}

// NewContentService creates a new ContentService instance.
func NewContentService(store repository.Store, files storage.Storage, maxBytes int64, logger *slog.Logger) ContentService {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	return &contentService{
		store:    store,
		storage:  files,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (s *contentService) ListArticles(ctx context.Context, language string) ([]domain.Article, error) {
	const op = "ContentService.ListArticles"

	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = domain.DefaultLanguage
	}

	rows, err := s.store.ListArticlesByLanguage(ctx, repository.ListArticlesByLanguageParams{
		Language: language,
		Limit:    domain.ArticlesPerPage,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list articles")
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, r := range rows {
		articles = append(articles, repoArticleToDomain(r))
	}
	return articles, nil
}

func (s *contentService) ListSponsors(ctx context.Context, location string) ([]domain.Sponsor, error) {
	const op = "ContentService.ListSponsors"

	location = strings.TrimSpace(location)
	if location == "" {
		location = domain.DefaultSponsorLocation
	}

	rows, err := s.store.ListActiveSponsorsByLocation(ctx, location)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list sponsors")
	}

	sponsors := make([]domain.Sponsor, 0, len(rows))
	for _, r := range rows {
		sponsors = append(sponsors, repoSponsorToDomain(r))
	}
	return sponsors, nil
}

func (s *contentService) CreateArticle(ctx context.Context, caller *domain.Account, params domain.ArticleParams) (*domain.Article, error) {
	const op = "ContentService.CreateArticle"

	if err := requireAdmin(caller, op); err != nil {
		return nil, err
	}

	trimAll(&params.Title, &params.Summary, &params.Content, &params.ImageURL, &params.Language)
	params.Language = strings.ToLower(params.Language)
	if params.Language == "" {
		params.Language = domain.DefaultLanguage
	}
	if params.Title == "" || params.Content == "" {
		return nil, domain.Invalid(op, "Title and content are required")
	}

	row, err := s.store.CreateArticle(ctx, repository.CreateArticleParams{
		Title:    params.Title,
		Summary:  domain.ToNullString(params.Summary),
		Content:  params.Content,
		ImageUrl: domain.ToNullString(params.ImageURL),
		Language: params.Language,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create article")
	}

	metrics.AdminActions.WithLabelValues("create_article").Inc()
	s.logger.Info("article published", "admin_id", caller.ID, "article_id", row.ID, "language", row.Language)

	article := repoArticleToDomain(row)
	return &article, nil
}

func (s *contentService) CreateSponsor(ctx context.Context, caller *domain.Account, params domain.SponsorParams) (*domain.Sponsor, error) {
	const op = "ContentService.CreateSponsor"

	if err := requireAdmin(caller, op); err != nil {
		return nil, err
	}

	trimAll(&params.Name, &params.ImageURL, &params.LinkURL, &params.Location)
	if params.Location == "" {
		params.Location = domain.DefaultSponsorLocation
	}
	if params.Name == "" || params.ImageURL == "" {
		return nil, domain.Invalid(op, "Name and image URL are required")
	}

	row, err := s.store.CreateSponsor(ctx, repository.CreateSponsorParams{
		Name:     params.Name,
		ImageUrl: params.ImageURL,
		LinkUrl:  domain.ToNullString(params.LinkURL),
		Location: params.Location,
		IsActive: params.Active,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create sponsor")
	}

	metrics.AdminActions.WithLabelValues("create_sponsor").Inc()
	s.logger.Info("sponsor added", "admin_id", caller.ID, "sponsor_id", row.ID, "location", row.Location)

	sponsor := repoSponsorToDomain(row)
	return &sponsor, nil
}

func (s *contentService) UploadArticleImage(ctx context.Context, caller *domain.Account, data io.Reader) (string, error) {
	const op = "ContentService.UploadArticleImage"

	if err := requireAdmin(caller, op); err != nil {
		return "", err
	}

	raw, contentType, err := readImage(data, s.maxBytes, op)
	if err != nil {
		return "", err
	}

	key := storage.ArticleImageKey(storage.ExtensionFor(contentType))
	if err := s.storage.Put(ctx, key, bytes.NewReader(raw), storage.PutOptions{
		ContentType: contentType,
		Public:      true,
	}); err != nil {
		return "", domain.Internal(err, op, "Failed to store image")
	}

	url, err := s.storage.URL(ctx, key, 0)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to build image URL")
	}

	s.logger.Info("article image uploaded", "admin_id", caller.ID, "key", key)
	return url, nil
}

func repoArticleToDomain(a repository.Article) domain.Article {
	return domain.Article{
		ID:        a.ID,
		Title:     a.Title,
		Summary:   domain.NullStringValue(a.Summary),
		Content:   a.Content,
		ImageURL:  domain.NullStringValue(a.ImageUrl),
		Language:  a.Language,
		CreatedAt: a.CreatedAt,
	}
}

func repoSponsorToDomain(s repository.Sponsor) domain.Sponsor {
	return domain.Sponsor{
		ID:        s.ID,
		Name:      s.Name,
		ImageURL:  s.ImageUrl,
		LinkURL:   domain.NullStringValue(s.LinkUrl),
		Location:  s.Location,
		Active:    s.IsActive,
		CreatedAt: s.CreatedAt,
	}
}
