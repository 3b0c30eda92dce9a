package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/DukeRupert/kaia/internal/domain"
	"github.com/DukeRupert/kaia/internal/metrics"
	"github.com/DukeRupert/kaia/internal/repository"
	"github.com/DukeRupert/kaia/internal/storage"
)

const (
	// DefaultUploadMaxBytes is the largest chart accepted.
	DefaultUploadMaxBytes = 10 << 20

	// DefaultChartMaxDimension is the longest side a stored chart may have.
	DefaultChartMaxDimension = 2048
)

// =============================================================================
// Interface Definition
// =============================================================================

// ChartService accepts chart images for later analysis and removes the ones
// nobody analyzed.
type ChartService interface {
	// Upload validates, downscales, and stores a chart owned by caller.
	// Returns domain.ETOOLARGE over the size limit and domain.EINVALID for
	// anything that is not a PNG, JPEG, WebP or GIF image.
	Upload(ctx context.Context, caller *domain.Account, data io.Reader) (*domain.ChartUpload, error)

	// SweepStale deletes up to limit uploads created before cutoff and
	// returns how many were removed.
	SweepStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ChartConfig limits what an upload may be.
type ChartConfig struct {
	MaxBytes     int64
	MaxDimension int
}

// =============================================================================
// Implementation
// =============================================================================

type chartService struct {
	store     repository.Store
	storage   storage.Storage
	processor ImageProcessor
	cfg       ChartConfig
	logger    *slog.Logger
}

// NewChartService creates a new ChartService instance.
func NewChartService(store repository.Store, files storage.Storage, processor ImageProcessor, cfg ChartConfig, logger *slog.Logger) ChartService {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultUploadMaxBytes
	}
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = DefaultChartMaxDimension
	}
	return &chartService{
		store:     store,
		storage:   files,
		processor: processor,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *chartService) Upload(ctx context.Context, caller *domain.Account, data io.Reader) (*domain.ChartUpload, error) {
	const op = "ChartService.Upload"

	if caller == nil {
		return nil, domain.Unauthorized(op, "Authentication required")
	}

	raw, contentType, err := readImage(data, s.cfg.MaxBytes, op)
	if err != nil {
		metrics.ChartUploads.WithLabelValues("rejected").Inc()
		return nil, err
	}

	processed, contentType, err := s.processor.Fit(raw, contentType, s.cfg.MaxDimension)
	if err != nil {
		metrics.ChartUploads.WithLabelValues("rejected").Inc()
		return nil, domain.Wrap(err, domain.EINVALID, op, "File is not a readable image")
	}

	filename := storage.NewChartFilename(storage.ExtensionFor(contentType))
	key := storage.ChartKey(filename)

	if err := s.storage.Put(ctx, key, bytes.NewReader(processed), storage.PutOptions{
		ContentType: contentType,
	}); err != nil {
		metrics.ChartUploads.WithLabelValues("failed").Inc()
		return nil, domain.Internal(err, op, "Failed to store chart")
	}

	row, err := s.store.CreateChartUpload(ctx, repository.CreateChartUploadParams{
		AccountID:   caller.ID,
		StorageKey:  key,
		Filename:    filename,
		ContentType: contentType,
		SizeBytes:   int64(len(processed)),
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to remove orphaned chart", "key", key, "error", delErr)
		}
		metrics.ChartUploads.WithLabelValues("failed").Inc()
		return nil, domain.Internal(err, op, "Failed to record chart")
	}

	metrics.ChartUploads.WithLabelValues("stored").Inc()
	s.logger.Debug("chart uploaded",
		"account_id", caller.ID,
		"filename", filename,
		"content_type", contentType,
		"original_bytes", len(raw),
		"stored_bytes", len(processed),
	)

	return repoUploadToDomain(row), nil
}

func (s *chartService) SweepStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	const op = "ChartService.SweepStale"

	rows, err := s.store.ListStaleChartUploads(ctx, repository.ListStaleChartUploadsParams{
		CreatedAt: cutoff,
		Limit:     int32(limit),
	})
	if err != nil {
		return 0, domain.Internal(err, op, "Failed to list stale uploads")
	}

	removed := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.storage.Delete(ctx, row.StorageKey); err != nil {
			s.logger.Warn("failed to delete stale chart", "key", row.StorageKey, "error", err)
			continue
		}
		if err := s.store.DeleteChartUpload(ctx, row.ID); err != nil {
			s.logger.Warn("failed to delete stale upload row", "upload_id", row.ID, "error", err)
			continue
		}
		removed++
	}

	metrics.SweptUploadsTotal.Add(float64(removed))
	return removed, nil
}

// readImage reads at most maxBytes and checks the sniffed type.
func readImage(data io.Reader, maxBytes int64, op string) ([]byte, string, error) {
	raw, err := io.ReadAll(io.LimitReader(data, maxBytes+1))
	if err != nil {
		return nil, "", domain.Wrap(err, domain.EINVALID, op, "Failed to read upload")
	}
	if int64(len(raw)) > maxBytes {
		return nil, "", domain.Errorf(domain.ETOOLARGE, op, "File exceeds the %d MB limit", maxBytes>>20)
	}
	if len(raw) == 0 {
		return nil, "", domain.Invalid(op, "File is empty")
	}

	contentType := storage.SniffContentType(raw)
	if !storage.IsAllowedImageType(contentType) {
		return nil, "", domain.Invalid(op, "Only PNG, JPEG, WebP and GIF images are accepted")
	}
	return raw, contentType, nil
}
