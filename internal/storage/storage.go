// Package storage provides object storage for chart uploads and article
// images.
//
// LocalStorage keeps files on disk for development; R2Storage talks to
// Cloudflare R2 (or any S3-compatible bucket) in production.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Storage defines the object storage operations the services need.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists unless opts.Overwrite,
	// and ErrTooLarge when data exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns a reader for the object (caller must close) and its
	// metadata. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the object. A zero expires asks for a
	// permanent public URL when the backend has one.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string
	MaxSize     int64 // 0 means no limit
	Overwrite   bool
	Public      bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	BasePath string // e.g. "./storage"
	BaseURL  string // e.g. "http://localhost:8080/images"
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string // Custom domain; presigned URLs are used when empty
	Region          string // Defaults to "auto"
	Endpoint        string // Overrides the account endpoint (S3-compatible hosts, tests)
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

const (
	chartPrefix   = "charts/"
	articlePrefix = "articles/"
)

// NewChartFilename returns the public name of a new chart upload, e.g.
// "3f0c...e1.png". The name is what clients send back to request analysis.
func NewChartFilename(ext string) string {
	return uuid.NewString() + normalizeExt(ext)
}

// ChartKey maps a chart filename to its storage key.
func ChartKey(filename string) string {
	return chartPrefix + filename
}

// ArticleImageKey returns a fresh key for an article illustration.
func ArticleImageKey(ext string) string {
	return fmt.Sprintf("%sart_%s%s", articlePrefix, uuid.NewString(), normalizeExt(ext))
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// validateKey rejects empty keys and traversal attempts.
func validateKey(key string) error {
	if key == "" || strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	return nil
}
