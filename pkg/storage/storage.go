// Package storage saves uploaded booking documents to the local disk during
// development or to a Google Cloud Storage bucket in production.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyFile = errors.New("storage: empty file")

// Object describes a stored file.
type Object struct {
	Name        string `json:"filename"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

// Store saves a stream under a unique name and can remove it again.
type Store interface {
	Save(ctx context.Context, original string, contentType string, r io.Reader) (Object, error)
	Delete(ctx context.Context, name string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UniqueName prefixes a cleaned version of the original filename with a
// timestamp and a short random id.
func UniqueName(original string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.Trim(unsafeChars.ReplaceAllString(stem, "_"), "_.")
	if stem == "" {
		stem = "file"
	}
	if len(stem) > 60 {
		stem = stem[:60]
	}
	ext = unsafeChars.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}
	return fmt.Sprintf("%s-%s-%s%s", now.Format("20060102-150405"), uuid.NewString()[:8], stem, ext)
}

// Config selects and configures a backend.
type Config struct {
	UseGCS    bool
	Bucket    string
	LocalDir  string
	PublicURL string
}

// New returns the GCS store when configured, the local store otherwise.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.UseGCS {
		if cfg.Bucket == "" {
			return nil, errors.New("storage: GCS enabled but no bucket configured")
		}
		return NewGCSStore(ctx, cfg.Bucket)
	}
	return NewLocalStore(cfg.LocalDir, cfg.PublicURL)
}
