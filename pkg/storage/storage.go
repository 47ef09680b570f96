// Package storage uploads images and returns durable public URLs.
package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/example/gemora/pkg/config"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type Uploader interface {
	// Upload stores f under folder and returns its public URL.
	Upload(ctx context.Context, folder string, f File) (string, error)
}

// New returns the uploader selected by cfg.Driver.
func New(ctx context.Context, cfg *config.StorageConfig) (Uploader, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalRoot, cfg.LocalURL), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.Driver)
	}
}

// ObjectKey builds "<folder>/<slug>-<uuid><ext>" from an original file name.
func ObjectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	name := uuid.New().String() + ext
	if base != "" {
		name = base + "-" + name
	}
	return path.Join(strings.Trim(folder, "/"), name)
}
