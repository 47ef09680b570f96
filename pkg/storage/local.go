package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files under root; baseURL is where root is served.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Upload(ctx context.Context, folder string, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := ObjectKey(folder, f.Name)
	dest := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("storage/local: mkdir: %w", err)
	}
	if err := os.WriteFile(dest, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	return s.baseURL + "/" + key, nil
}
