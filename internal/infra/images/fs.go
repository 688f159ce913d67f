package images

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes images under a local directory that the HTTP server exposes at publicURL.
type FSStore struct {
	basePath  string
	publicURL string
}

func NewFSStore(basePath, publicURL string) *FSStore {
	return &FSStore{basePath: basePath, publicURL: strings.TrimRight(publicURL, "/")}
}

// Root is the directory served as static assets.
func (s *FSStore) Root() string {
	return s.basePath
}

func (s *FSStore) Put(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	clean := filepath.Clean("/" + key)
	path := filepath.Join(s.basePath, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close image: %w", err)
	}
	return s.publicURL + filepath.ToSlash(clean), nil
}
