package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DiskStore writes uploaded files below a local directory. It is the upload
// sink when no MinIO endpoint is configured.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Put writes data to root/key. Keys are generated server side and never
// contain "..".
func (s *DiskStore) Put(_ context.Context, key string, data []byte, _ string) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("disk put %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("disk put %s: %w", key, err)
	}
	return nil
}
