// Package storage provides the on-disk image store.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// DiskStore keeps image files under a single directory. Names are flat; the
// manager never produces nested paths.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the directory if it does not exist yet.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Storage("create image directory", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, apperrors.Storage("stat image", err)
}

func (s *DiskStore) Write(_ context.Context, name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return apperrors.Storage("write image", err)
	}
	return nil
}

// Remove fails when the file is missing so a dangling reference surfaces
// instead of being silently dropped.
func (s *DiskStore) Remove(_ context.Context, name string) error {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return apperrors.Storage(fmt.Sprintf("remove image %s", name), err)
	}
	return nil
}

func (s *DiskStore) Resolve(name string) string {
	return filepath.Join(s.dir, name)
}
