// Package images decides which file name an entity's image lives under and
// when to call the injected store. Raw file I/O belongs to the Store
// implementation, not here.
package images

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jdmccork/auctionhouse/pkg/apperrors"
)

// Store is the file storage capability the manager drives.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Write(ctx context.Context, name string, data []byte) error
	Remove(ctx context.Context, name string) error
	// Resolve maps a stored name to a path a caller can serve from.
	Resolve(name string) string
}

// Outcome distinguishes a first attach from a replacement.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
)

// extensions maps the accepted sniffed content types to their canonical
// extension. Anything else is rejected.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpeg",
	"image/gif":  ".gif",
}

// Manager owns image naming and replacement for a single entity kind
// (auctions or user profiles).
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// AuctionBaseName returns the stable base name for an auction's image.
func AuctionBaseName(auctionID int64) string {
	return fmt.Sprintf("auction_%d", auctionID)
}

// UserBaseName returns the stable base name for a user's profile image.
func UserBaseName(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// Attach sniffs data, removes the entity's current image if it has one, and
// writes the new file under base plus the sniffed extension. If the target
// name is occupied by an unrelated file, a numeric suffix is appended until a
// free name is found. After a successful return the entity references exactly
// one live file.
func (m *Manager) Attach(ctx context.Context, base string, current *string, data []byte) (string, Outcome, error) {
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", 0, apperrors.Validationf("unsupported image type %q", contentType)
	}

	outcome := OutcomeCreated
	if current != nil && *current != "" {
		if err := m.store.Remove(ctx, *current); err != nil {
			return "", 0, fmt.Errorf("remove previous image %s: %w", *current, err)
		}
		outcome = OutcomeUpdated
	}

	name, err := m.freeName(ctx, base, ext)
	if err != nil {
		return "", 0, err
	}

	if err := m.store.Write(ctx, name, data); err != nil {
		return "", 0, fmt.Errorf("write image %s: %w", name, err)
	}
	return name, outcome, nil
}

// freeName returns base+ext, or base_1+ext, base_2+ext, ... until a name not
// already present in the store is found.
func (m *Manager) freeName(ctx context.Context, base, ext string) (string, error) {
	name := base + ext
	for suffix := 1; ; suffix++ {
		taken, err := m.store.Exists(ctx, name)
		if err != nil {
			return "", fmt.Errorf("check image name %s: %w", name, err)
		}
		if !taken {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d%s", base, suffix, ext)
	}
}

// Resolve maps a stored image name to a servable path.
func (m *Manager) Resolve(name string) string {
	return m.store.Resolve(name)
}
