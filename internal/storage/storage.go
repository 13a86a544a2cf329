package storage

import (
	"context"
	"io"
)

// MediaStore persists uploaded post media and hands back the reference the
// post document stores (a serving path or an absolute URL).
type MediaStore interface {
	// Save writes the media bytes under the given name and returns the
	// stored reference. The name is expected to be collision-resistant;
	// callers derive it before the owning record is committed.
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	// Remove deletes previously stored media by its reference. References
	// the store does not recognize are ignored.
	Remove(ctx context.Context, ref string) error
}
