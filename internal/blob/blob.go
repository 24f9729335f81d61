package blob

import (
	"context"
	"strings"

	"chirper-api/internal/model"
)

// File is an in-memory upload: the bytes plus the metadata the backends
// need to name and type the stored object.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Store is the capability set every media backend provides. References are
// opaque stable strings (a public URL for S3, a share URL for Drive);
// callers never interpret them beyond passing them back in.
type Store interface {
	// Upload stores a single file under the given logical folder and
	// returns its reference.
	Upload(ctx context.Context, f File, folder string) (string, error)

	// UploadMany stores up to MaxPostMediaCount files. It rejects larger
	// batches with ErrMediaLimitExceeded and non image/video content with
	// ErrInvalidMediaType before any byte is sent.
	UploadMany(ctx context.Context, files []File, folder string) ([]string, error)

	// Delete removes the object a reference points at.
	Delete(ctx context.Context, ref string) error

	// Read fetches the raw bytes behind a reference.
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Logical folders shared by both backends. S3 uses them as key prefixes,
// Drive maps them to configured folder IDs.
const (
	FolderAvatars   = "avatars"
	FolderHeaders   = "headers"
	FolderPostMedia = "posts"
)

// validateBatch enforces the per-post media contract common to both backends.
func validateBatch(files []File) error {
	if len(files) > model.MaxPostMediaCount {
		return model.ErrMediaLimitExceeded
	}
	for _, f := range files {
		if !isAllowedMediaType(f.ContentType) {
			return model.ErrInvalidMediaType
		}
	}
	return nil
}

func isAllowedMediaType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/") || strings.HasPrefix(contentType, "video/")
}
