package filestore

import (
	"context"
	"errors"
	"io"

	"github.com/vbonduro/actreport/internal/domain"
)

var ErrNotFound = errors.New("file not found")

// FileStore keeps uploaded photos, profile images and signatures. Keys are
// opaque slash-separated paths returned by Save.
type FileStore interface {
	Save(ctx context.Context, kind domain.FileKind, prefix, mimeType string, r io.Reader) (key string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
