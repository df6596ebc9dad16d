package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/actreport/internal/domain"
	"github.com/vbonduro/actreport/internal/filestore"
)

// kindDirs maps each file kind to its directory below the data root.
var kindDirs = map[domain.FileKind]string{
	domain.FileActivityPhoto:  "images/activities",
	domain.FileSpeakerProfile: "images/speakers",
	domain.FileSignature:      "signatures",
}

type LocalFileStore struct {
	basePath string
}

func NewLocalFileStore(basePath string) (*LocalFileStore, error) {
	for _, dir := range kindDirs {
		if err := os.MkdirAll(filepath.Join(basePath, filepath.FromSlash(dir)), 0755); err != nil {
			return nil, fmt.Errorf("failed to create file directory: %w", err)
		}
	}
	return &LocalFileStore{basePath: basePath}, nil
}

// Save writes r to <kind dir>/<prefix>_<timestamp>_<short uuid><ext> and
// returns that relative path as the key. Activity photos get one more
// directory level named after the prefix, so each activity or draft keeps
// its photos together.
func (s *LocalFileStore) Save(ctx context.Context, kind domain.FileKind, prefix, mimeType string, r io.Reader) (string, error) {
	dir, ok := kindDirs[kind]
	if !ok {
		return "", fmt.Errorf("unknown file kind %q", kind)
	}
	if prefix == "" {
		prefix = string(kind)
	}
	prefix = sanitizePrefix(prefix)
	if kind == domain.FileActivityPhoto {
		dir = path.Join(dir, prefix)
	}

	key := path.Join(dir, fmt.Sprintf("%s_%s_%s%s",
		prefix, time.Now().Format("20060102_150405"), uuid.NewString()[:8], mimeTypeToExt(mimeType)))
	filePath, err := s.safeJoin(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create file directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		if rerr := os.Remove(filePath); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return key, nil
}

func (s *LocalFileStore) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", filestore.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, extToMimeType(filePath), nil
}

func (s *LocalFileStore) Delete(ctx context.Context, key string) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filestore.ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	s.removeEmptyGroupDir(filePath)
	return nil
}

// removeEmptyGroupDir drops a per-activity photo directory once its last
// file is gone. The kind directories themselves are kept.
func (s *LocalFileStore) removeEmptyGroupDir(filePath string) {
	dir := filepath.Dir(filePath)
	photos, err := s.safeJoin(kindDirs[domain.FileActivityPhoto])
	if err != nil || filepath.Dir(dir) != photos {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		slog.Warn("failed to remove empty photo directory", "dir", dir, "error", err)
	}
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *LocalFileStore) safeJoin(key string) (string, error) {
	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

func sanitizePrefix(prefix string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, prefix)
}

func mimeTypeToExt(mimeType string) string {
	if mimeType == "image/png" {
		return ".png"
	}
	return ".jpg"
}

func extToMimeType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}
