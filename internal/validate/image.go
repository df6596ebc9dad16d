package validate

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/vbonduro/actreport/internal/domain"
)

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file size exceeds the maximum limit")
	ErrUnsupportedType = errors.New("please upload a valid file type (JPG, PNG)")
	ErrCorruptImage    = errors.New("invalid or corrupted image file")
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Image checks an uploaded file against the limits of kind and returns its
// MIME type, detected from the content rather than the client's claim.
func Image(data []byte, kind domain.FileKind) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if limit := kind.MaxBytes(); int64(len(data)) > limit {
		return "", fmt.Errorf("%w of %d MB", ErrFileTooLarge, limit>>20)
	}

	mime := http.DetectContentType(data)
	if !allowedImageTypes[mime] {
		return "", ErrUnsupportedType
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", ErrCorruptImage
	}
	return mime, nil
}
