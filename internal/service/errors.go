package service

import (
	"errors"
	"strings"

	"github.com/vbonduro/actreport/internal/validate"
)

var (
	ErrNotFound         = errors.New("activity not found")
	ErrCaptionsDisabled = errors.New("caption suggestions are not configured")
	ErrIndexOutOfRange  = errors.New("row does not exist")
	ErrTooManyPhotos    = errors.New("photo limit reached")
	ErrUnknownFileKind  = errors.New("unknown file kind")
)

// ValidationError carries the messages that stopped an operation.
type ValidationError struct {
	Result validate.Result
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Result.Errors, "; ")
}

func invalid(messages ...string) *ValidationError {
	return &ValidationError{Result: validate.Result{Errors: messages}}
}
