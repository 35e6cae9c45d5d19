package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// FailureKind categorizes why the analysis of a single file failed.
type FailureKind string

const (
	KindNotFound  FailureKind = "not_found"
	KindCorrupt   FailureKind = "corrupt_document"
	KindEncrypted FailureKind = "encrypted_unreadable"
	KindTimeout   FailureKind = "timeout"
	KindProvider  FailureKind = "provider_unavailable"
	KindUnknown   FailureKind = "unknown"
)

// Failure is a classified per-file error. It never aborts a batch; the
// worker pool records it and moves on.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Path    string      `json:"path"`
	Message string      `json:"message"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return fmt.Sprintf("[%s] %s: %s", f.Kind, f.Path, f.Message)
}

// NewFailure creates a classified failure for the given path.
func NewFailure(kind FailureKind, path, message string) *Failure {
	return &Failure{Kind: kind, Path: path, Message: message}
}

// Classify converts an arbitrary error raised while analyzing path into
// a Failure. Already-classified failures pass through unchanged.
func Classify(path string, err error) *Failure {
	if err == nil {
		return nil
	}

	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case os.IsNotExist(err) || errors.Is(err, os.ErrNotExist):
		return NewFailure(KindNotFound, path, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return NewFailure(KindTimeout, path, "analysis exceeded per-file time budget")
	case errors.Is(err, context.Canceled):
		return NewFailure(KindUnknown, path, "cancelled")
	case isEncryptionError(err):
		return NewFailure(KindEncrypted, path, err.Error())
	case isStructureError(err):
		return NewFailure(KindCorrupt, path, err.Error())
	default:
		return NewFailure(KindUnknown, path, err.Error())
	}
}

// isEncryptionError reports whether err indicates a password-protected
// document that could not be opened. The underlying PDF libraries only
// expose this condition through error text.
func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "encrypt") || strings.Contains(msg, "password")
}

// isStructureError reports whether err indicates an unreadable or
// malformed PDF structure.
func isStructureError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"not a pdf",
		"invalid pdf",
		"malformed",
		"corrupt",
		"xref",
		"trailer",
		"bad pointer",
		"unexpected eof",
		"file is empty",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
