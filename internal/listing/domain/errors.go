package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrNotFound          = errors.New("listing not found")
	ErrNotInserted       = errors.New("listing not inserted")
	ErrDuplicateFavorite = errors.New("favorite already exists")
)

// StoreError wraps any transport, auth or constraint failure coming back
// from the remote platform. The platform's own message is preserved for
// diagnostics and the error is propagated unchanged up the stack.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// PartialUploadError reports a multi-image upload batch in which at least
// one file failed. Files already written before the failure stay in the
// store; the batch as a whole is still reported as failed.
type PartialUploadError struct {
	Failed []string
	Err    error
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("upload failed for %s: %v", strings.Join(e.Failed, ", "), e.Err)
}

func (e *PartialUploadError) Unwrap() error { return e.Err }

// ValidationError carries per-field messages from the listing validators,
// keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "invalid listing data: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidArgument }
