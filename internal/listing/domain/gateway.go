package domain

import (
	"context"
	"time"
)

// Row is one record as the relational store sees it, keyed by column name.
// The repositories own the mapping between Row and the domain types.
type Row map[string]any

// Filter selects rows by column equality and/or in-set membership.
// Limit and Offset bound the result; zero values mean unbounded.
type Filter struct {
	Eq     map[string]any
	In     map[string][]string
	Limit  int
	Offset int
}

// RowStore is the relational capability of the remote platform.
// Insert must return the created rows, including store-assigned columns.
type RowStore interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) ([]Row, error)
	Delete(ctx context.Context, table string, filter Filter) error
}

type UploadOptions struct {
	ContentType string
	Upsert      bool
}

type ListOptions struct {
	Limit  int
	Offset int
}

type BlobEntry struct {
	Name string
	Size int64
}

// BlobStore is the object-storage capability of the remote platform.
// PublicURL reports false when the bucket has no durable public access,
// in which case callers fall back to a time-limited signed URL.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) error
	List(ctx context.Context, folder string, opts ListOptions) ([]BlobEntry, error)
	PublicURL(path string) (string, bool)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// AuthProvider exposes the platform session. CurrentSession returns nil
// when no account is signed in. OnSessionChange registers a callback that
// fires on every session change and returns its unsubscribe handle.
type AuthProvider interface {
	CurrentSession(ctx context.Context) (*Session, error)
	OnSessionChange(fn func(*Session)) (unsubscribe func())
	SignOut(ctx context.Context) error
}
