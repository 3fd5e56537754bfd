// Package storage defines the backend abstraction for stored files.
// Two drivers implement it: MinioStorage for any S3-compatible provider
// (AWS S3, MinIO, ...) and LocalStorage for a plain directory on disk.
// Exactly one of them is chosen at startup by Select and injected into
// the services that need it.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Mode identifies which driver is serving storage for the process.
type Mode string

const (
	ModeS3    Mode = "s3"
	ModeLocal Mode = "local"
)

// Retrieval URL lifetimes used by the HTTP layer.
const (
	DownloadURLExpiry = 3600 * time.Second
	ShareURLExpiry    = 604800 * time.Second
)

var (
	// ErrNotFound is returned when a key does not exist in the backend.
	ErrNotFound = errors.New("object not found")
	// ErrBackendUnavailable wraps network, credential and timeout failures.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrUnsupportedOperation is returned when a driver cannot perform an operation,
	// e.g. signing URLs on the local filesystem.
	ErrUnsupportedOperation = errors.New("operation not supported by storage backend")
	// ErrInvalidKey is returned for keys that are empty or escape the namespace.
	ErrInvalidKey = errors.New("invalid object key")
)

// Object is the backend view of a stored file.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Capabilities declares how a driver serves downloads.
type Capabilities struct {
	// SignedURLs is true when RetrievalURL returns self-authenticating links.
	SignedURLs bool
	// DirectDownload is true when Open streams object bytes through the gateway.
	DirectDownload bool
}

// Backend is the uniform interface over the storage drivers.
type Backend interface {
	// Put streams data to the store under key. On success the object is
	// immediately retrievable.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// List returns every stored object in no particular order. An empty store
	// yields an empty slice.
	List(ctx context.Context) ([]Object, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// RetrievalURL returns a time-limited URL for key or ErrUnsupportedOperation.
	RetrievalURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Stat returns metadata for key or ErrNotFound.
	Stat(ctx context.Context, key string) (Object, error)
	// Open returns the object content. The caller must close the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)

	Mode() Mode
	Capabilities() Capabilities
	// Label is a human-readable name of the storage target (bucket or directory).
	Label() string
}
