// Package files implements the file operations of the gateway on top of the
// selected storage backend: validated uploads, the catalog, downloads,
// share links and deletion.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"

	"github.com/filegate/service/internal/metrics"
	"github.com/filegate/service/internal/session"
	"github.com/filegate/service/internal/storage"
)

const (
	bytesPerMB    = 1024 * 1024
	displayLayout = "2006-01-02 15:04:05"
)

// UploadRequest is one file received from a client.
type UploadRequest struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Size        int64
}

// UploadResult describes a stored upload.
type UploadResult struct {
	Key          string  `json:"key"          example:"20240115_093000_report.pdf"`
	OriginalName string  `json:"originalName" example:"report.pdf"`
	SizeMB       float64 `json:"sizeMB"       example:"1.91"`
}

// Entry is one row of the catalog.
type Entry struct {
	Key                 string    `json:"key"                 example:"20240115_093000_report.pdf"`
	OriginalName        string    `json:"originalName"        example:"report.pdf"`
	SizeBytes           int64     `json:"sizeBytes"           example:"2000000"`
	SizeMB              float64   `json:"sizeMB"              example:"1.91"`
	SizeHuman           string    `json:"sizeHuman"           example:"2.0 MiB"`
	LastModified        time.Time `json:"lastModified"`
	LastModifiedDisplay string    `json:"lastModifiedDisplay" example:"2024-01-15 09:30:00"`
}

// Stats summarises the catalog.
type Stats struct {
	FileCount   int          `json:"fileCount"   example:"3"`
	TotalSizeMB float64      `json:"totalSizeMB" example:"12.5"`
	BucketLabel string       `json:"bucketLabel" example:"uploads/"`
	Mode        storage.Mode `json:"mode"        example:"local"`
}

// ShareLink is a presigned link valid for storage.ShareURLExpiry.
type ShareLink struct {
	Key          string    `json:"key"`
	OriginalName string    `json:"originalName"`
	URL          string    `json:"url"`
	ExpiresAt    time.Time `json:"expiresAt"`
	ExpiresIn    string    `json:"expiresIn" example:"1 week from now"`
}

// Download is either a redirect target (URL) or a body to stream (Body).
type Download struct {
	URL      string
	Body     io.ReadCloser
	Object   storage.Object
	Filename string
}

// Timeouts bound backend calls. Upload covers transferring the file body;
// a zero Upload falls back to Call.
type Timeouts struct {
	Call   time.Duration
	Upload time.Duration
}

// Service runs file operations against a single storage backend.
type Service struct {
	backend   storage.Backend
	validator *Validator
	timeouts  Timeouts
	metrics   *metrics.Storage
	now       func() time.Time
}

// NewService creates a Service. m may be nil.
func NewService(backend storage.Backend, validator *Validator, timeouts Timeouts, m *metrics.Storage) *Service {
	if timeouts.Upload <= 0 {
		timeouts.Upload = timeouts.Call
	}
	return &Service{
		backend:   backend,
		validator: validator,
		timeouts:  timeouts,
		metrics:   m,
		now:       time.Now,
	}
}

// Mode reports the active backend mode.
func (s *Service) Mode() storage.Mode {
	return s.backend.Mode()
}

// MaxUploadBytes returns the configured upload ceiling.
func (s *Service) MaxUploadBytes() int64 {
	return s.validator.MaxBytes()
}

// Upload validates req, derives its key and stores it.
func (s *Service) Upload(ctx context.Context, p session.Principal, req UploadRequest) (*UploadResult, error) {
	if p.IsZero() {
		return nil, session.ErrUnauthenticated
	}

	name, err := Sanitize(req.Filename)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(name, req.Size); err != nil {
		return nil, err
	}

	key, err := NewKey(name, s.now())
	if err != nil {
		return nil, err
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	err = s.callWithin(ctx, "put", s.timeouts.Upload, func(ctx context.Context) error {
		return s.backend.Put(ctx, key, req.Body, req.Size, contentType)
	})
	if err != nil {
		return nil, fmt.Errorf("upload %q: %w", name, err)
	}
	s.metrics.AddUploaded(req.Size)

	log.WithFields(log.Fields{
		"key":  key,
		"size": req.Size,
		"user": p.Username,
	}).Info("files: uploaded")

	return &UploadResult{Key: key, OriginalName: name, SizeMB: toMB(req.Size)}, nil
}

// List returns the catalog, newest first. It re-reads the backend on every call.
func (s *Service) List(ctx context.Context, p session.Principal) ([]Entry, error) {
	objects, err := s.list(ctx, p)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, Entry{
			Key:                 obj.Key,
			OriginalName:        OriginalName(obj.Key),
			SizeBytes:           obj.Size,
			SizeMB:              toMB(obj.Size),
			SizeHuman:           humanize.IBytes(uint64(obj.Size)),
			LastModified:        obj.LastModified,
			LastModifiedDisplay: obj.LastModified.UTC().Format(displayLayout),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LastModified.Equal(entries[j].LastModified) {
			return entries[i].LastModified.After(entries[j].LastModified)
		}
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// Stats returns the file count and total size of the catalog.
func (s *Service) Stats(ctx context.Context, p session.Principal) (*Stats, error) {
	objects, err := s.list(ctx, p)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, obj := range objects {
		total += obj.Size
	}
	return &Stats{
		FileCount:   len(objects),
		TotalSizeMB: toMB(total),
		BucketLabel: s.backend.Label(),
		Mode:        s.backend.Mode(),
	}, nil
}

// Delete removes key. Deleting a missing key succeeds.
func (s *Service) Delete(ctx context.Context, p session.Principal, key string) error {
	if p.IsZero() {
		return session.ErrUnauthenticated
	}

	err := s.call(ctx, "delete", func(ctx context.Context) error {
		return s.backend.Delete(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	log.WithFields(log.Fields{"key": key, "user": p.Username}).Info("files: deleted")
	return nil
}

// Download resolves key to a presigned URL valid for storage.DownloadURLExpiry
// when the backend signs URLs, and to a streamed body otherwise.
func (s *Service) Download(ctx context.Context, p session.Principal, key string) (*Download, error) {
	obj, err := s.stat(ctx, p, key)
	if err != nil {
		return nil, err
	}
	d := &Download{Object: obj, Filename: OriginalName(key)}

	if s.backend.Capabilities().SignedURLs {
		d.URL, err = s.retrievalURL(ctx, key, storage.DownloadURLExpiry)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	// The body outlives this call, so it is bounded by the request rather than a backend timeout.
	start := time.Now()
	body, obj, err := s.backend.Open(ctx, key)
	s.metrics.Observe("open", outcome(err), start)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	d.Body, d.Object = body, obj
	return d, nil
}

// Share returns a presigned link valid for storage.ShareURLExpiry. Backends
// that cannot sign URLs yield storage.ErrUnsupportedOperation.
func (s *Service) Share(ctx context.Context, p session.Principal, key string) (*ShareLink, error) {
	if p.IsZero() {
		return nil, session.ErrUnauthenticated
	}
	if !s.backend.Capabilities().SignedURLs {
		return nil, fmt.Errorf("share %q: %w", key, storage.ErrUnsupportedOperation)
	}

	if _, err := s.stat(ctx, p, key); err != nil {
		return nil, err
	}
	u, err := s.retrievalURL(ctx, key, storage.ShareURLExpiry)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(storage.ShareURLExpiry)
	return &ShareLink{
		Key:          key,
		OriginalName: OriginalName(key),
		URL:          u,
		ExpiresAt:    expiresAt,
		ExpiresIn:    humanize.RelTime(expiresAt, now, "ago", "from now"),
	}, nil
}

func (s *Service) list(ctx context.Context, p session.Principal) ([]storage.Object, error) {
	if p.IsZero() {
		return nil, session.ErrUnauthenticated
	}

	var objects []storage.Object
	err := s.call(ctx, "list", func(ctx context.Context) error {
		var err error
		objects, err = s.backend.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return objects, nil
}

func (s *Service) stat(ctx context.Context, p session.Principal, key string) (storage.Object, error) {
	if p.IsZero() {
		return storage.Object{}, session.ErrUnauthenticated
	}

	var obj storage.Object
	err := s.call(ctx, "stat", func(ctx context.Context) error {
		var err error
		obj, err = s.backend.Stat(ctx, key)
		return err
	})
	if err != nil {
		return storage.Object{}, fmt.Errorf("lookup %q: %w", key, err)
	}
	return obj, nil
}

func (s *Service) retrievalURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	var u string
	err := s.call(ctx, "presign", func(ctx context.Context) error {
		var err error
		u, err = s.backend.RetrievalURL(ctx, key, expiry)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return u, nil
}

// call runs fn under the backend call timeout.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) error) error {
	return s.callWithin(ctx, op, s.timeouts.Call, fn)
}

// callWithin runs fn under timeout. An expired deadline is reported as
// storage.ErrBackendUnavailable.
func (s *Service) callWithin(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, storage.ErrBackendUnavailable) {
		err = fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	s.metrics.Observe(op, outcome(err), start)
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrBackendUnavailable):
		return "unavailable"
	case errors.Is(err, storage.ErrUnsupportedOperation):
		return "unsupported"
	case errors.Is(err, storage.ErrInvalidKey):
		return "invalid_key"
	default:
		return "error"
	}
}

// toMB converts bytes to MiB rounded to two decimals.
func toMB(n int64) float64 {
	return math.Round(float64(n)/bytesPerMB*100) / 100
}
