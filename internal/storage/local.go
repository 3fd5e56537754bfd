package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tempPrefix marks in-flight uploads; List skips them.
const tempPrefix = ".upload-"

// LocalStorage implements Backend on a single flat directory.
// Sizes and modification times come from filesystem metadata; there is no index.
// It cannot sign URLs, so downloads are streamed through the gateway instead.
type LocalStorage struct {
	dir string
}

// NewLocalStorage ensures dir exists and returns a LocalStorage rooted there.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

// path resolves key to a file directly inside dir.
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) ||
		strings.HasPrefix(key, tempPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key), nil
}

// Put writes to a temp file and renames it into place, so readers never see a partial object.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) error {
	dst, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.OpenFile(filepath.Join(s.dir, tempPrefix+uuid.NewString()), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: r}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename %q: %w", key, err)
	}
	return nil
}

// List returns regular files in dir. A missing directory is an empty store.
func (s *LocalStorage) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Object{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		objects = append(objects, Object{
			Key:          entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return objects, nil
}

// Delete removes key. A missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	return nil
}

// RetrievalURL is not available on the filesystem driver.
func (s *LocalStorage) RetrievalURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrUnsupportedOperation
}

// Stat returns metadata for key.
func (s *LocalStorage) Stat(_ context.Context, key string) (Object, error) {
	p, err := s.path(key)
	if err != nil {
		return Object{}, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		return Object{}, fmt.Errorf("stat %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return Object{}, fmt.Errorf("stat %q: %w", key, err)
	}
	return Object{Key: key, Size: info.Size(), LastModified: info.ModTime()}, nil
}

// Open returns the file for key.
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, Object, error) {
	obj, err := s.Stat(ctx, key)
	if err != nil {
		return nil, Object{}, err
	}
	p, _ := s.path(key)
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, Object{}, fmt.Errorf("open %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, Object{}, fmt.Errorf("open %q: %w", key, err)
	}
	return f, obj, nil
}

func (s *LocalStorage) Mode() Mode { return ModeLocal }

func (s *LocalStorage) Capabilities() Capabilities {
	return Capabilities{SignedURLs: false, DirectDownload: true}
}

func (s *LocalStorage) Label() string { return filepath.ToSlash(s.dir) + "/" }

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
