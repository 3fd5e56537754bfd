package files

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidationError describes why an upload was rejected. It is safe to show to users.
type ValidationError struct {
	Reason   string
	TooLarge bool
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Validator enforces the extension allow-list and the size ceiling.
type Validator struct {
	allowed  map[string]struct{}
	maxBytes int64
}

// NewValidator builds a Validator. Extensions are matched case-insensitively
// and may be given with or without a leading dot.
func NewValidator(extensions []string, maxBytes int64) *Validator {
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &Validator{allowed: allowed, maxBytes: maxBytes}
}

// MaxBytes returns the size ceiling.
func (v *Validator) MaxBytes() int64 {
	return v.maxBytes
}

// Extensions returns the allow-list in sorted order.
func (v *Validator) Extensions() []string {
	out := make([]string, 0, len(v.allowed))
	for ext := range v.allowed {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Validate returns nil when filename and size are acceptable, or a *ValidationError.
func (v *Validator) Validate(filename string, size int64) error {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return &ValidationError{
			Reason: "file has no extension. Allowed types: " + strings.Join(v.Extensions(), ", "),
		}
	}
	if _, ok := v.allowed[strings.ToLower(ext)]; !ok {
		return &ValidationError{
			Reason: fmt.Sprintf("file type %q not allowed. Allowed types: %s", ext, strings.Join(v.Extensions(), ", ")),
		}
	}
	if size < 0 {
		return &ValidationError{Reason: "file size unknown"}
	}
	if size > v.maxBytes {
		return &ValidationError{
			Reason:   fmt.Sprintf("file is %s, the limit is %s", humanize.IBytes(uint64(size)), humanize.IBytes(uint64(v.maxBytes))),
			TooLarge: true,
		}
	}
	return nil
}
