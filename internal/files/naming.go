package files

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// keyTimeLayout is the timestamp component of a storage key. Keys look like
// "20240115_093000_report.pdf".
const keyTimeLayout = "20060102_150405"

// keyPrefixLen covers the timestamp and the separator that follows it.
const keyPrefixLen = len(keyTimeLayout) + 1

// ErrInvalidFilename is returned when nothing usable remains after sanitizing.
var ErrInvalidFilename = errors.New("invalid filename")

// Sanitize reduces a client-supplied filename to a safe single path element:
// directories are dropped, control characters removed, whitespace replaced
// with underscores, and leading dots stripped so the result is never hidden.
func Sanitize(name string) (string, error) {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsControl(r) || r == unicode.ReplacementChar:
		case unicode.IsSpace(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.TrimLeft(b.String(), "._")
	if clean == "" {
		return "", ErrInvalidFilename
	}
	return clean, nil
}

// NewKey derives the storage key for name uploaded at now.
// Two uploads of the same name within the same second produce the same key;
// the later one replaces the earlier.
func NewKey(name string, now time.Time) (string, error) {
	clean, err := Sanitize(name)
	if err != nil {
		return "", err
	}
	return now.Format(keyTimeLayout) + "_" + clean, nil
}

// OriginalName recovers the display name from a key built by NewKey.
// Keys without the timestamp prefix are returned unchanged.
func OriginalName(key string) string {
	if len(key) <= keyPrefixLen || key[keyPrefixLen-1] != '_' {
		return key
	}
	if _, err := time.Parse(keyTimeLayout, key[:keyPrefixLen-1]); err != nil {
		return key
	}
	return key[keyPrefixLen:]
}
