package storage

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"cloudalbum/model"
)

// supportedExtensions is the accepted upload format whitelist.
var supportedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"bmp":  true,
	"gif":  true,
	"png":  true,
}

// NewStorageFilename validates the extension of an uploaded filename and
// returns a fresh collision-free storage name: a random uuid plus the
// lower-cased extension. The result contains no path separators or control
// characters. Pure apart from the uuid source; no I/O.
func NewStorageFilename(original string) (string, error) {
	idx := strings.LastIndex(original, ".")
	if idx < 0 || idx == len(original)-1 {
		return "", fmt.Errorf("%w: %q has no extension", model.ErrUnsupportedFormat, original)
	}

	ext := strings.ToLower(original[idx+1:])
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("%w: .%s", model.ErrUnsupportedFormat, ext)
	}

	return sanitizeFilename(uuid.New().String() + "." + ext), nil
}

// sanitizeFilename keeps only characters safe in a single path segment.
// Path separators, control characters and anything exotic become removed,
// so the result can never traverse out of the owner directory.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".")
}
