package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"cloudalbum/model"
)

// Blob variants of a stored photo.
const (
	VariantOriginal  = "original"
	VariantThumbnail = "thumbnail"
)

const thumbnailDir = "thumbnails"

// PhotoStorage is the blob store. Originals live under
// {root}/{normalizedEmail}/{filename}, thumbnails under
// {root}/{normalizedEmail}/thumbnails/{filename}.
type PhotoStorage interface {
	// SavePhoto writes the original bytes and a derived thumbnail, returning
	// the original's byte size. On failure neither variant is left behind.
	SavePhoto(data []byte, filename, normalizedEmail string) (int64, error)
	ReadPhoto(filename, normalizedEmail, variant string) ([]byte, error)
	// DeletePhoto removes both variants and reports whether the original
	// existed before deletion.
	DeletePhoto(filename, normalizedEmail string) (bool, error)
}

type LocalPhotoStorage struct {
	Directory       string
	ThumbnailWidth  int
	ThumbnailHeight int
	Log             *zap.Logger
}

func (s *LocalPhotoStorage) SavePhoto(data []byte, filename, normalizedEmail string) (int64, error) {
	ownerDir := filepath.Join(s.Directory, normalizedEmail)
	if err := os.MkdirAll(filepath.Join(ownerDir, thumbnailDir), 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	originalPath := filepath.Join(ownerDir, filename)
	if err := os.WriteFile(originalPath, data, 0o644); err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	if err := s.saveThumbnail(data, filepath.Join(ownerDir, thumbnailDir, filename)); err != nil {
		// Never report success with half the pair: drop the original too.
		if rmErr := os.Remove(originalPath); rmErr != nil {
			s.Log.Warn("failed to remove original after thumbnail failure",
				zap.String("path", originalPath), zap.Error(rmErr))
		}
		return 0, err
	}

	return int64(len(data)), nil
}

func (s *LocalPhotoStorage) saveThumbnail(data []byte, path string) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decode image: %v", model.ErrStorageWrite, err)
	}

	thumb := imaging.Fit(img, s.ThumbnailWidth, s.ThumbnailHeight, imaging.Lanczos)
	if err := imaging.Save(thumb, path); err != nil {
		return fmt.Errorf("%w: save thumbnail: %v", model.ErrStorageWrite, err)
	}
	return nil
}

func (s *LocalPhotoStorage) ReadPhoto(filename, normalizedEmail, variant string) ([]byte, error) {
	path := filepath.Join(s.Directory, normalizedEmail, filename)
	if variant == VariantThumbnail {
		path = filepath.Join(s.Directory, normalizedEmail, thumbnailDir, filename)
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s (%s)", model.ErrNotFound, filename, variant)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}
	return data, nil
}

func (s *LocalPhotoStorage) DeletePhoto(filename, normalizedEmail string) (bool, error) {
	ownerDir := filepath.Join(s.Directory, normalizedEmail)

	existed := true
	if err := os.Remove(filepath.Join(ownerDir, filename)); err != nil {
		if !os.IsNotExist(err) {
			return false, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
		}
		existed = false
	}

	if err := os.Remove(filepath.Join(ownerDir, thumbnailDir, filename)); err != nil && !os.IsNotExist(err) {
		return existed, fmt.Errorf("%w: %v", model.ErrStorageWrite, err)
	}

	return existed, nil
}

// NormalizeEmail maps an email address to a directory-safe path segment.
// '@' and '.' get distinct replacements so different addresses keep
// different directories; the mapping is applied identically on every
// save, read and delete.
func NormalizeEmail(email string) string {
	var b strings.Builder
	b.Grow(len(email) + 8)
	for _, r := range email {
		switch {
		case r == '@':
			b.WriteString("_at_")
		case r == '.':
			b.WriteString("_dot_")
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '+' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
