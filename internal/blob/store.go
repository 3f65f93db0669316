// Package blob stores profile photos on local disk.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no photo exists for a user.
var ErrNotFound = errors.New("photo not found")

// ErrTooLarge is returned when an upload exceeds the size limit.
var ErrTooLarge = errors.New("photo exceeds size limit")

// photoExt is the stored file extension. Uploads are re-encoded by
// clients before upload; the server stores bytes as-is.
const photoExt = ".jpg"

// Store persists profile photos under a base directory, one file per
// user at photos/{userID}.jpg. Re-upload replaces the previous photo.
type Store struct {
	baseDir string
}

// NewStore creates a photo store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes a photo for a user, replacing any previous one.
// The write goes to a temp file first and is renamed into place so a
// concurrent reader never observes a partial photo. An upload larger
// than maxSize returns ErrTooLarge and stores nothing.
func (s *Store) Save(userID string, r io.Reader, maxSize int64) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	tmp := filepath.Join(s.baseDir, "."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("create temp photo: %w", err)
	}

	// Read one byte past the limit so an oversized upload is
	// distinguishable from one that is exactly maxSize.
	n, err := io.Copy(f, io.LimitReader(r, maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(tmp)
		if errors.Is(err, ErrTooLarge) {
			return err
		}
		return fmt.Errorf("write photo: %w", err)
	}

	if err := os.Rename(tmp, s.path(userID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize photo: %w", err)
	}

	return nil
}

// Open returns a reader for a user's photo.
// The caller must close the returned reader.
func (s *Store) Open(userID string) (io.ReadCloser, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return f, nil
}

// Delete removes a user's photo. Missing photos are not an error.
func (s *Store) Delete(userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}

	if err := os.Remove(s.path(userID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// Exists reports whether a user has a stored photo.
func (s *Store) Exists(userID string) bool {
	if validateUserID(userID) != nil {
		return false
	}
	_, err := os.Stat(s.path(userID))
	return err == nil
}

// URL returns the public URL for a user's photo.
func (s *Store) URL(baseURL, userID string) string {
	return fmt.Sprintf("%s/photos/%s%s", strings.TrimSuffix(baseURL, "/"), userID, photoExt)
}

func (s *Store) path(userID string) string {
	return filepath.Join(s.baseDir, userID+photoExt)
}

// validateUserID rejects ids that could escape the base directory.
func validateUserID(userID string) error {
	if userID == "" || strings.ContainsAny(userID, "/\\.") {
		return fmt.Errorf("invalid user id %q", userID)
	}
	return nil
}
