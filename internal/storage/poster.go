// Package storage implements the static poster file store.  Uploaded
// images live on the local filesystem under a single directory and are
// referenced from movie rows by a public "/posters/<name>" path.  The
// store validates extension and size before writing, names files with a
// random UUID, and can delete a file given the public path it previously
// returned.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxPosterBytes is the upload size limit for poster images.
const MaxPosterBytes = 2 * 1024 * 1024

// PublicPrefix is the URL prefix under which posters are served.
const PublicPrefix = "/posters"

// ErrPosterTooLarge is returned when the upload exceeds MaxPosterBytes.
var ErrPosterTooLarge = errors.New("image size must be less than 2MB")

// ErrPosterType is returned for a file extension outside the allowed set.
var ErrPosterType = errors.New("only image files (.jpg, .jpeg, .png, .gif, .webp) are allowed")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// PosterStore writes and removes poster images under Dir.
type PosterStore struct {
	Dir string
}

// NewPosterStore ensures the directory exists and returns a store over it.
func NewPosterStore(dir string) (*PosterStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster dir: %w", err)
	}
	return &PosterStore{Dir: dir}, nil
}

// Validate checks the upload's extension and declared size without
// touching the disk, so requests can be rejected before any file exists.
func (s *PosterStore) Validate(fh *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return ErrPosterType
	}
	if fh.Size > MaxPosterBytes {
		return ErrPosterTooLarge
	}
	return nil
}

// Save validates the upload and writes it under a fresh UUID name,
// returning the public "/posters/<name>" path to store on the movie row.
// The copy is capped at MaxPosterBytes+1 so a lying Content-Length cannot
// sneak an oversized body onto disk.
func (s *PosterStore) Save(fh *multipart.FileHeader) (string, error) {
	if err := s.Validate(fh); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := uuid.NewString() + ext

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(s.Dir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("create poster file: %w", err)
	}
	n, err := io.Copy(dst, io.LimitReader(src, MaxPosterBytes+1))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("write poster file: %w", err)
	}
	if n > MaxPosterBytes {
		_ = os.Remove(dstPath)
		return "", ErrPosterTooLarge
	}
	return PublicPrefix + "/" + name, nil
}

// Remove deletes the file behind a public poster path.  Paths outside the
// store's namespace and already-missing files are ignored so delete flows
// stay idempotent.
func (s *PosterStore) Remove(publicPath string) error {
	name := path.Base(strings.TrimPrefix(publicPath, PublicPrefix+"/"))
	if name == "" || name == "." || name == "/" || !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
