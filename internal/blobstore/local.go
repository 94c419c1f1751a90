// Package blobstore stores review images.
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atinyakov/ParkPassport/internal/apperrors"
	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

// DefaultMaxEdge bounds the width and height of stored images.
const DefaultMaxEdge = 1600

// MaxPixels bounds the decoded size of an upload. Headers are checked
// before any pixel data is allocated.
const MaxPixels = 40_000_000

// LocalStore writes images to a directory served under a public URL prefix.
// Every image is downscaled to fit MaxEdge and re-encoded as JPEG.
type LocalStore struct {
	dir     string
	baseURL string
	maxEdge uint
	newName func() string
}

// NewLocalStore creates dir if needed and returns a store publishing files under baseURL.
func NewLocalStore(dir, baseURL string, maxEdge uint) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if maxEdge == 0 {
		maxEdge = DefaultMaxEdge
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		maxEdge: maxEdge,
		newName: func() string { return uuid.NewString() + ".jpg" },
	}, nil
}

// Dir returns the directory images are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put decodes body, stores a downscaled JPEG copy and returns its public URL.
// The client file name and content type are not trusted; the decoded data decides.
func (s *LocalStore) Put(ctx context.Context, _, _ string, body io.Reader) (string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(body, &head))
	if err != nil {
		return "", apperrors.Invalid("image", "image must be a JPEG, PNG or GIF file")
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", apperrors.Invalid("image", "image dimensions are too large")
	}

	img, _, err := image.Decode(io.MultiReader(&head, body))
	if err != nil {
		return "", apperrors.Invalid("image", "image must be a JPEG, PNG or GIF file")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	thumb := resize.Thumbnail(s.maxEdge, s.maxEdge, img, resize.Lanczos3)

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, thumb, &jpeg.Options{Quality: 85}); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	name := s.newName()
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("publish image: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
