// Package storage keeps review photo blobs on local disk or in a Google
// Cloud Storage bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nfnt/resize"
)

const (
	MaxFileSize   = 10 * 1024 * 1024 // 10 MB
	ThumbnailSize = 300

	// MaxThumbnailPixels caps the decoded size of a photo we thumbnail.
	// Larger images are stored without a thumbnail.
	MaxThumbnailPixels = 50_000_000
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrInvalidMimeType = errors.New("file type is not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// AllowedMimeTypes lists the image types a review photo may have.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Blob is the low-level backend a Store writes to.
type Blob interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Stored describes a saved photo.
type Stored struct {
	Key          string
	URL          string
	ThumbnailURL string
	MimeType     string
	Size         int64
}

// Store validates photos, names them and writes the original plus a
// thumbnail to the blob backend.
type Store struct {
	blob Blob
	now  func() time.Time
}

func NewStore(blob Blob) *Store {
	return &Store{blob: blob, now: time.Now}
}

// Save writes one photo. Keys are reviews/YYYY/MM/DD/<uuid><ext>.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (*Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	mimeType := strings.Split(http.DetectContentType(data), ";")[0]
	if !AllowedMimeTypes[mimeType] {
		return nil, ErrInvalidMimeType
	}

	now := s.now()
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = mimeToExt(mimeType)
	}
	key := fmt.Sprintf("reviews/%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New().String(), ext)

	if err := s.blob.Put(ctx, key, mimeType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	out := &Stored{
		Key:      key,
		URL:      s.blob.URL(key),
		MimeType: mimeType,
		Size:     int64(len(data)),
	}

	if thumb, ok := thumbnail(data); ok {
		thumbKey := ThumbnailKey(key)
		if err := s.blob.Put(ctx, thumbKey, "image/jpeg", bytes.NewReader(thumb)); err != nil {
			_ = s.blob.Delete(ctx, key)
			return nil, fmt.Errorf("failed to store thumbnail: %w", err)
		}
		out.ThumbnailURL = s.blob.URL(thumbKey)
	}
	return out, nil
}

// Delete removes a photo and its thumbnail. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.blob.Delete(ctx, key); err != nil {
		return err
	}
	return s.blob.Delete(ctx, ThumbnailKey(key))
}

func ThumbnailKey(key string) string {
	dir, file := path.Split(key)
	return dir + "thumb_" + strings.TrimSuffix(file, path.Ext(file)) + ".jpg"
}

// thumbnail returns a JPEG scaled to fit ThumbnailSize, or false for
// formats the image package cannot decode (gif/webp are stored as-is) and
// for images above MaxThumbnailPixels.
func thumbnail(data []byte) ([]byte, bool) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return nil, false
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxThumbnailPixels {
		return nil, false
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil || (format != "jpeg" && format != "png") {
		return nil, false
	}
	small := resize.Thumbnail(ThumbnailSize, ThumbnailSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, small, &jpeg.Options{Quality: 85}); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func mimeToExt(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
