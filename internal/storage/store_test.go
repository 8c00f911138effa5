package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestStore_SaveWritesPhotoAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(NewLocalBlob(dir, "/static/uploads/"))
	s.now = func() time.Time { return time.Date(2022, 3, 22, 10, 0, 0, 0, time.UTC) }

	stored, err := s.Save(context.Background(), "gallery.png", bytes.NewReader(pngBytes(t, 640, 480)))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Key, "reviews/2022/03/22/"))
	assert.True(t, strings.HasSuffix(stored.Key, ".png"))
	assert.Equal(t, "/static/uploads/"+stored.Key, stored.URL)
	assert.Equal(t, "image/png", stored.MimeType)
	assert.Equal(t, "/static/uploads/"+ThumbnailKey(stored.Key), stored.ThumbnailURL)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(stored.Key)))
	assert.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, filepath.FromSlash(ThumbnailKey(stored.Key))))
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, ThumbnailSize)
	assert.LessOrEqual(t, cfg.Height, ThumbnailSize)
}

// oversizedPNG is a small valid PNG whose header claims w x h pixels.
func oversizedPNG(t *testing.T, w, h uint32) []byte {
	t.Helper()
	data := pngBytes(t, 4, 4)
	require.Equal(t, "IHDR", string(data[12:16]))
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestStore_SaveSkipsThumbnailForHugeDimensions(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(NewLocalBlob(dir, "/static/uploads/"))

	stored, err := s.Save(context.Background(), "bomb.png", bytes.NewReader(oversizedPNG(t, 60000, 60000)))
	require.NoError(t, err)
	assert.Empty(t, stored.ThumbnailURL)

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(ThumbnailKey(stored.Key))))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_SaveRejectsBadInput(t *testing.T) {
	s := NewStore(NewLocalBlob(t.TempDir(), "/static"))

	_, err := s.Save(context.Background(), "empty.png", bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = s.Save(context.Background(), "notes.txt", strings.NewReader("plain text is not a photo"))
	assert.ErrorIs(t, err, ErrInvalidMimeType)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(NewLocalBlob(dir, "/static"))

	stored, err := s.Save(context.Background(), "a.png", bytes.NewReader(pngBytes(t, 20, 20)))
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), stored.Key))
	require.NoError(t, s.Delete(context.Background(), stored.Key))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(stored.Key)))
	assert.True(t, os.IsNotExist(err))
}

func TestThumbnailKey(t *testing.T) {
	assert.Equal(t, "reviews/2022/03/22/thumb_abc.jpg", ThumbnailKey("reviews/2022/03/22/abc.png"))
}
