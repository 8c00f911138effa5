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
)

// LocalBlob stores blobs under a directory served at staticBase.
type LocalBlob struct {
	baseDir    string
	staticBase string
}

func NewLocalBlob(baseDir, staticBase string) *LocalBlob {
	return &LocalBlob{baseDir: baseDir, staticBase: strings.TrimRight(staticBase, "/")}
}

func (b *LocalBlob) Put(_ context.Context, key, _ string, r io.Reader) error {
	absPath := filepath.Join(b.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(absPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (b *LocalBlob) Delete(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(b.baseDir, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (b *LocalBlob) URL(key string) string {
	return b.staticBase + "/" + key
}
