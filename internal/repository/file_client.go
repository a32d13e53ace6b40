package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileClient stores each pattern record as a JSON file in a directory.
type FileClient struct {
	dir string
}

func NewFileClient(dir string) (*FileClient, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("repository: directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("repository: create %s: %w", dir, err)
	}
	return &FileClient{dir: dir}, nil
}

func (f *FileClient) GetRecord(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: read record: %w", err)
	}
	return data, nil
}

// PutRecord writes through a temp file and rename so readers never see a
// partial record.
func (f *FileClient) PutRecord(_ context.Context, key string, data []byte) error {
	tmp, err := os.CreateTemp(f.dir, ".record-*")
	if err != nil {
		return fmt.Errorf("repository: write record: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("repository: write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repository: write record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("repository: write record: %w", err)
	}
	return nil
}

// path escapes the key so distinct keys never share a file and no key can
// leave the directory.
func (f *FileClient) path(key string) string {
	return filepath.Join(f.dir, url.PathEscape(key)+".json")
}
