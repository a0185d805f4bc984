package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFileSize - предел размера одного документа (10 MiB)
const MaxFileSize = 10 << 20

// Store - хранилище документов сертификаций
type Store interface {
	Upload(ctx context.Context, path string, data []byte) error
	PublicURL(path string) string
}

// DiskStore - реализация Store на локальном диске.
// Файлы раздаются сервером как статика под /files/.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &DiskStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload сохраняет документ. Путь не должен выходить за корень хранилища.
func (s *DiskStore) Upload(_ context.Context, path string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty file")
	}
	if len(data) > MaxFileSize {
		return fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}

	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// PublicURL возвращает внешний URL документа
func (s *DiskStore) PublicURL(path string) string {
	return s.baseURL + "/files/" + strings.TrimLeft(path, "/")
}
