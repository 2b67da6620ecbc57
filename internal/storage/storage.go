package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrInvalidPath = errors.New("invalid storage path")

// FileStorage is the blob store for proofs and ticket attachments. Callers
// persist only the relative path returned by Write.
type FileStorage struct {
	basePath string
}

func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileStorage{basePath: basePath}, nil
}

// Write stores the content of src under dir with a unique name derived from
// suggestedName and returns the relative path.
func (fs *FileStorage) Write(src io.Reader, dir, suggestedName string) (string, error) {
	dir = filepath.Clean(dir)
	if dir == ".." || strings.HasPrefix(dir, ".."+string(filepath.Separator)) || filepath.IsAbs(dir) {
		return "", ErrInvalidPath
	}
	if err := os.MkdirAll(filepath.Join(fs.basePath, dir), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeName(suggestedName))
	relativePath := filepath.Join(dir, filename)

	dst, err := os.Create(filepath.Join(fs.basePath, relativePath))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filepath.ToSlash(relativePath), nil
}

func (fs *FileStorage) Open(path string) (*os.File, error) {
	fullPath, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

func (fs *FileStorage) Delete(path string) error {
	fullPath, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return os.Remove(fullPath)
}

func (fs *FileStorage) resolve(path string) (string, error) {
	fullPath := filepath.Join(fs.basePath, filepath.FromSlash(path))
	rel, err := filepath.Rel(fs.basePath, fullPath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return fullPath, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == "_" {
		return "file"
	}
	return name
}
