package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound      = fmt.Errorf("filesystem: file not found")
	ErrDirectoryNotFound = fmt.Errorf("filesystem: directory not found")
	ErrInvalidPath       = fmt.Errorf("filesystem: invalid path")
)

// Filesystem reads and writes files by name inside a single root directory.
type Filesystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, content []byte) error
	FileExists(name string) (bool, error)
	Root() string
}

type localFileSystem struct {
	root string
}

// NewLocalFileSystem returns a Filesystem rooted at root, which must be an
// existing directory.
func NewLocalFileSystem(root string) (Filesystem, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrDirectoryNotFound, root)
	}

	return &localFileSystem{root: abs}, nil
}

func (filesystem *localFileSystem) Root() string {
	return filesystem.root
}

// resolve maps name onto a path below the root. Names that are absolute or
// would escape the root are rejected.
func (filesystem *localFileSystem) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) || filepath.IsAbs(name) || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return filepath.Join(filesystem.root, name), nil
}

func (filesystem *localFileSystem) FileExists(name string) (bool, error) {
	path, err := filesystem.resolve(name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	return !info.IsDir(), nil
}

func (filesystem *localFileSystem) ReadFile(name string) ([]byte, error) {
	exists, err := filesystem.FileExists(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}

	path, _ := filesystem.resolve(name)
	return os.ReadFile(path)
}

// WriteFile creates or truncates name and writes content to it. Missing
// parent directories below the root are created.
func (filesystem *localFileSystem) WriteFile(name string, content []byte) error {
	path, err := filesystem.resolve(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("closing file error", "error", closeErr)
		}
	}()

	if _, err := file.Write(content); err != nil {
		return err
	}
	return file.Sync()
}
