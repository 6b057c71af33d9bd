package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileSystem(t *testing.T) {
	root := t.TempDir()
	fs, err := NewLocalFileSystem(root)
	require.NoError(t, err)

	exists, err := fs.FileExists("hello.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = fs.ReadFile("hello.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	require.NoError(t, fs.WriteFile("hello.txt", []byte("Hello, World!")))

	exists, err = fs.FileExists("hello.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := fs.ReadFile("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(content))

	onDisk, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)

	require.NoError(t, fs.WriteFile("hello.txt", []byte("short")))
	content, err = fs.ReadFile("hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", string(content))

	assert.Equal(t, root, fs.Root())
}

func TestLocalFileSystem_NestedWrite(t *testing.T) {
	fs, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, fs.WriteFile(filepath.Join("a", "b", "c.bin"), []byte{1, 2, 3}))

	content, err := fs.ReadFile(filepath.Join("a", "b", "c.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, content)
}

func TestLocalFileSystem_RejectsEscapingPaths(t *testing.T) {
	fs, err := NewLocalFileSystem(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := fs.ReadFile(name)
		assert.ErrorIs(t, err, ErrInvalidPath, name)

		err = fs.WriteFile(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}

func TestLocalFileSystem_DirectoryIsNotAFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o755))

	fs, err := NewLocalFileSystem(root)
	require.NoError(t, err)

	exists, err := fs.FileExists("dir")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewLocalFileSystem_MissingRoot(t *testing.T) {
	_, err := NewLocalFileSystem(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrDirectoryNotFound)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewLocalFileSystem(file)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}
