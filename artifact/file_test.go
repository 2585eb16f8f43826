package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outputs")
	fs, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, fs.Dir())

	require.NoError(t, fs.Save("answer.mp3", []byte("ID3 audio")))

	data, err := fs.Get("answer.mp3")
	require.NoError(t, err)
	assert.Equal(t, "ID3 audio", string(data))

	onDisk, err := os.ReadFile(filepath.Join(dir, "answer.mp3"))
	require.NoError(t, err)
	assert.Equal(t, data, onDisk)

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"answer.mp3"}, names)

	require.NoError(t, fs.Delete("answer.mp3"))
	_, err = fs.Get("answer.mp3")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.Delete("answer.mp3"), ErrNotFound)
}

func TestFileStore_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "secret.txt"), []byte("x"), 0o600))

	fs, err := NewFileStore(filepath.Join(root, "outputs"))
	require.NoError(t, err)

	assert.ErrorIs(t, fs.Save("../escape.mp3", []byte("x")), ErrInvalidName)
	_, err = fs.Get("../secret.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, fs.Delete("../secret.txt"), ErrNotFound)

	_, err = os.Stat(filepath.Join(root, "secret.txt"))
	assert.NoError(t, err)
}

func TestFileStore_ListSkipsTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".b.mp3.123"), []byte("partial"), 0o600))
	require.NoError(t, fs.Save("b.mp3", []byte("b")))
	require.NoError(t, fs.Save("a.wav", []byte("a")))

	names, err := fs.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wav", "b.mp3"}, names)
}
