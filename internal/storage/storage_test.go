package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PauloHFS/hcportal/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root, "/storage")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "avatars/a.png", strings.NewReader("png"), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/storage/avatars/a.png", url)

	content, err := os.ReadFile(filepath.Join(root, "avatars", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(content))

	require.NoError(t, s.Delete(context.Background(), "avatars/a.png"))
	assert.NoFileExists(t, filepath.Join(root, "avatars", "a.png"))
	assert.NoError(t, s.Delete(context.Background(), "avatars/a.png"), "deleting twice is fine")
}

func TestLocalKeysCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root, "/storage/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "../../etc/x.png", strings.NewReader("x"), 1, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/storage/etc/x.png", url)
	assert.FileExists(t, filepath.Join(root, "etc", "x.png"))
}

func TestNewSelectsDriver(t *testing.T) {
	s, err := New(config.StorageConfig{Driver: "local", LocalDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(config.StorageConfig{Driver: "minio"})
	assert.Error(t, err, "minio without endpoint must fail before dialing")
}
