package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallCatalog = `
languages:
  - code: en
    name: English
software:
  - code: sifarma
    name: Sifarma
`

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	assert.NotEmpty(t, c.Languages())
	assert.NotEmpty(t, c.Software())
	assert.Equal(t, "Portuguese", c.Name(KindLanguage, "pt"))
	assert.Equal(t, "xx", c.Name(KindLanguage, "xx"))
}

func TestCheck(t *testing.T) {
	c := Default()

	assert.NoError(t, c.Check(KindLanguage, []string{"en", "pt"}))
	err := c.Check(KindSoftware, []string{"sifarma", "nope"})
	assert.True(t, errors.Is(err, ErrUnknownCode))
	assert.Contains(t, err.Error(), "nope")
}

func TestItemsReturnsCopy(t *testing.T) {
	c := Default()
	items := c.Languages()
	items[0].Name = "mutated"
	assert.NotEqual(t, "mutated", c.Languages()[0].Name)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"not yaml", "languages: [\n"},
		{"empty software", "languages:\n  - code: en\n    name: English\n"},
		{"duplicate code", "languages:\n  - {code: en, name: English}\n  - {code: en, name: Again}\nsoftware:\n  - {code: a, name: A}\n"},
		{"missing name", "languages:\n  - {code: en}\nsoftware:\n  - {code: a, name: A}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.Languages(), 1)

	require.NoError(t, os.WriteFile(path, []byte("::bad"), 0o644))
	assert.Error(t, c.Reload())
	assert.Len(t, c.Languages(), 1)
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(smallCatalog), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.Watch(ctx))

	updated := smallCatalog + "  - code: winapo\n    name: WINAPO\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		return len(c.Software()) == 2
	}, 2*time.Second, 20*time.Millisecond)
}
