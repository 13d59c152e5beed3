package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type Kind string

const (
	KindLanguage Kind = "language"
	KindSoftware Kind = "software"
)

type Item struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type data struct {
	Languages []Item `yaml:"languages"`
	Software  []Item `yaml:"software"`
}

// Catalog guarda as opções selecionáveis de idiomas e softwares. É seguro
// para uso concorrente; Reload troca o conteúdo de uma vez.
type Catalog struct {
	mu    sync.RWMutex
	path  string
	data  data
	index map[Kind]map[string]string
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c := &Catalog{}
	if err := c.apply(defaultCatalog); err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return c
}

// Load reads the catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) Path() string {
	return c.path
}

// Reload rereads the file. On error the previous content stays in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	return c.apply(raw)
}

func (c *Catalog) apply(raw []byte) error {
	var d data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	index := map[Kind]map[string]string{
		KindLanguage: {},
		KindSoftware: {},
	}
	for kind, items := range map[Kind][]Item{KindLanguage: d.Languages, KindSoftware: d.Software} {
		if len(items) == 0 {
			return fmt.Errorf("catalog has no %s entries", kind)
		}
		for _, it := range items {
			if it.Code == "" || it.Name == "" {
				return fmt.Errorf("catalog %s entry missing code or name", kind)
			}
			if _, dup := index[kind][it.Code]; dup {
				return fmt.Errorf("catalog %s code %q repeated", kind, it.Code)
			}
			index[kind][it.Code] = it.Name
		}
	}

	c.mu.Lock()
	c.data = d
	c.index = index
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Items(kind Kind) []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var src []Item
	switch kind {
	case KindLanguage:
		src = c.data.Languages
	case KindSoftware:
		src = c.data.Software
	}
	out := make([]Item, len(src))
	copy(out, src)
	return out
}

func (c *Catalog) Languages() []Item { return c.Items(KindLanguage) }
func (c *Catalog) Software() []Item  { return c.Items(KindSoftware) }

// Name returns the display name for code, falling back to the code itself.
func (c *Catalog) Name(kind Kind, code string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if name, ok := c.index[kind][code]; ok {
		return name
	}
	return code
}

var ErrUnknownCode = errors.New("unknown catalog code")

// Check returns ErrUnknownCode wrapped with the first code not in the catalog.
func (c *Catalog) Check(kind Kind, codes []string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, code := range codes {
		if _, ok := c.index[kind][code]; !ok {
			return fmt.Errorf("%w: %s %q", ErrUnknownCode, kind, code)
		}
	}
	return nil
}
