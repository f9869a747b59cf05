package extension

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed extensions.yaml
var defaultCatalog []byte

// Catalog is the set of known extensions, looked up by exact name.
type Catalog struct {
	Extensions []*Extension `yaml:"extensions" json:"extensions"`

	byName map[string]*Extension
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return parseCatalog(defaultCatalog, false)
}

// LoadCatalog reads a catalog from a YAML or JSON file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extension catalog %s: %w", path, err)
	}
	return parseCatalog(data, strings.EqualFold(filepath.Ext(path), ".json"))
}

func parseCatalog(data []byte, isJSON bool) (*Catalog, error) {
	var c Catalog
	var err error
	if isJSON {
		err = json.Unmarshal(data, &c)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(&c)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode extension catalog: %w", err)
	}
	c.index()
	return &c, nil
}

// index builds the name lookup; later duplicates win and are reported.
func (c *Catalog) index() []string {
	var duplicates []string
	c.byName = make(map[string]*Extension, len(c.Extensions))
	for _, ext := range c.Extensions {
		if _, ok := c.byName[ext.Name]; ok {
			duplicates = append(duplicates, ext.Name)
		}
		c.byName[ext.Name] = ext
	}
	return duplicates
}

// Get returns the extension with the given name.
func (c *Catalog) Get(name string) (*Extension, bool) {
	ext, ok := c.byName[name]
	return ext, ok
}

// Merge adds the extensions of other, replacing entries with the same name.
// It returns the names that were overridden.
func (c *Catalog) Merge(other *Catalog) []string {
	var overridden []string
	for _, ext := range other.Extensions {
		if _, ok := c.byName[ext.Name]; ok {
			overridden = append(overridden, ext.Name)
			for i, existing := range c.Extensions {
				if existing.Name == ext.Name {
					c.Extensions[i] = ext
				}
			}
		} else {
			c.Extensions = append(c.Extensions, ext)
		}
		c.byName[ext.Name] = ext
	}
	return overridden
}

// Resolve maps the given names to catalog entries. Unknown names are not an
// error; they are returned so the caller can warn about them.
func (c *Catalog) Resolve(names []string) (Map, []string) {
	resolved := make(Map, len(names))
	var unknown []string
	for _, name := range names {
		ext, ok := c.byName[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		resolved[name] = ext.Clone()
	}
	return resolved, unknown
}
