package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var bundled []byte

// ErrUnknownExample is returned when a name is not part of the catalog.
var ErrUnknownExample = errors.New("unknown example")

// Directories the example files are served from.
const (
	DefactoDir = "defacto"
	DemoDir    = "demo"
)

// Question groups the test programs answering one semantic question.
type Question struct {
	Question string   `yaml:"question" json:"question" toml:"question"`
	Tests    []string `yaml:"tests" json:"tests" toml:"tests"`
}

// Section is a titled group of questions.
type Section struct {
	Section   string     `yaml:"section" json:"section" toml:"section"`
	Questions []Question `yaml:"questions" json:"questions" toml:"questions"`
}

// Catalog lists the bundled example programs: the de facto test suite, grouped by
// section and question, and the standalone demos.
type Catalog struct {
	Sections []Section `yaml:"sections" json:"sections" toml:"sections"`
	Demos    []string  `yaml:"demos" json:"demos" toml:"demos"`
}

// Entry locates one example.
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Section  string `json:"section,omitempty"`
	Question string `json:"question,omitempty"`
	Demo     bool   `json:"demo,omitempty"`
}

// Default returns the catalog shipped with the binary.
func Default() *Catalog {
	c, err := Parse(bundled, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("bundled catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. The format follows the extension: .json, .toml,
// anything else is YAML. A missing file yields the bundled catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes a catalog in the format named by ext.
func Parse(data []byte, ext string) (*Catalog, error) {
	var c Catalog
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog json: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog toml: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("failed to parse catalog yaml: %w", err)
		}
	}
	return &c, nil
}

// Entries lists every example, de facto tests first, in catalog order.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for _, s := range c.Sections {
		for _, q := range s.Questions {
			for _, name := range q.Tests {
				out = append(out, Entry{
					Name:     name,
					Path:     DefactoDir + "/" + name,
					Section:  s.Section,
					Question: q.Question,
				})
			}
		}
	}
	for _, name := range c.Demos {
		out = append(out, Entry{Name: name, Path: DemoDir + "/" + name, Demo: true})
	}
	return out
}

// Names lists every example name.
func (c *Catalog) Names() []string {
	entries := c.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Find looks an example up by name. The ".c" suffix may be omitted.
func (c *Catalog) Find(name string) (Entry, bool) {
	if !strings.HasSuffix(name, ".c") {
		name += ".c"
	}
	for _, e := range c.Entries() {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Path returns the fetch path of an example, e.g. "defacto/<name>".
// Unknown names report the closest matches.
func (c *Catalog) Path(name string) (string, error) {
	if e, ok := c.Find(name); ok {
		return e.Path, nil
	}
	if s := c.Suggest(name, 3); len(s) > 0 {
		return "", fmt.Errorf("%w: %q (did you mean %s?)", ErrUnknownExample, name, strings.Join(s, ", "))
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExample, name)
}

// Suggest returns up to n names closest to name by edit distance.
// Names further than half their length away are not suggested.
func (c *Catalog) Suggest(name string, n int) []string {
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, candidate := range c.Names() {
		d := levenshtein.ComputeDistance(name, candidate)
		if d > len(candidate)/2 {
			continue
		}
		candidates = append(candidates, scored{candidate, d})
	}
	slices.SortStableFunc(candidates, func(a, b scored) int {
		return a.dist - b.dist
	})

	var out []string
	for _, s := range candidates {
		if len(out) == n {
			break
		}
		out = append(out, s.name)
	}
	return out
}
