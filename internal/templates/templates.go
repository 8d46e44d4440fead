// Package templates loads named page templates from a YAML catalogue.
// Templates are read-only inputs to the operation engine.
package templates

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/cache"
)

const catalogueKey = "templates:catalogue"

// placeholderRe matches {variable_name} tokens in block content.
var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// BlockSpec is one block of a template: content with optional {placeholder}
// tokens plus an optional property mapping.
type BlockSpec struct {
	Content    string            `yaml:"content"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Template is a named ordered sequence of block specifications.
type Template struct {
	Name   string      `yaml:"name"`
	Blocks []BlockSpec `yaml:"blocks"`
}

type catalogue struct {
	Templates []Template `yaml:"templates"`
}

// Store reads templates from a YAML file through a TTL cache, so repeated
// tool calls do not re-read the file on every invocation.
type Store struct {
	path  string
	cache *cache.Cache[map[string]Template]
}

// NewStore creates a store for the catalogue at path.
func NewStore(path string, c *cache.Cache[map[string]Template]) *Store {
	return &Store{path: path, cache: c}
}

// Get returns the named template or a not_found error.
func (s *Store) Get(name string) (*Template, error) {
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	t, ok := all[name]
	if !ok {
		return nil, apperr.NotFound("template %q is not defined in %s", name, s.path)
	}
	return &t, nil
}

// List returns the defined template names, sorted.
func (s *Store) List() ([]string, error) {
	all, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Invalidate drops the cached catalogue so the next read hits the file.
func (s *Store) Invalidate() {
	s.cache.Invalidate(catalogueKey)
}

func (s *Store) load() (map[string]Template, error) {
	return s.cache.GetOrFetch(catalogueKey, func() (map[string]Template, error) {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperr.NotFound("template catalogue not found: %s", s.path)
			}
			return nil, fmt.Errorf("templates: read %s: %w", s.path, err)
		}
		var cat catalogue
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fmt.Errorf("templates: parse %s: %w", s.path, err)
		}
		out := make(map[string]Template, len(cat.Templates))
		for _, t := range cat.Templates {
			out[t.Name] = t
		}
		return out, nil
	})
}

// Render substitutes {name} placeholders in content from vars. A
// placeholder with no supplied value is kept verbatim so the omission is
// visible in the output rather than silently dropped.
func Render(content string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}
