// Package localization resolves display strings from embedded resource files.
//
// Resources live in resources/<scope>.<lang>.json as flat key/value objects.
// Lookups fall back to the default language and finally report ResourceNotFound.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/language"
)

//go:embed resources/*.json
var embedded embed.FS

// ScopePages is the resource group used by every screen.
const ScopePages = "pages"

// String is one lookup result. Value is the key itself when not found.
type String struct {
	Name             string
	Value            string
	ResourceNotFound bool
}

func (s String) String() string { return s.Value }

// Localizer resolves keys within one scope and language.
type Localizer interface {
	Get(key string) String
}

// Bundle holds every language of every scope.
type Bundle struct {
	tags      []language.Tag
	matcher   language.Matcher
	resources map[language.Tag]map[string]map[string]string // lang -> scope -> key -> value
}

// Load reads the embedded resources.
func Load() (*Bundle, error) {
	return LoadFS(embedded, "resources")
}

// LoadFS reads resources from dir in fsys. The first language found for "en"
// becomes the default when present.
func LoadFS(fsys fs.FS, dir string) (*Bundle, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read resources: %w", err)
	}
	b := &Bundle{resources: map[language.Tag]map[string]map[string]string{}}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || path.Ext(name) != ".json" {
			continue
		}
		parts := strings.Split(strings.TrimSuffix(name, ".json"), ".")
		if len(parts) != 2 {
			continue
		}
		tag, err := language.Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var values map[string]string
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("resource %s: %w", name, err)
		}
		if _, ok := b.resources[tag]; !ok {
			b.resources[tag] = map[string]map[string]string{}
			b.tags = append(b.tags, tag)
		}
		b.resources[tag][parts[0]] = values
	}
	if len(b.tags) == 0 {
		return nil, fmt.Errorf("no resources in %s", dir)
	}
	// default language first so the matcher falls back to it
	for i, t := range b.tags {
		if t == language.English {
			b.tags[0], b.tags[i] = b.tags[i], b.tags[0]
			break
		}
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Languages lists the available languages, default first.
func (b *Bundle) Languages() []string {
	out := make([]string, 0, len(b.tags))
	for _, t := range b.tags {
		out = append(out, t.String())
	}
	return out
}

// Localizer returns a scoped localizer for the preferred language. Unknown or
// empty preferences use the default language.
func (b *Bundle) Localizer(scope, preferred string) Localizer {
	tag := b.tags[0]
	if preferred != "" {
		if want, err := language.Parse(preferred); err == nil {
			_, idx, conf := b.matcher.Match(want)
			if conf != language.No {
				tag = b.tags[idx]
			}
		}
	}
	return &scoped{
		name:     scope,
		values:   b.resources[tag][scope],
		fallback: b.resources[b.tags[0]][scope],
	}
}

type scoped struct {
	name     string
	values   map[string]string
	fallback map[string]string
}

func (s *scoped) Get(key string) String {
	if v, ok := s.values[key]; ok {
		return String{Name: key, Value: v}
	}
	if v, ok := s.fallback[key]; ok {
		return String{Name: key, Value: v}
	}
	return String{Name: key, Value: key, ResourceNotFound: true}
}

// Map is a Localizer over a fixed map, handy for tests and tools.
type Map map[string]string

func (m Map) Get(key string) String {
	if v, ok := m[key]; ok {
		return String{Name: key, Value: v}
	}
	return String{Name: key, Value: key, ResourceNotFound: true}
}

// Text returns the localized value or fallback when the key is missing.
func Text(l Localizer, key, fallback string) string {
	if l == nil {
		return fallback
	}
	s := l.Get(key)
	if s.ResourceNotFound {
		return fallback
	}
	return s.Value
}
