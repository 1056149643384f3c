// Package i18n holds the UI string catalogs and the lookup used by every
// user-visible message the backend produces.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is the language every lookup falls back to.
const DefaultLanguage = "en"

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// entry is a flattened catalog value: either a single string or a list.
type entry struct {
	text string
	list []string
}

type Catalog struct {
	langs    map[string]map[string]entry
	order    []string
	fallback string
	matcher  language.Matcher

	// preferred is what Match and Normalize return when nothing matches.
	preferred string
}

// Load parses the embedded catalogs. The default language catalog must exist.
func Load() (*Catalog, error) {
	files, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil, fmt.Errorf("failed to read catalogs: %w", err)
	}

	c := &Catalog{
		langs:     make(map[string]map[string]entry),
		fallback:  DefaultLanguage,
		preferred: DefaultLanguage,
	}

	for _, f := range files {
		if f.IsDir() || path.Ext(f.Name()) != ".yaml" {
			continue
		}
		lang := strings.TrimSuffix(f.Name(), ".yaml")

		raw, err := catalogFS.ReadFile(path.Join("catalogs", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog %s: %w", lang, err)
		}

		entries, err := parseCatalog(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse catalog %s: %w", lang, err)
		}
		c.langs[lang] = entries
	}

	if _, ok := c.langs[c.fallback]; !ok {
		return nil, fmt.Errorf("default catalog %q is missing", c.fallback)
	}

	// Default language first so the matcher prefers it on ties.
	c.order = append(c.order, c.fallback)
	for lang := range c.langs {
		if lang != c.fallback {
			c.order = append(c.order, lang)
		}
	}
	sort.Strings(c.order[1:])

	tags := make([]language.Tag, 0, len(c.order))
	for _, lang := range c.order {
		tags = append(tags, language.Make(lang))
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

func parseCatalog(raw []byte) (map[string]entry, error) {
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}

	out := make(map[string]entry)
	if err := flatten("", tree, out); err != nil {
		return nil, err
	}
	return out, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]entry) error {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			out[key] = entry{text: val}
		case []interface{}:
			list := make([]string, 0, len(val))
			for _, item := range val {
				s, ok := item.(string)
				if !ok {
					return fmt.Errorf("list %s contains a non-string item", key)
				}
				list = append(list, s)
			}
			out[key] = entry{list: list}
		case map[string]interface{}:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported value for %s: %T", key, v)
		}
	}
	return nil
}

// Languages returns the supported language codes, default first.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.order...)
}

// Supports reports whether lang has its own catalog.
func (c *Catalog) Supports(lang string) bool {
	_, ok := c.langs[lang]
	return ok
}

// T returns the localized string for key. Keys missing in lang fall back to
// the default language; a key missing everywhere is returned as-is.
func (c *Catalog) T(lang, key string) string {
	if e, ok := c.lookup(lang, key); ok && e.text != "" {
		return e.text
	}
	if e, ok := c.lookup(c.fallback, key); ok && e.text != "" {
		return e.text
	}
	return key
}

// List returns the localized list stored under key, with the same fallback as T.
func (c *Catalog) List(lang, key string) []string {
	if e, ok := c.lookup(lang, key); ok && len(e.list) > 0 {
		return append([]string(nil), e.list...)
	}
	if e, ok := c.lookup(c.fallback, key); ok && len(e.list) > 0 {
		return append([]string(nil), e.list...)
	}
	return nil
}

func (c *Catalog) lookup(lang, key string) (entry, bool) {
	entries, ok := c.langs[lang]
	if !ok {
		return entry{}, false
	}
	e, ok := entries[key]
	return e, ok
}

// Match picks the best supported language for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.preferred
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.preferred
	}
	return c.order[idx]
}

// Normalize maps a user-supplied language code onto a supported one.
func (c *Catalog) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if c.Supports(lang) {
		return lang
	}
	if lang == "" {
		return c.preferred
	}
	return c.Match(lang)
}

// SetPreferred changes the language picked for clients whose language cannot
// be matched. Missing keys still fall back to DefaultLanguage.
func (c *Catalog) SetPreferred(lang string) error {
	if !c.Supports(lang) {
		return fmt.Errorf("no catalog for language %q", lang)
	}
	c.preferred = lang
	return nil
}

// Bundle flattens every key for lang into one map, default values filling gaps.
// List values are returned as []string.
func (c *Catalog) Bundle(lang string) map[string]interface{} {
	out := make(map[string]interface{})
	for key, e := range c.langs[c.fallback] {
		if e.list != nil {
			out[key] = c.List(lang, key)
		} else {
			out[key] = c.T(lang, key)
		}
	}
	return out
}
