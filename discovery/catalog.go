// Package discovery keeps modules of singleton definitions under path-like names
// ("services/users", "web/routes/health") and registers the ones matching glob patterns.
package discovery

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"github.com/andriiyaremenko/tinyioc"
)

const separator = '/'

type module struct {
	path       string
	singletons []tinyioc.Singleton
}

// Catalog is a set of modules. It is safe for concurrent use.
type Catalog struct {
	modules []*module
	mu      sync.RWMutex
}

func NewCatalog() *Catalog {
	return &Catalog{}
}

// Add appends singletons to module at path.
func (c *Catalog) Add(path string, singletons ...tinyioc.Singleton) *Catalog {
	path = strings.Trim(path, string(separator))

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.modules {
		if m.path == path {
			m.singletons = append(m.singletons, singletons...)
			return c
		}
	}

	c.modules = append(c.modules, &module{path: path, singletons: singletons})

	return c
}

// Paths of modules in the order they were added.
func (c *Catalog) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	paths := make([]string, 0, len(c.modules))
	for _, m := range c.modules {
		paths = append(paths, m.path)
	}

	return paths
}

// Match returns paths matching patterns, in the order modules were added.
//
// Pattern without glob characters matches the path itself and everything below it.
// Pattern starting with "!" excludes what it matches.
// Only exclusions (or no patterns at all) match every path not excluded.
func (c *Catalog) Match(patterns ...string) ([]string, error) {
	var include, exclude []glob.Glob

	for _, pattern := range patterns {
		negated := strings.HasPrefix(pattern, "!")
		if negated {
			pattern = pattern[1:]
		}

		g, err := compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}

		if negated {
			exclude = append(exclude, g)
		} else {
			include = append(include, g)
		}
	}

	var matched []string

	for _, path := range c.Paths() {
		if len(include) > 0 && !matchAny(include, path) {
			continue
		}

		if matchAny(exclude, path) || slices.Contains(matched, path) {
			continue
		}

		matched = append(matched, path)
	}

	return matched, nil
}

// RegisterMatching registers singletons of every matching module into ctx.
// Definitions are copied so one Catalog can feed several contexts.
func (c *Catalog) RegisterMatching(ctx *tinyioc.Context, patterns ...string) error {
	paths, err := c.Match(patterns...)
	if err != nil {
		return err
	}

	for _, path := range paths {
		for _, singleton := range c.singletons(path) {
			if def, ok := singleton.(*tinyioc.ObjectDefinition); ok && def != nil {
				singleton = def.Copy()
			}

			if err := ctx.RegisterSingletons(singleton); err != nil {
				return fmt.Errorf("module %s: %w", path, err)
			}
		}
	}

	return nil
}

func (c *Catalog) singletons(path string) []tinyioc.Singleton {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, m := range c.modules {
		if m.path == path {
			return slices.Clone(m.singletons)
		}
	}

	return nil
}

// anyOf matches when any of its globs does.
type anyOf []glob.Glob

func (globs anyOf) Match(path string) bool {
	return matchAny(globs, path)
}

func compile(pattern string) (glob.Glob, error) {
	pattern = strings.Trim(pattern, string(separator))

	if hasMeta(pattern) {
		return glob.Compile(pattern, separator)
	}

	quoted := glob.QuoteMeta(pattern)

	self, err := glob.Compile(quoted, separator)
	if err != nil {
		return nil, err
	}

	below, err := glob.Compile(quoted+"/**", separator)
	if err != nil {
		return nil, err
	}

	return anyOf{self, below}, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}

func matchAny(globs []glob.Glob, path string) bool {
	for _, g := range globs {
		if g.Match(path) {
			return true
		}
	}

	return false
}
