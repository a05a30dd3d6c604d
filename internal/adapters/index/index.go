// Package index finds installed packages in ament install prefixes.
package index

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

// Ament implements ports.PackageIndex over a list of install prefixes. A
// package is installed in a prefix when the prefix holds its marker file in
// the ament resource index.
type Ament struct {
	prefixes []string

	mu   sync.Mutex
	seen map[string]string
}

// NewAment returns an index searching prefixes in order. Empty entries are ignored.
func NewAment(prefixes []string) *Ament {
	clean := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		clean = append(clean, filepath.Clean(p))
	}
	return &Ament{prefixes: clean, seen: make(map[string]string)}
}

// FromEnv returns an index over the prefixes listed in AMENT_PREFIX_PATH.
func FromEnv(getenv func(string) string) *Ament {
	return NewAment(filepath.SplitList(getenv(domain.PrefixPathEnv)))
}

// Prefixes returns the searched prefixes in order.
func (a *Ament) Prefixes() []string {
	return append([]string(nil), a.prefixes...)
}

// Lookup returns the first prefix holding the package marker.
func (a *Ament) Lookup(pkg string) (string, bool) {
	if !validName(pkg) {
		return "", false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if prefix, ok := a.seen[pkg]; ok {
		return prefix, true
	}
	for _, prefix := range a.prefixes {
		info, err := os.Stat(filepath.Join(prefix, domain.PackageMarkerDir, pkg))
		if err != nil || info.IsDir() {
			continue
		}
		a.seen[pkg] = prefix
		return prefix, true
	}
	return "", false
}

// Static implements ports.PackageIndex over an explicit package to prefix map.
type Static map[string]string

// Lookup returns the configured prefix.
func (s Static) Lookup(pkg string) (string, bool) {
	prefix, ok := s[pkg]
	return prefix, ok
}

// ParseMapping parses NAME=PREFIX entries into a Static index.
func ParseMapping(entries []string) (Static, error) {
	out := make(Static, len(entries))
	for _, entry := range entries {
		name, prefix, ok := strings.Cut(entry, "=")
		if !ok || !validName(name) || prefix == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPath, "package mapping must have the form NAME=PREFIX"),
				"package", entry)
		}
		if !filepath.IsAbs(prefix) {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPath, "package prefix must be absolute"),
				"package", name), "path", prefix)
		}
		out[name] = filepath.Clean(prefix)
	}
	return out, nil
}

// Chain asks each index in order and returns the first hit.
type Chain []ports.PackageIndex

// Lookup implements ports.PackageIndex.
func (c Chain) Lookup(pkg string) (string, bool) {
	for _, idx := range c {
		if idx == nil {
			continue
		}
		if prefix, ok := idx.Lookup(pkg); ok {
			return prefix, true
		}
	}
	return "", false
}

func validName(pkg string) bool {
	return pkg != "" && pkg != "." && pkg != ".." && !strings.ContainsAny(pkg, `/\`)
}
