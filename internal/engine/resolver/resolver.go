// Package resolver maps package names to installed directories.
package resolver

import (
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

// PathResolver resolves packages against a package index.
// Lookups are memoized, so a package resolves to the same prefix for the
// lifetime of the resolver. It is safe for concurrent use.
type PathResolver struct {
	index    ports.PackageIndex
	prefixes sync.Map // map[string]string
}

// New creates a PathResolver backed by index.
func New(index ports.PackageIndex) *PathResolver {
	return &PathResolver{index: index}
}

// Resolve returns the absolute install prefix of pkg.
func (r *PathResolver) Resolve(pkg string) (string, error) {
	if cached, ok := r.prefixes.Load(pkg); ok {
		return cached.(string), nil //nolint:forcetypeassert // only strings are stored
	}
	if pkg == "" {
		return "", zerr.Wrap(domain.ErrPackageNotFound, "package name is empty")
	}

	prefix, found := r.index.Lookup(pkg)
	if !found {
		return "", zerr.With(zerr.Wrap(domain.ErrPackageNotFound, "package is not installed"), "package", pkg)
	}

	abs, err := filepath.Abs(prefix)
	if err != nil {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidPath, "install prefix cannot be made absolute"), "package", pkg)
	}

	actual, _ := r.prefixes.LoadOrStore(pkg, abs)
	return actual.(string), nil //nolint:forcetypeassert // only strings are stored
}

// ShareDir returns the share directory of pkg: <prefix>/share/<pkg>.
func (r *PathResolver) ShareDir(pkg string) (string, error) {
	prefix, err := r.Resolve(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Join(prefix, domain.ShareDirName, pkg), nil
}

// JoinShare joins rel onto the share directory of pkg. rel must be relative
// and must stay inside the share directory once cleaned.
func (r *PathResolver) JoinShare(pkg, rel string) (string, error) {
	share, err := r.ShareDir(pkg)
	if err != nil {
		return "", err
	}

	if filepath.IsAbs(rel) {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPath, "share path must be relative"),
			"package", pkg), "path", rel)
	}

	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPath, "path escapes the package share directory"),
			"package", pkg), "path", rel)
	}

	return filepath.Join(share, cleaned), nil
}

// ExecutablePath returns where the executable of a package lives below prefix: <prefix>/lib/<pkg>/<exe>.
func ExecutablePath(prefix, pkg, executable string) string {
	return filepath.Join(prefix, domain.LibDirName, pkg, executable)
}
