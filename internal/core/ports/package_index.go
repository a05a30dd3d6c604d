package ports

// PackageIndex defines the interface of an installed-package registry.
//
//go:generate mockgen -source=package_index.go -destination=mocks/mock_package_index.go -package=mocks
type PackageIndex interface {
	// Lookup returns the install prefix of the package, or false when the package is unknown.
	Lookup(pkg string) (prefix string, found bool)
}
