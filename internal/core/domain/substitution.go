package domain

// Substitution vocabulary shared by descriptor loaders and the evaluator.
// Templates use HCL syntax: "${var.name}", "${pkg_share(\"pkg\")}/param/x.yaml".
const (
	// ArgumentRoot is the variable holding launch arguments.
	ArgumentRoot = "var"

	// FuncPackageShare returns the share directory of a package.
	FuncPackageShare = "pkg_share"
	// FuncPackagePrefix returns the install prefix of a package.
	FuncPackagePrefix = "pkg_prefix"
	// FuncSharePath joins a relative path onto a package share directory.
	FuncSharePath = "share_path"
	// FuncEnv reads the environment snapshot, with an optional fallback.
	FuncEnv = "env"
	// FuncDirname returns the directory of the current descriptor.
	FuncDirname = "dirname"
)

// SubstitutionFunctions lists every function name in a stable order.
var SubstitutionFunctions = []string{
	FuncPackageShare,
	FuncPackagePrefix,
	FuncSharePath,
	FuncEnv,
	FuncDirname,
}
