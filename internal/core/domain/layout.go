package domain

import "path/filepath"

const (
	// StateDirName is the name of the per-workspace state directory.
	StateDirName = ".stagehand"

	// PlansDirName is the directory holding stored launch plans.
	PlansDirName = "plans"

	// ShareDirName is the install-prefix directory holding package assets.
	ShareDirName = "share"

	// LibDirName is the install-prefix directory holding package executables.
	LibDirName = "lib"

	// LaunchDirName is the share sub-directory holding launch descriptors.
	LaunchDirName = "launch"

	// PackageMarkerDir is the ament resource index directory listing installed packages.
	PackageMarkerDir = "share/ament_index/resource_index/packages"

	// PrefixPathEnv lists install prefixes separated by the OS path list separator.
	PrefixPathEnv = "AMENT_PREFIX_PATH"

	// RunIDEnv is set on every supervised process.
	RunIDEnv = "STAGEHAND_RUN_ID"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultPlanStorePath returns the default directory for stored plans.
// It joins .stagehand and plans.
func DefaultPlanStorePath() string {
	return filepath.Join(StateDirName, PlansDirName)
}
