package domain

import "go.trai.ch/zerr"

var (
	// ErrPackageNotFound is returned when the package index does not know a package.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrInvalidPath is returned when a relative asset path escapes the package share directory
	// or a path value is malformed.
	ErrInvalidPath = zerr.New("invalid path")

	// ErrDuplicateArgument is returned when an argument is declared twice in the same scope.
	ErrDuplicateArgument = zerr.New("duplicate argument")

	// ErrUnresolvedArgument is returned when an argument reference has neither an override nor a default.
	ErrUnresolvedArgument = zerr.New("unresolved argument")

	// ErrDuplicateRemapping is returned when a node remaps the same source topic twice.
	ErrDuplicateRemapping = zerr.New("duplicate remapping")

	// ErrCyclicInclude is returned when a descriptor includes itself directly or transitively.
	ErrCyclicInclude = zerr.New("cyclic include")

	// ErrArgumentCycle is returned when argument defaults refer to each other in a loop.
	ErrArgumentCycle = zerr.New("argument default refers back to itself")

	// ErrInvalidSubstitution is returned when a substitution template cannot be parsed or evaluated.
	ErrInvalidSubstitution = zerr.New("invalid substitution")

	// ErrUndefinedEnvironment is returned when an env substitution names an unset variable without fallback.
	ErrUndefinedEnvironment = zerr.New("environment variable not set")

	// ErrInvalidCondition is returned when an if/unless condition is not a boolean literal.
	ErrInvalidCondition = zerr.New("condition must evaluate to true, false, 1 or 0")

	// ErrInvalidNodeSpec is returned when a node declaration misses its package or executable.
	ErrInvalidNodeSpec = zerr.New("invalid node declaration")

	// ErrInvalidParameter is returned when a parameter value has an unsupported shape.
	ErrInvalidParameter = zerr.New("invalid parameter")

	// ErrInvalidRemapping is returned when a remapping has an empty source or target.
	ErrInvalidRemapping = zerr.New("invalid remapping")

	// ErrDescriptorNotFound is returned when a launch descriptor file does not exist.
	ErrDescriptorNotFound = zerr.New("launch descriptor not found")

	// ErrDescriptorReadFailed is returned when a launch descriptor cannot be read.
	ErrDescriptorReadFailed = zerr.New("failed to read launch descriptor")

	// ErrDescriptorParseFailed is returned when a launch descriptor is malformed.
	ErrDescriptorParseFailed = zerr.New("failed to parse launch descriptor")

	// ErrUnsupportedDescriptor is returned for descriptor files with an unknown extension.
	ErrUnsupportedDescriptor = zerr.New("unsupported launch descriptor format")

	// ErrInvalidOverride is returned when a command line override is not of the form name:=value.
	ErrInvalidOverride = zerr.New("argument override must have the form name:=value")

	// ErrInvalidTarget is returned when a command names neither a descriptor nor a package and launch file.
	ErrInvalidTarget = zerr.New("expected a launch descriptor path or a package and a launch file name")

	// ErrPlanNotFound is returned when a stored launch plan does not exist.
	ErrPlanNotFound = zerr.New("launch plan not found")

	// ErrPlanStoreFailed is returned when the plan store cannot read or write a plan.
	ErrPlanStoreFailed = zerr.New("plan store failure")

	// ErrProcessFailed is returned when a supervised process exits unsuccessfully.
	ErrProcessFailed = zerr.New("process failed")

	// ErrInvalidOutputMode is returned for an unknown --output value.
	ErrInvalidOutputMode = zerr.New("output must be auto, text or json")

	// ErrWatcherFailed is returned when descriptor watching cannot be set up.
	ErrWatcherFailed = zerr.New("failed to watch launch descriptors")
)
