package app

import (
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// OverrideSeparator separates an argument name from its value on the command line.
const OverrideSeparator = ":="

// SplitArgs separates positional arguments into the launch target and
// name:=value overrides. A later override of the same name wins.
func SplitArgs(args []string) (target []string, overrides map[string]string, err error) {
	overrides = make(map[string]string)
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, OverrideSeparator)
		if !ok {
			target = append(target, arg)
			continue
		}
		if !validArgumentName(name) {
			return nil, nil, zerr.With(zerr.Wrap(domain.ErrInvalidOverride, "invalid argument name"), "argument", arg)
		}
		overrides[name] = value
	}
	return target, overrides, nil
}

func validArgumentName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
