// Package detector picks the output mode for plans and argument listings.
package detector

import (
	"os"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents how results are printed.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeStyled prints coloured text for a terminal.
	ModeStyled
	// ModePlain prints uncoloured text for pipes and CI logs.
	ModePlain
	// ModeJSON prints machine readable JSON.
	ModeJSON
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeStyled:
		return "styled"
	case ModePlain:
		return "text"
	case ModeJSON:
		return "json"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended mode for the current stdout.
func DetectEnvironment() OutputMode {
	return Detect(term.IsTerminal(int(os.Stdout.Fd())), os.Getenv)
}

// Detect returns ModeStyled on an interactive terminal outside CI and
// ModePlain otherwise.
func Detect(isTTY bool, getenv func(string) string) OutputMode {
	ci := getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI {
		return ModePlain
	}
	return ModeStyled
}

// ResolveMode applies the --output flag to auto-detection.
// userFlag should be one of: "auto", "text", "json", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) (OutputMode, error) {
	switch userFlag {
	case "auto", "":
		return autoDetected, nil
	case "text":
		if autoDetected == ModeStyled {
			return ModeStyled, nil
		}
		return ModePlain, nil
	case "json":
		return ModeJSON, nil
	default:
		return ModeAuto, zerr.With(zerr.Wrap(domain.ErrInvalidOutputMode, "unknown output mode"), "output", userFlag)
	}
}
