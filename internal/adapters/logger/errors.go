package logger

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// ErrorEntry is one link of an error chain.
type ErrorEntry struct {
	Message string
	// Metadata is nil for errors that are not zerr errors.
	Metadata map[string]any
}

// collectErrorEntries walks the chain of err. zerr links contribute their own
// message and metadata; the first foreign error ends the walk with its full text.
func collectErrorEntries(err error) []ErrorEntry {
	var entries []ErrorEntry
	for current := err; current != nil; {
		var z *zerr.Error
		if ze, ok := current.(*zerr.Error); ok {
			z = ze
		}
		if z == nil {
			entries = append(entries, ErrorEntry{Message: current.Error()})
			break
		}
		// zerr.With on a foreign error leaves an empty message behind.
		if z.Message() != "" || len(z.Metadata()) > 0 {
			entries = append(entries, ErrorEntry{Message: z.Message(), Metadata: z.Metadata()})
		}
		current = errors.Unwrap(current)
	}
	return entries
}

// formatErrorEntries renders entries as
//
//	Error: <message>
//	       key: value
//
//	  Caused by:
//	    → <message>
//	      key: value
func formatErrorEntries(entries []ErrorEntry) string {
	var lines []string
	for i, entry := range entries {
		head, indent := "    → ", "      "
		if i == 0 {
			head, indent = "Error: ", "       "
		} else if i == 1 {
			lines = append(lines, "", "  Caused by:")
		}

		msg := strings.Split(entry.Message, "\n")
		lines = append(lines, head+msg[0])
		for _, line := range msg[1:] {
			lines = append(lines, indent+line)
		}
		for _, key := range slices.Sorted(maps.Keys(entry.Metadata)) {
			lines = append(lines, fmt.Sprintf("%s%s: %v", indent, key, entry.Metadata[key]))
		}
	}
	return strings.Join(lines, "\n")
}
