// Package scalar types and quotes parameter values the way ROS reads them
// back: as YAML.
package scalar

import (
	"strconv"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// YAML 1.1 booleans accepted by the ROS parameter parser.
var legacyBools = map[string]bool{
	"true": true, "True": true, "TRUE": true,
	"yes": true, "Yes": true, "YES": true,
	"on": true, "On": true, "ON": true,
	"false": false, "False": false, "FALSE": false,
	"no": false, "No": false, "NO": false,
	"off": false, "Off": false, "OFF": false,
}

// Infer types the text of a substituted value: numbers and booleans become
// typed values, everything else stays a string.
func Infer(text string) domain.Value {
	if b, ok := legacyBools[text]; ok {
		return domain.BoolValue(b)
	}
	node, ok := parsePlain(text)
	if !ok {
		return domain.StringValue(text)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		return domain.NumberValue(node.Value)
	default:
		return domain.StringValue(text)
	}
}

// Literal renders v for a -p name:=value argument. Strings that would read
// back as another type, or that do not survive as one list item, are quoted.
func Literal(v domain.Value) string {
	switch v.Kind() {
	case domain.KindString, domain.KindPath:
		return quote(v.Text(), false)
	case domain.KindList:
		items := v.Items()
		parts := make([]string, len(items))
		for i, item := range items {
			if item.Kind() == domain.KindString || item.Kind() == domain.KindPath {
				parts[i] = quote(item.Text(), true)
				continue
			}
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return v.String()
	}
}

func quote(s string, inFlow bool) string {
	if isPlainString(s, inFlow) {
		return s
	}
	return strconv.Quote(s)
}

func isPlainString(s string, inFlow bool) bool {
	if s == "" || (inFlow && strings.ContainsAny(s, ",[]{}")) {
		return false
	}
	if _, ok := legacyBools[s]; ok {
		return false
	}
	node, ok := parsePlain(s)
	return ok && node.ShortTag() == "!!str" && node.Value == s
}

// parsePlain parses text as a YAML document holding one plain scalar.
func parsePlain(text string) (*yaml.Node, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil || len(doc.Content) != 1 {
		return nil, false
	}
	node := doc.Content[0]
	if node.Kind != yaml.ScalarNode || node.Style != 0 {
		return nil, false
	}
	return node, true
}
