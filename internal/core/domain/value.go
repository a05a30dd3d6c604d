package domain

import (
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	// KindInvalid is the zero Kind.
	KindInvalid Kind = iota
	// KindString is a text value which may contain substitutions.
	KindString
	// KindNumber is a numeric literal kept in its canonical text form.
	KindNumber
	// KindBool is a boolean.
	KindBool
	// KindPath is a filesystem path which may contain substitutions.
	KindPath
	// KindList is an ordered list of values.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindPath:
		return "path"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Value is a tagged variant: string | number | bool | path | list.
// The zero Value is invalid.
type Value struct {
	kind    Kind
	text    string
	boolean bool
	items   []Value
}

// StringValue returns a string Value.
func StringValue(s string) Value {
	return Value{kind: KindString, text: s}
}

// NumberValue returns a number Value from its literal text, e.g. "600" or "0.5".
func NumberValue(literal string) Value {
	return Value{kind: KindNumber, text: literal}
}

// BoolValue returns a bool Value.
func BoolValue(b bool) Value {
	return Value{kind: KindBool, boolean: b}
}

// PathValue returns a path Value.
func PathValue(p string) Value {
	return Value{kind: KindPath, text: p}
}

// ListValue returns a list Value holding a copy of items.
func ListValue(items ...Value) Value {
	return Value{kind: KindList, items: append([]Value(nil), items...)}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a variant.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Text returns the text of string, path and number values.
func (v Value) Text() string { return v.text }

// Bool returns the boolean of a bool value.
func (v Value) Bool() bool { return v.boolean }

// Items returns a copy of the elements of a list value.
func (v Value) Items() []Value {
	return append([]Value(nil), v.items...)
}

// WithText returns a copy of a string or path value with new text, keeping the kind.
func (v Value) WithText(text string) Value {
	return Value{kind: v.kind, text: text}
}

// String renders the value the way it is passed on a ROS command line:
// bools as true/false, lists as [a, b].
func (v Value) String() string {
	switch v.kind {
	case KindString, KindPath, KindNumber:
		return v.text
	case KindBool:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindList:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.text != other.text || v.boolean != other.boolean {
		return false
	}
	if len(v.items) != len(other.items) {
		return false
	}
	for i := range v.items {
		if !v.items[i].Equal(other.items[i]) {
			return false
		}
	}
	return true
}
