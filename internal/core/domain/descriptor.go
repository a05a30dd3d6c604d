package domain

// PassedArgument is a value an include hands to the included descriptor.
type PassedArgument struct {
	Name  string
	Value string
}

// IncludeRef includes another descriptor. Source may contain substitutions and may be
// relative to the including descriptor's directory.
type IncludeRef struct {
	Source    string
	Arguments []PassedArgument
	Condition Condition
}

// Descriptor is one parsed launch descriptor.
type Descriptor struct {
	// Source is the canonical path of the descriptor file.
	Source    string
	Arguments []Argument
	Nodes     []NodeSpec
	Includes  []IncludeRef
}
