package domain

import (
	"sync"

	"go.trai.ch/zerr"
)

// Argument is a launch argument declared by a descriptor.
type Argument struct {
	// Name is unique within one descriptor scope.
	Name string
	// Default may contain substitutions. A nil Default makes the argument required.
	Default *string
	// Description is shown by the args command.
	Description string
}

// HasDefault reports whether the argument declares a default value.
func (a Argument) HasDefault() bool { return a.Default != nil }

// Origin records where the effective value of an argument came from.
type Origin uint8

const (
	// OriginDefault means the declared default was used.
	OriginDefault Origin = iota
	// OriginInclude means the including descriptor passed the value.
	OriginInclude
	// OriginCommandLine means the value was given on the command line.
	OriginCommandLine
)

func (o Origin) String() string {
	switch o {
	case OriginInclude:
		return "include"
	case OriginCommandLine:
		return "command-line"
	default:
		return "default"
	}
}

// Binding is the effective, not yet resolved, source of an argument value.
type Binding struct {
	Name   string
	Origin Origin
	// Raw is the value text.
	Raw string
	// Scope is the registry Raw must be evaluated in: the declaring scope for
	// defaults, the including scope for passed values and nil for command line values.
	Scope *ArgumentRegistry
}

// IsTemplate reports whether Raw still needs substitution.
func (b Binding) IsTemplate() bool { return b.Scope != nil }

type passedValue struct {
	raw  string
	from *ArgumentRegistry
}

// ArgumentEntry is one row of the flattened argument registry.
type ArgumentEntry struct {
	Scope       string
	Name        string
	Value       string
	Origin      Origin
	Description string
}

// ArgumentRegistry holds the arguments of one descriptor scope together with
// the values passed by the including scope and the command line overrides.
// Resolved values are memoized and never change once settled.
type ArgumentRegistry struct {
	scope       string
	commandLine map[string]string

	declared map[string]Argument
	order    []string
	passed   map[string]passedValue
	passOrd  []string

	mu       sync.Mutex
	resolved map[string]string
}

// NewArgumentRegistry creates the registry for the scope identified by scope
// (the canonical descriptor path). commandLine is shared and must not be mutated.
func NewArgumentRegistry(scope string, commandLine map[string]string) *ArgumentRegistry {
	return &ArgumentRegistry{
		scope:       scope,
		commandLine: commandLine,
		declared:    make(map[string]Argument),
		passed:      make(map[string]passedValue),
		resolved:    make(map[string]string),
	}
}

// Scope returns the scope identifier.
func (r *ArgumentRegistry) Scope() string { return r.scope }

// Declare adds an argument to the scope.
func (r *ArgumentRegistry) Declare(arg Argument) error {
	if _, exists := r.declared[arg.Name]; exists {
		return zerr.With(zerr.With(zerr.Wrap(ErrDuplicateArgument, "argument declared more than once"),
			"argument", arg.Name), "scope", r.scope)
	}
	r.declared[arg.Name] = arg
	r.order = append(r.order, arg.Name)
	return nil
}

// Pass records a value handed down by the including scope. raw is evaluated
// lazily in from. Passing a name twice keeps the last value.
func (r *ArgumentRegistry) Pass(name, raw string, from *ArgumentRegistry) {
	if _, exists := r.passed[name]; !exists {
		r.passOrd = append(r.passOrd, name)
	}
	r.passed[name] = passedValue{raw: raw, from: from}
}

// Knows reports whether name is declared in or passed to this scope.
func (r *ArgumentRegistry) Knows(name string) bool {
	_, declared := r.declared[name]
	_, passed := r.passed[name]
	return declared || passed
}

// Binding returns the effective binding of name: command line, then passed value, then default.
func (r *ArgumentRegistry) Binding(name string) (Binding, error) {
	if !r.Knows(name) {
		return Binding{}, zerr.With(zerr.With(zerr.Wrap(ErrUnresolvedArgument, "argument is not declared"),
			"argument", name), "scope", r.scope)
	}
	if v, ok := r.commandLine[name]; ok {
		return Binding{Name: name, Origin: OriginCommandLine, Raw: v}, nil
	}
	if v, ok := r.passed[name]; ok {
		return Binding{Name: name, Origin: OriginInclude, Raw: v.raw, Scope: v.from}, nil
	}
	arg := r.declared[name]
	if !arg.HasDefault() {
		return Binding{}, zerr.With(zerr.With(zerr.Wrap(ErrUnresolvedArgument, "argument has no default and no value was given"),
			"argument", name), "scope", r.scope)
	}
	return Binding{Name: name, Origin: OriginDefault, Raw: *arg.Default, Scope: r}, nil
}

// Settle memoizes the resolved value of name. The first settled value wins.
func (r *ArgumentRegistry) Settle(name, value string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.resolved[name]; ok {
		return existing
	}
	r.resolved[name] = value
	return value
}

// Resolved returns the memoized value of name.
func (r *ArgumentRegistry) Resolved(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.resolved[name]
	return v, ok
}

// Arguments returns the declared arguments in declaration order.
func (r *ArgumentRegistry) Arguments() []Argument {
	out := make([]Argument, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.declared[name])
	}
	return out
}

// Names returns declared names in declaration order followed by passed-only names in pass order.
func (r *ArgumentRegistry) Names() []string {
	names := append([]string(nil), r.order...)
	for _, name := range r.passOrd {
		if _, declared := r.declared[name]; !declared {
			names = append(names, name)
		}
	}
	return names
}

// Entries returns the flattened view of every settled argument, ordered as Names.
func (r *ArgumentRegistry) Entries() []ArgumentEntry {
	var entries []ArgumentEntry
	for _, name := range r.Names() {
		value, ok := r.Resolved(name)
		if !ok {
			continue
		}
		b, err := r.Binding(name)
		if err != nil {
			continue
		}
		entries = append(entries, ArgumentEntry{
			Scope:       r.scope,
			Name:        name,
			Value:       value,
			Origin:      b.Origin,
			Description: r.declared[name].Description,
		})
	}
	return entries
}
