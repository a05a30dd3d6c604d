package domain

// Parameter is one entry of a node's ordered parameter list.
// An empty Name denotes a parameter file whose path is Value.
type Parameter struct {
	Name  string
	Value Value
}

// IsFile reports whether the parameter is a parameter file.
func (p Parameter) IsFile() bool { return p.Name == "" }

// Remapping renames the topic From to To.
type Remapping struct {
	From string
	To   string
}

// EnvVar is a name/value pair added to a process environment.
type EnvVar struct {
	Name  string
	Value string
}

// Condition gates a node or include. Both fields may contain substitutions.
type Condition struct {
	If     string
	Unless string
}

// IsZero reports whether no condition is set.
func (c Condition) IsZero() bool { return c.If == "" && c.Unless == "" }

// NodeSpec is a node declaration as written in a descriptor. Text fields may contain substitutions.
type NodeSpec struct {
	Package    string
	Executable string
	// Namespace and Name are optional; see ResolvedNode for the defaulting rules.
	Namespace  string
	Name       string
	Parameters []Parameter
	Remappings []Remapping
	Args       []string
	Env        []EnvVar
	Cwd        string
	Condition  Condition
}

// Label identifies the declaration in error messages before it is resolved.
func (n NodeSpec) Label() string {
	label := n.Package + "/" + n.Executable
	if n.Name != "" {
		label += " (" + n.Name + ")"
	}
	return label
}
