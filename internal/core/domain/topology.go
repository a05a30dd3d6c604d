package domain

import (
	"iter"
	"path"
	"strings"
)

// ResolvedParameter is a substituted parameter.
type ResolvedParameter struct {
	Name  string
	Value Value
}

// IsFile reports whether the parameter is a parameter file.
func (p ResolvedParameter) IsFile() bool { return p.Name == "" }

// ResolvedNode is a node with every substitution applied and defaults assigned.
//
// Defaulting rules: an unset namespace becomes the root namespace (empty string);
// an unset name becomes the executable name and NameExplicit stays false so the
// emitted command line leaves the node's own default name untouched.
type ResolvedNode struct {
	Package      string
	Executable   string
	Prefix       string
	Namespace    string
	Name         string
	NameExplicit bool
	Parameters   []ResolvedParameter
	Remappings   []Remapping
	Args         []string
	Env          []EnvVar
	Cwd          string
	// Scope is the canonical path of the declaring descriptor.
	Scope string
}

// FullyQualifiedName returns the node name including its namespace, e.g. /control/mpc_controller.
func (n ResolvedNode) FullyQualifiedName() string {
	return path.Join("/", n.Namespace, n.Name)
}

// ResolvedTopology is the ordered, fully resolved set of nodes of one launch
// together with the flattened argument registry.
type ResolvedTopology struct {
	// Root is the canonical path of the root descriptor.
	Root      string
	Nodes     []ResolvedNode
	Arguments []ArgumentEntry
}

// Walk yields the nodes in launch order.
func (t *ResolvedTopology) Walk() iter.Seq2[int, ResolvedNode] {
	return func(yield func(int, ResolvedNode) bool) {
		for i, n := range t.Nodes {
			if !yield(i, n) {
				return
			}
		}
	}
}

// DuplicateNames returns fully qualified names used by more than one node, in first-seen order.
func (t *ResolvedTopology) DuplicateNames() []string {
	seen := make(map[string]int, len(t.Nodes))
	var dups []string
	for _, n := range t.Nodes {
		fq := n.FullyQualifiedName()
		seen[fq]++
		if seen[fq] == 2 {
			dups = append(dups, fq)
		}
	}
	return dups
}

// NormalizeNamespace turns a namespace into its absolute form without trailing slash.
// The empty namespace stays empty.
func NormalizeNamespace(ns string) string {
	ns = strings.Trim(ns, "/")
	if ns == "" {
		return ""
	}
	return "/" + ns
}
