// Package emitter serializes resolved topologies into launch plans.
package emitter

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/scalar"
	"go.trai.ch/zerr"
)

// RosArgsFlag opens the ROS section of a node command line.
const RosArgsFlag = "--ros-args"

// Options configures emission.
type Options struct {
	// WorkingDir is used for nodes that do not set cwd.
	WorkingDir string
}

// Emit converts topo into a launch plan. It performs no I/O.
func Emit(topo *domain.ResolvedTopology, opts Options) (*domain.LaunchPlan, error) {
	plan := &domain.LaunchPlan{
		Root:      topo.Root,
		Processes: make([]domain.ProcessSpec, 0, len(topo.Nodes)),
	}
	for _, node := range topo.Walk() {
		plan.Processes = append(plan.Processes, Process(node, opts))
	}

	id, err := Fingerprint(plan.Processes)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

// Process builds the process spec of one node.
func Process(node domain.ResolvedNode, opts Options) domain.ProcessSpec {
	spec := domain.ProcessSpec{
		Name:           node.FullyQualifiedName(),
		Package:        node.Package,
		Executable:     node.Executable,
		ExecutablePath: resolver.ExecutablePath(node.Prefix, node.Package, node.Executable),
		Args:           Args(node),
		WorkingDir:     opts.WorkingDir,
		Namespace:      node.Namespace,
		NodeName:       node.Name,
	}
	if node.Cwd != "" {
		spec.WorkingDir = node.Cwd
	}
	if len(node.Env) > 0 {
		spec.Env = make(map[string]string, len(node.Env))
		for _, env := range node.Env {
			spec.Env[env.Name] = env.Value
		}
	}
	return spec
}

// Args returns the command line of node: its extra arguments followed by the
// ROS section with name, namespace, parameters and remappings.
func Args(node domain.ResolvedNode) []string {
	var ros []string
	if node.NameExplicit {
		ros = append(ros, "-r", "__node:="+node.Name)
	}
	if node.Namespace != "" {
		ros = append(ros, "-r", "__ns:="+node.Namespace)
	}
	for _, p := range node.Parameters {
		if p.IsFile() {
			ros = append(ros, "--params-file", p.Value.Text())
			continue
		}
		ros = append(ros, "-p", p.Name+":="+scalar.Literal(p.Value))
	}
	for _, r := range node.Remappings {
		ros = append(ros, "-r", r.From+":="+r.To)
	}

	args := make([]string, 0, len(node.Args)+len(ros)+1)
	args = append(args, node.Args...)
	if len(ros) > 0 {
		args = append(args, RosArgsFlag)
		args = append(args, ros...)
	}
	return args
}

// Fingerprint returns the xxhash of the canonical JSON form of processes.
func Fingerprint(processes []domain.ProcessSpec) (string, error) {
	hasher := xxhash.New()
	if err := json.NewEncoder(hasher).Encode(processes); err != nil {
		return "", zerr.Wrap(err, "failed to encode processes")
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
