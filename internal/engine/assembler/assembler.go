// Package assembler turns a root launch descriptor into a resolved topology.
package assembler

import (
	"context"
	"maps"
	"slices"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/subst"
	"go.trai.ch/zerr"
)

// Options configures one assembly.
type Options struct {
	// CommandLine holds name:=value overrides. They apply to every scope.
	CommandLine map[string]string
	// Env is the environment snapshot visible to env() substitutions.
	Env map[string]string
	// Jobs bounds concurrent expansion of sibling includes.
	Jobs int
}

// Assembler validates descriptors and produces ordered topologies.
type Assembler struct {
	loader ports.DescriptorLoader
	index  ports.PackageIndex
	tracer ports.Tracer
	logger ports.Logger
}

// New creates a new Assembler.
func New(
	loader ports.DescriptorLoader,
	index ports.PackageIndex,
	tracer ports.Tracer,
	logger ports.Logger,
) *Assembler {
	return &Assembler{
		loader: loader,
		index:  index,
		tracer: tracer,
		logger: logger,
	}
}

// Result is an assembled topology and the include tree it came from.
type Result struct {
	Topology *domain.ResolvedTopology
	Tree     *Frame
}

// Sources returns the canonical path of every descriptor of the include tree.
func (r *Result) Sources() []string {
	var out []string
	for f := range r.Tree.All() {
		if !slices.Contains(out, f.Descriptor.Source) {
			out = append(out, f.Descriptor.Source)
		}
	}
	return out
}

// Assemble loads the descriptor at root with all its includes and resolves
// every argument and node. Nothing is returned unless the whole launch resolves.
func (a *Assembler) Assemble(ctx context.Context, root string, opts Options) (*Result, error) {
	ctx, span := a.tracer.Start(ctx, "assemble", ports.WithAttribute("root", root))
	defer span.End()

	eval := subst.New(resolver.New(a.index), opts.Env)

	tree, err := NewExpander(a.loader, eval, a.tracer, opts.CommandLine, opts.Jobs).Root(ctx, root)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	topo := &domain.ResolvedTopology{Root: tree.Descriptor.Source}
	for frame := range tree.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := resolveFrame(eval, frame, topo); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	span.SetAttribute("nodes", len(topo.Nodes))
	a.warn(tree, topo, opts.CommandLine)
	return &Result{Topology: topo, Tree: tree}, nil
}

func (a *Assembler) warn(tree *Frame, topo *domain.ResolvedTopology, commandLine map[string]string) {
	if a.logger == nil {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(commandLine)) {
		used := false
		for frame := range tree.All() {
			if frame.Scope.Knows(name) {
				used = true
				break
			}
		}
		if !used {
			a.logger.Warn("argument " + name + " given on the command line is not declared by any descriptor")
		}
	}
	for _, fq := range topo.DuplicateNames() {
		a.logger.Warn("more than one node is named " + fq)
	}
}

// resolveFrame settles every argument of the frame's scope and appends its
// nodes to topo in declaration order.
func resolveFrame(eval *subst.Evaluator, frame *Frame, topo *domain.ResolvedTopology) error {
	scope := frame.Scope
	for _, name := range scope.Names() {
		if _, err := eval.Argument(scope, name); err != nil {
			return zerr.With(err, "include_chain", frame.IncludeChain())
		}
	}

	for _, spec := range frame.Descriptor.Nodes {
		node, ok, err := resolveNode(eval, scope, spec)
		if err != nil {
			return zerr.With(err, "include_chain", frame.IncludeChain())
		}
		if ok {
			topo.Nodes = append(topo.Nodes, node)
		}
	}

	topo.Arguments = append(topo.Arguments, scope.Entries()...)
	return nil
}

func resolveNode(
	eval *subst.Evaluator,
	scope *domain.ArgumentRegistry,
	spec domain.NodeSpec,
) (domain.ResolvedNode, bool, error) {
	label := spec.Label()
	fail := func(err error) (domain.ResolvedNode, bool, error) {
		return domain.ResolvedNode{}, false, zerr.With(err, "node", label)
	}

	enabled, err := eval.Condition(scope, spec.Condition)
	if err != nil || !enabled {
		if err != nil {
			return fail(err)
		}
		return domain.ResolvedNode{}, false, nil
	}

	texts := []*string{&spec.Package, &spec.Executable, &spec.Namespace, &spec.Name, &spec.Cwd}
	for _, text := range texts {
		if *text, err = eval.Evaluate(scope, *text); err != nil {
			return fail(err)
		}
	}

	prefix, err := eval.Paths().Resolve(spec.Package)
	if err != nil {
		return fail(err)
	}

	node := domain.ResolvedNode{
		Package:      spec.Package,
		Executable:   spec.Executable,
		Prefix:       prefix,
		Namespace:    domain.NormalizeNamespace(spec.Namespace),
		Name:         spec.Name,
		NameExplicit: spec.Name != "",
		Cwd:          spec.Cwd,
		Scope:        scope.Scope(),
	}
	if !node.NameExplicit {
		node.Name = spec.Executable
	}
	label = node.FullyQualifiedName()

	for _, p := range spec.Parameters {
		v, err := eval.EvaluateValue(scope, p.Value)
		if err != nil {
			key := p.Name
			if p.IsFile() {
				key = "<params-file>"
			}
			return fail(zerr.With(err, "parameter", key))
		}
		node.Parameters = append(node.Parameters, domain.ResolvedParameter{Name: p.Name, Value: v})
	}

	for _, arg := range spec.Args {
		text, err := eval.Evaluate(scope, arg)
		if err != nil {
			return fail(err)
		}
		node.Args = append(node.Args, text)
	}

	for _, env := range spec.Env {
		text, err := eval.Evaluate(scope, env.Value)
		if err != nil {
			return fail(zerr.With(err, "env", env.Name))
		}
		node.Env = append(node.Env, domain.EnvVar{Name: env.Name, Value: text})
	}

	remappings, err := resolveRemappings(eval, scope, spec.Remappings)
	if err != nil {
		return fail(err)
	}
	node.Remappings = remappings

	return node, true, nil
}

// resolveRemappings substitutes remappings and rejects empty or repeated sources.
func resolveRemappings(
	eval *subst.Evaluator,
	scope *domain.ArgumentRegistry,
	remappings []domain.Remapping,
) ([]domain.Remapping, error) {
	var out []domain.Remapping
	seen := make(map[string]struct{}, len(remappings))
	for _, r := range remappings {
		from, err := eval.Evaluate(scope, r.From)
		if err != nil {
			return nil, err
		}
		to, err := eval.Evaluate(scope, r.To)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidRemapping, "remapping has an empty side"),
				"remapping", from+":="+to)
		}
		if _, dup := seen[from]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateRemapping, "topic is remapped more than once"),
				"remapping", from)
		}
		seen[from] = struct{}{}
		out = append(out, domain.Remapping{From: from, To: to})
	}
	return out, nil
}
