package assembler

import (
	"context"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/subst"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Frame is one loaded descriptor of the include tree together with its argument scope.
type Frame struct {
	Descriptor *domain.Descriptor
	Scope      *domain.ArgumentRegistry
	// Chain lists the canonical sources from the root down to this descriptor.
	Chain []string
	// Children are the expanded includes in include order. Includes whose
	// condition is false are left out.
	Children []*Frame
}

// IncludeChain renders Chain for error messages.
func (f *Frame) IncludeChain() string {
	return strings.Join(f.Chain, " -> ")
}

// All yields f and every descendant depth first, in include order.
func (f *Frame) All() iter.Seq[*Frame] {
	return func(yield func(*Frame) bool) { f.walk(yield) }
}

func (f *Frame) walk(yield func(*Frame) bool) bool {
	if !yield(f) {
		return false
	}
	for _, child := range f.Children {
		if !child.walk(yield) {
			return false
		}
	}
	return true
}

// Expander loads the include graph of a launch and checks it for cycles.
// Arguments are declared and passed but not evaluated, apart from the
// substitutions inside include sources and include conditions.
type Expander struct {
	loader      ports.DescriptorLoader
	eval        *subst.Evaluator
	tracer      ports.Tracer
	commandLine map[string]string
	jobs        int
}

// NewExpander creates an Expander. jobs bounds how many sibling includes are
// expanded at once; values below 2 expand sequentially.
func NewExpander(
	loader ports.DescriptorLoader,
	eval *subst.Evaluator,
	tracer ports.Tracer,
	commandLine map[string]string,
	jobs int,
) *Expander {
	return &Expander{
		loader:      loader,
		eval:        eval,
		tracer:      tracer,
		commandLine: commandLine,
		jobs:        jobs,
	}
}

// Root expands the whole include tree below the descriptor at path.
func (x *Expander) Root(ctx context.Context, path string) (*Frame, error) {
	return x.load(ctx, path, nil, nil)
}

// Expand expands one include of parent. It returns nil when the include's
// condition is false.
func (x *Expander) Expand(ctx context.Context, ref domain.IncludeRef, parent *Frame) (*Frame, error) {
	ok, err := x.eval.Condition(parent.Scope, ref.Condition)
	if err != nil {
		return nil, zerr.With(err, "include_chain", parent.IncludeChain())
	}
	if !ok {
		return nil, nil
	}

	source, err := x.eval.Evaluate(parent.Scope, ref.Source)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve include source"), "include_chain", parent.IncludeChain())
	}
	if strings.TrimSpace(source) == "" {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidPath, "include source is empty"),
			"include", ref.Source), "include_chain", parent.IncludeChain())
	}
	if !filepath.IsAbs(source) {
		source = filepath.Join(filepath.Dir(parent.Descriptor.Source), source)
	}

	return x.load(ctx, source, parent, ref.Arguments)
}

func (x *Expander) load(
	ctx context.Context,
	path string,
	parent *Frame,
	passed []domain.PassedArgument,
) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := x.tracer.Start(ctx, "expand", ports.WithAttribute("path", path))
	defer span.End()

	var chain []string
	if parent != nil {
		chain = parent.Chain
	}

	desc, err := x.loader.Load(path)
	if err != nil {
		span.RecordError(err)
		if parent != nil {
			err = zerr.With(err, "include_chain", parent.IncludeChain())
		}
		return nil, err
	}

	chain = append(chain[:len(chain):len(chain)], desc.Source)
	if slices.Contains(chain[:len(chain)-1], desc.Source) {
		err := zerr.With(zerr.With(zerr.Wrap(domain.ErrCyclicInclude, "descriptor includes itself"),
			"path", desc.Source), "include_chain", strings.Join(chain, " -> "))
		span.RecordError(err)
		return nil, err
	}

	frame := &Frame{
		Descriptor: desc,
		Scope:      domain.NewArgumentRegistry(desc.Source, x.commandLine),
		Chain:      chain,
	}
	for _, arg := range desc.Arguments {
		if err := frame.Scope.Declare(arg); err != nil {
			return nil, zerr.With(err, "include_chain", frame.IncludeChain())
		}
	}
	if parent != nil {
		for _, p := range passed {
			frame.Scope.Pass(p.Name, p.Value, parent.Scope)
		}
	}

	span.SetAttribute("includes", len(desc.Includes))
	if err := x.expandChildren(ctx, frame); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return frame, nil
}

func (x *Expander) expandChildren(ctx context.Context, frame *Frame) error {
	includes := frame.Descriptor.Includes
	children := make([]*Frame, len(includes))

	if x.jobs < 2 || len(includes) < 2 {
		for i, ref := range includes {
			child, err := x.Expand(ctx, ref, frame)
			if err != nil {
				return err
			}
			children[i] = child
		}
	} else {
		errs := make([]error, len(includes))
		var g errgroup.Group
		g.SetLimit(x.jobs)
		for i, ref := range includes {
			g.Go(func() error {
				children[i], errs[i] = x.Expand(ctx, ref, frame)
				return nil
			})
		}
		_ = g.Wait()
		// First failure in include order, whatever finished first.
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}

	for _, child := range children {
		if child != nil {
			frame.Children = append(frame.Children, child)
		}
	}
	return nil
}
