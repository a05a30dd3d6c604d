// Package subst evaluates substitution templates against an explicit resolution context.
package subst

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/scalar"
	"go.trai.ch/zerr"
)

// Evaluator resolves arguments and substitutes templates. One Evaluator serves a
// whole assembly; the scope passed to each call selects the argument registry and
// the descriptor directory. Argument values are memoized in the registries.
type Evaluator struct {
	paths *resolver.PathResolver
	env   map[string]string
}

// New creates an Evaluator. env is a snapshot of the environment visible to
// env() substitutions and is never read from the process.
func New(paths *resolver.PathResolver, env map[string]string) *Evaluator {
	return &Evaluator{paths: paths, env: env}
}

// Paths returns the path resolver used for package substitutions.
func (e *Evaluator) Paths() *resolver.PathResolver { return e.paths }

type argKey struct {
	scope *domain.ArgumentRegistry
	name  string
}

// Argument resolves the argument name in scope following the registry's precedence.
func (e *Evaluator) Argument(scope *domain.ArgumentRegistry, name string) (string, error) {
	return e.argument(scope, name, nil)
}

// Evaluate substitutes template in scope and returns the resulting text.
func (e *Evaluator) Evaluate(scope *domain.ArgumentRegistry, template string) (string, error) {
	return e.evaluate(scope, template, nil)
}

// References returns the argument names template refers to, in source order, without duplicates.
func References(template string) ([]string, error) {
	if !IsTemplate(template) {
		return nil, nil
	}
	expr, diags := hclsyntax.ParseTemplate([]byte(template), "template", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, invalidTemplate(template, diags)
	}
	var names []string
	for _, traversal := range expr.Variables() {
		name, err := argumentName(traversal, template)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsTemplate reports whether text contains template sequences.
func IsTemplate(text string) bool {
	return strings.Contains(text, "${") || strings.Contains(text, "%{")
}

func (e *Evaluator) argument(scope *domain.ArgumentRegistry, name string, stack []argKey) (string, error) {
	if v, ok := scope.Resolved(name); ok {
		return v, nil
	}

	key := argKey{scope: scope, name: name}
	if slices.Contains(stack, key) {
		chain := make([]string, 0, len(stack)+1)
		for _, k := range stack {
			chain = append(chain, k.name)
		}
		chain = append(chain, name)
		return "", zerr.With(zerr.With(zerr.Wrap(domain.ErrArgumentCycle, "argument defaults form a loop"),
			"argument", name), "chain", strings.Join(chain, " -> "))
	}

	binding, err := scope.Binding(name)
	if err != nil {
		return "", err
	}

	value := binding.Raw
	if binding.IsTemplate() {
		next := append(stack[:len(stack):len(stack)], key)
		value, err = e.evaluate(binding.Scope, binding.Raw, next)
		if err != nil {
			return "", zerr.With(zerr.With(zerr.Wrap(err, "failed to resolve argument "+name),
				"argument", name), "origin", binding.Origin.String())
		}
	}

	return scope.Settle(name, value), nil
}

func (e *Evaluator) evaluate(scope *domain.ArgumentRegistry, template string, stack []argKey) (string, error) {
	if !IsTemplate(template) {
		return template, nil
	}

	expr, diags := hclsyntax.ParseTemplate([]byte(template), scope.Scope(), hcl.InitialPos)
	if diags.HasErrors() {
		return "", invalidTemplate(template, diags)
	}

	vars := make(map[string]cty.Value)
	for _, traversal := range expr.Variables() {
		name, err := argumentName(traversal, template)
		if err != nil {
			return "", err
		}
		if _, done := vars[name]; done {
			continue
		}
		v, err := e.argument(scope, name, stack)
		if err != nil {
			return "", err
		}
		vars[name] = cty.StringVal(v)
	}

	var failure error
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{domain.ArgumentRoot: cty.ObjectVal(vars)},
		Functions: e.functions(scope, &failure),
	}

	val, diags := expr.Value(evalCtx)
	if failure != nil {
		return "", failure
	}
	if diags.HasErrors() {
		return "", invalidTemplate(template, diags)
	}

	str, err := convert.Convert(val, cty.String)
	if err != nil || str.IsNull() || !str.IsKnown() {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidSubstitution, "template does not produce text"), "template", template)
	}
	return str.AsString(), nil
}

// EvaluateValue substitutes every string and path inside v. Relative paths are
// resolved against the directory of the scope's descriptor. A string built by
// substitution is typed from its result, so "${var.rate}" with rate 50 is a
// number; literal strings stay strings.
func (e *Evaluator) EvaluateValue(scope *domain.ArgumentRegistry, v domain.Value) (domain.Value, error) {
	switch v.Kind() {
	case domain.KindString:
		if !IsTemplate(v.Text()) {
			return v, nil
		}
		text, err := e.Evaluate(scope, v.Text())
		if err != nil {
			return domain.Value{}, err
		}
		return scalar.Infer(text), nil
	case domain.KindPath:
		text, err := e.Evaluate(scope, v.Text())
		if err != nil {
			return domain.Value{}, err
		}
		if strings.TrimSpace(text) == "" {
			return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrInvalidPath, "path is empty after substitution"),
				"template", v.Text())
		}
		if !filepath.IsAbs(text) {
			text = filepath.Join(filepath.Dir(scope.Scope()), text)
		}
		return v.WithText(filepath.Clean(text)), nil
	case domain.KindList:
		items := v.Items()
		for i, item := range items {
			resolved, err := e.EvaluateValue(scope, item)
			if err != nil {
				return domain.Value{}, err
			}
			items[i] = resolved
		}
		return domain.ListValue(items...), nil
	case domain.KindNumber, domain.KindBool:
		return v, nil
	default:
		return domain.Value{}, zerr.Wrap(domain.ErrInvalidParameter, "value has no type")
	}
}

// Condition evaluates an if/unless pair. An empty condition is true.
func (e *Evaluator) Condition(scope *domain.ArgumentRegistry, c domain.Condition) (bool, error) {
	if c.If != "" {
		ok, err := e.boolean(scope, c.If)
		if err != nil || !ok {
			return false, err
		}
	}
	if c.Unless != "" {
		skip, err := e.boolean(scope, c.Unless)
		if err != nil {
			return false, err
		}
		return !skip, nil
	}
	return true, nil
}

func (e *Evaluator) boolean(scope *domain.ArgumentRegistry, template string) (bool, error) {
	text, err := e.Evaluate(scope, template)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, zerr.With(zerr.With(zerr.Wrap(domain.ErrInvalidCondition, "condition is not a boolean"),
			"condition", template), "value", text)
	}
}

func argumentName(traversal hcl.Traversal, template string) (string, error) {
	if traversal.RootName() == domain.ArgumentRoot && len(traversal) >= 2 {
		if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
			return attr.Name, nil
		}
	}
	return "", zerr.With(zerr.Wrap(domain.ErrInvalidSubstitution, "only var.<name> references are supported"),
		"template", template)
}

func invalidTemplate(template string, diags hcl.Diagnostics) error {
	return zerr.With(zerr.Wrap(domain.ErrInvalidSubstitution, diags.Error()), "template", template)
}
