package config

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// hclFile is the HCL launch descriptor.
type hclFile struct {
	Arguments []hclArgument `hcl:"argument,block"`
	Nodes     []hclNode     `hcl:"node,block"`
	Includes  []hclInclude  `hcl:"include,block"`
}

type hclArgument struct {
	Name        string  `hcl:"name,label"`
	Default     *string `hcl:"default,optional"`
	Description string  `hcl:"description,optional"`
}

type hclNode struct {
	Package    string            `hcl:"package"`
	Executable string            `hcl:"executable"`
	Namespace  string            `hcl:"namespace,optional"`
	Name       string            `hcl:"name,optional"`
	Args       []string          `hcl:"args,optional"`
	Env        map[string]string `hcl:"env,optional"`
	Cwd        string            `hcl:"cwd,optional"`
	If         string            `hcl:"if,optional"`
	Unless     string            `hcl:"unless,optional"`
	Parameters []hclParameter    `hcl:"parameter,block"`
	Remaps     []hclRemap        `hcl:"remap,block"`
}

type hclParameter struct {
	File  *string        `hcl:"file,optional"`
	Name  string         `hcl:"name,optional"`
	Value hcl.Expression `hcl:"value,optional"`
}

type hclRemap struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

type hclInclude struct {
	Source    string         `hcl:"source,label"`
	Arguments hcl.Expression `hcl:"arguments,optional"`
	If        string         `hcl:"if,optional"`
	Unless    string         `hcl:"unless,optional"`
}

func decodeHCL(data []byte, path string) (*domain.Descriptor, error) {
	file, diags := hclsyntax.ParseConfig(data, path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, hclError(diags, path)
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "unexpected HCL body"), "path", path)
	}

	if err := checkExpressions(body); err != nil {
		return nil, zerr.With(err, "path", path)
	}
	evalCtx := captureContext(argumentNames(body))

	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &raw); diags.HasErrors() {
		return nil, hclError(diags, path)
	}

	desc := &domain.Descriptor{}
	for _, a := range raw.Arguments {
		desc.Arguments = append(desc.Arguments, domain.Argument{
			Name:        a.Name,
			Default:     a.Default,
			Description: a.Description,
		})
	}

	for i, n := range raw.Nodes {
		spec := domain.NodeSpec{
			Package:    n.Package,
			Executable: n.Executable,
			Namespace:  n.Namespace,
			Name:       n.Name,
			Args:       n.Args,
			Env:        envVars(n.Env),
			Cwd:        n.Cwd,
			Condition:  domain.Condition{If: n.If, Unless: n.Unless},
		}
		for _, p := range n.Parameters {
			params, err := hclParameters(p, evalCtx)
			if err != nil {
				return nil, zerr.With(zerr.With(err, "path", path), "node", spec.Label())
			}
			spec.Parameters = append(spec.Parameters, params...)
		}
		for _, r := range n.Remaps {
			spec.Remappings = append(spec.Remappings, domain.Remapping{From: r.From, To: r.To})
		}
		if err := validateNode(spec, path, i); err != nil {
			return nil, err
		}
		desc.Nodes = append(desc.Nodes, spec)
	}

	for _, inc := range raw.Includes {
		ref := domain.IncludeRef{
			Source:    inc.Source,
			Condition: domain.Condition{If: inc.If, Unless: inc.Unless},
		}
		args, err := includeArguments(inc.Arguments, evalCtx)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "path", path), "include", inc.Source)
		}
		ref.Arguments = args
		desc.Includes = append(desc.Includes, ref)
	}

	return desc, nil
}

func hclParameters(p hclParameter, evalCtx *hcl.EvalContext) ([]domain.Parameter, error) {
	hasValue := p.Value != nil && !isNullExpr(p.Value, evalCtx)

	switch {
	case p.File != nil && (p.Name != "" || hasValue):
		return nil, zerr.Wrap(domain.ErrInvalidParameter, "parameter block sets both file and name/value")
	case p.File != nil:
		return []domain.Parameter{{Value: domain.PathValue(*p.File)}}, nil
	case p.Name == "" || !hasValue:
		return nil, zerr.Wrap(domain.ErrInvalidParameter, "parameter block needs file, or name and value")
	}

	val, diags := p.Value.Value(evalCtx)
	if diags.HasErrors() {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidParameter, diags.Error()), "parameter", p.Name)
	}
	return flattenCty(p.Name, val)
}

// includeArguments reads an include's arguments object in source order.
func includeArguments(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]domain.PassedArgument, error) {
	if expr == nil || isNullExpr(expr, evalCtx) {
		return nil, nil
	}
	obj, ok := expr.(*hclsyntax.ObjectConsExpr)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include arguments must be an object"),
			"line", expr.Range().Start.Line)
	}

	out := make([]domain.PassedArgument, 0, len(obj.Items))
	for _, item := range obj.Items {
		name, err := ctyString(item.KeyExpr, evalCtx)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include argument names must be strings"),
				"line", item.KeyExpr.Range().Start.Line)
		}
		value, err := ctyString(item.ValueExpr, evalCtx)
		if err != nil {
			return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, "include argument values must be scalars"),
				"argument", name), "line", item.ValueExpr.Range().Start.Line)
		}
		out = append(out, domain.PassedArgument{Name: name, Value: value})
	}
	return out, nil
}

func ctyString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	if str.IsNull() || !str.IsKnown() {
		return "", zerr.New("not a string")
	}
	return str.AsString(), nil
}

func isNullExpr(expr hcl.Expression, evalCtx *hcl.EvalContext) bool {
	val, diags := expr.Value(evalCtx)
	return !diags.HasErrors() && val.IsNull()
}

func flattenCty(name string, val cty.Value) ([]domain.Parameter, error) {
	ty := val.Type()
	if ty.IsObjectType() || ty.IsMapType() {
		keys := make([]string, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, _ := it.Element()
			keys = append(keys, k.AsString())
		}
		sort.Strings(keys)
		var out []domain.Parameter
		for _, k := range keys {
			var elem cty.Value
			if ty.IsObjectType() {
				elem = val.GetAttr(k)
			} else {
				elem = val.Index(cty.StringVal(k))
			}
			nested, err := flattenCty(name+"."+k, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
		}
		return out, nil
	}

	v, err := ctyValue(val)
	if err != nil {
		return nil, zerr.With(err, "parameter", name)
	}
	return []domain.Parameter{{Name: name, Value: v}}, nil
}

func ctyValue(val cty.Value) (domain.Value, error) {
	if val.IsNull() || !val.IsKnown() {
		return domain.Value{}, zerr.Wrap(domain.ErrInvalidParameter, "parameter value is null")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return domain.StringValue(val.AsString()), nil
	case ty == cty.Number:
		return domain.NumberValue(val.AsBigFloat().Text('f', -1)), nil
	case ty == cty.Bool:
		return domain.BoolValue(val.True()), nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		var items []domain.Value
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			item, err := ctyValue(elem)
			if err != nil {
				return domain.Value{}, err
			}
			if item.Kind() == domain.KindList {
				return domain.Value{}, zerr.Wrap(domain.ErrInvalidParameter, "nested lists are not supported")
			}
			items = append(items, item)
		}
		return domain.ListValue(items...), nil
	default:
		return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrInvalidParameter, "unsupported parameter type"),
			"type", ty.FriendlyName())
	}
}

// argumentNames collects every var.<name> referenced anywhere in body.
func argumentNames(body *hclsyntax.Body) []string {
	seen := make(map[string]struct{})
	var walk func(b *hclsyntax.Body)
	walk = func(b *hclsyntax.Body) {
		for _, attr := range b.Attributes {
			for _, traversal := range attr.Expr.Variables() {
				if traversal.RootName() != domain.ArgumentRoot || len(traversal) < 2 {
					continue
				}
				if step, ok := traversal[1].(hcl.TraverseAttr); ok {
					seen[step.Name] = struct{}{}
				}
			}
		}
		for _, block := range b.Blocks {
			walk(block.Body)
		}
	}
	walk(body)

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkExpressions rejects any expression that cannot be captured as template
// text: operators, conditionals, for expressions, indexing and unknown
// functions would otherwise be evaluated once at load time.
func checkExpressions(body *hclsyntax.Body) error {
	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, attr := range body.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})
	for _, attr := range attrs {
		if bad := unsupportedExpr(attr.Expr); bad != nil {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed,
				"only literals, var.<name> references and substitution calls are allowed"),
				"attribute", attr.Name), "line", bad.Range().Start.Line)
		}
	}
	for _, block := range body.Blocks {
		if err := checkExpressions(block.Body); err != nil {
			return err
		}
	}
	return nil
}

// unsupportedExpr returns the first sub-expression of expr that is not
// capturable, or nil.
func unsupportedExpr(expr hclsyntax.Expression) hclsyntax.Expression {
	switch e := expr.(type) {
	case *hclsyntax.LiteralValueExpr:
		return nil
	case *hclsyntax.ScopeTraversalExpr:
		t := e.Traversal
		if len(t) == 2 && t.RootName() == domain.ArgumentRoot {
			if _, ok := t[1].(hcl.TraverseAttr); ok {
				return nil
			}
		}
		return e
	case *hclsyntax.FunctionCallExpr:
		if e.ExpandFinal || !slices.Contains(domain.SubstitutionFunctions, e.Name) {
			return e
		}
		return firstUnsupported(e.Args)
	case *hclsyntax.TemplateExpr:
		return firstUnsupported(e.Parts)
	case *hclsyntax.TemplateWrapExpr:
		return unsupportedExpr(e.Wrapped)
	case *hclsyntax.TupleConsExpr:
		return firstUnsupported(e.Exprs)
	case *hclsyntax.ObjectConsExpr:
		for _, item := range e.Items {
			if key, ok := item.KeyExpr.(*hclsyntax.ObjectConsKeyExpr); ok {
				if key.ForceNonLiteral || hcl.ExprAsKeyword(key.Wrapped) == "" {
					if bad := unsupportedExpr(key.Wrapped); bad != nil {
						return bad
					}
				}
			} else if bad := unsupportedExpr(item.KeyExpr); bad != nil {
				return bad
			}
			if bad := unsupportedExpr(item.ValueExpr); bad != nil {
				return bad
			}
		}
		return nil
	case *hclsyntax.ParenthesesExpr:
		return unsupportedExpr(e.Expression)
	case *hclsyntax.UnaryOpExpr:
		if _, ok := e.Val.(*hclsyntax.LiteralValueExpr); ok && e.Op == hclsyntax.OpNegate {
			return nil
		}
		return e
	default:
		return expr
	}
}

func firstUnsupported(exprs []hclsyntax.Expression) hclsyntax.Expression {
	for _, expr := range exprs {
		if bad := unsupportedExpr(expr); bad != nil {
			return bad
		}
	}
	return nil
}

// captureContext renders argument references and substitution calls back into
// template text, so HCL descriptors produce the same unresolved model as YAML
// ones and evaluation happens later against the real resolution context.
func captureContext(names []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(names))
	for _, name := range names {
		vars[name] = cty.StringVal("${" + domain.ArgumentRoot + "." + name + "}")
	}

	funcs := make(map[string]function.Function, len(domain.SubstitutionFunctions))
	for _, name := range domain.SubstitutionFunctions {
		funcs[name] = captureFunction(name)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{domain.ArgumentRoot: cty.ObjectVal(vars)},
		Functions: funcs,
	}
}

func captureFunction(name string) function.Function {
	return function.New(&function.Spec{
		VarParam: &function.Parameter{Name: "args", Type: cty.String},
		Type:     function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			quoted := make([]string, len(args))
			for i, arg := range args {
				quoted[i] = strconv.Quote(arg.AsString())
			}
			return cty.StringVal("${" + name + "(" + strings.Join(quoted, ", ") + ")}"), nil
		},
	})
}

func hclError(diags hcl.Diagnostics, path string) error {
	return zerr.With(zerr.Wrap(domain.ErrDescriptorParseFailed, diags.Error()), "path", path)
}
