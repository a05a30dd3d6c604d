package subst

import (
	"path/filepath"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// functions builds the substitution functions for one evaluation. The first
// domain error raised by a function is stored in failure so callers can return
// it instead of the wrapped HCL diagnostic.
func (e *Evaluator) functions(scope *domain.ArgumentRegistry, failure *error) map[string]function.Function {
	return map[string]function.Function{
		domain.FuncPackageShare: stringFunction(failure, []string{"package"}, "", func(args []string) (string, error) {
			return e.paths.ShareDir(args[0])
		}),
		domain.FuncPackagePrefix: stringFunction(failure, []string{"package"}, "", func(args []string) (string, error) {
			return e.paths.Resolve(args[0])
		}),
		domain.FuncSharePath: stringFunction(failure, []string{"package", "path"}, "", func(args []string) (string, error) {
			return e.paths.JoinShare(args[0], args[1])
		}),
		domain.FuncEnv: stringFunction(failure, []string{"name"}, "fallback", func(args []string) (string, error) {
			if len(args) > 2 {
				return "", zerr.With(zerr.Wrap(domain.ErrInvalidSubstitution, "env() takes at most one fallback"),
					"variable", args[0])
			}
			if v, ok := e.env[args[0]]; ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return "", zerr.With(zerr.Wrap(domain.ErrUndefinedEnvironment, "env() has no fallback"), "variable", args[0])
		}),
		domain.FuncDirname: stringFunction(failure, nil, "", func([]string) (string, error) {
			return filepath.Dir(scope.Scope()), nil
		}),
	}
}

func stringFunction(failure *error, params []string, variadic string, impl func([]string) (string, error)) function.Function {
	spec := &function.Spec{
		Type: function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			strs := make([]string, len(args))
			for i, arg := range args {
				strs[i] = arg.AsString()
			}
			out, err := impl(strs)
			if err != nil {
				if *failure == nil {
					*failure = err
				}
				return cty.UnknownVal(cty.String), err
			}
			return cty.StringVal(out), nil
		},
	}
	for _, name := range params {
		spec.Params = append(spec.Params, function.Parameter{Name: name, Type: cty.String})
	}
	if variadic != "" {
		spec.VarParam = &function.Parameter{Name: variadic, Type: cty.String}
	}
	return function.New(spec)
}
