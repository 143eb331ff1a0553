package condition

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

var platformAttrs = map[string]struct{}{"os": {}, "arch": {}, "family": {}}

// Evaluator resolves condition names against a fixed table. It is safe for
// concurrent use.
type Evaluator struct {
	steps map[string]struct{}
	user  map[string]hclsyntax.Expression
	refs  map[string][]string // user condition -> steps it reads
}

// New compiles the user condition table and checks every expression against
// the known steps. All problems are reported together.
func New(conditions map[string]string, steps []string) (*Evaluator, error) {
	e := &Evaluator{
		steps: make(map[string]struct{}, len(steps)),
		user:  make(map[string]hclsyntax.Expression, len(conditions)),
		refs:  make(map[string][]string, len(conditions)),
	}
	for _, s := range steps {
		e.steps[s] = struct{}{}
	}

	names := make([]string, 0, len(conditions))
	for name := range conditions {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if _, clash := builtins[name]; clash {
			errs = append(errs, &EvalError{Kind: DuplicateCondition, Name: name})
			continue
		}
		expr, err := e.compile(name, conditions[name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.user[name] = expr
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return e, nil
}

// Validate reports whether name resolves, without evaluating it.
func (e *Evaluator) Validate(name string) error {
	if _, ok := builtins[name]; ok {
		return nil
	}
	if _, step, ok := splitStepRef(name); ok {
		if _, known := e.steps[step]; !known {
			return &EvalError{Kind: UnknownStepReference, Name: name, Ref: step}
		}
		return nil
	}
	if _, ok := e.user[name]; ok {
		return nil
	}
	return &EvalError{Kind: UnknownCondition, Name: name}
}

// Evaluate resolves name and evaluates it in ctx.
func (e *Evaluator) Evaluate(name string, ctx Context) (bool, error) {
	if pred, ok := builtins[name]; ok {
		return pred(ctx), nil
	}
	if test, step, ok := splitStepRef(name); ok {
		if _, known := e.steps[step]; !known {
			return false, &EvalError{Kind: UnknownStepReference, Name: name, Ref: step}
		}
		r, done := ctx.lookup(step)
		return done && test(r), nil
	}
	expr, ok := e.user[name]
	if !ok {
		return false, &EvalError{Kind: UnknownCondition, Name: name}
	}

	val, diags := expr.Value(evalContext(ctx))
	if diags.HasErrors() {
		return false, &EvalError{Kind: InvalidExpression, Name: name, Err: diags}
	}
	val, err := convert.Convert(val, cty.Bool)
	if err != nil {
		return false, &EvalError{Kind: InvalidExpression, Name: name, Err: fmt.Errorf("result is not a bool: %w", err)}
	}
	if val.IsNull() || !val.IsKnown() {
		return false, &EvalError{Kind: InvalidExpression, Name: name, Err: errors.New("result is null")}
	}
	return val.True(), nil
}

// StepRefs returns the steps whose outcome the named condition reads, in the
// order they first appear. Built-in platform conditions read none.
func (e *Evaluator) StepRefs(name string) []string {
	if _, step, ok := splitStepRef(name); ok {
		return []string{step}
	}
	return slices.Clone(e.refs[name])
}

// Names lists the user-defined condition names.
func (e *Evaluator) Names() []string {
	out := make([]string, 0, len(e.user))
	for name := range e.user {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (e *Evaluator) compile(name, src string) (hclsyntax.Expression, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "condition."+name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &EvalError{Kind: InvalidExpression, Name: name, Err: diags}
	}

	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "platform" {
			return nil, &EvalError{Kind: InvalidExpression, Name: name, Err: fmt.Errorf("unknown variable '%s'", traversal.RootName())}
		}
		if len(traversal) < 2 {
			return nil, &EvalError{Kind: InvalidExpression, Name: name, Err: errors.New("'platform' must be used with an attribute")}
		}
		attr, ok := traversal[1].(hcl.TraverseAttr)
		if _, known := platformAttrs[attr.Name]; !ok || !known {
			return nil, &EvalError{Kind: InvalidExpression, Name: name, Err: errors.New("platform attributes are os, arch and family")}
		}
	}

	var refErr error
	var refs []string
	diags = hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		call, ok := n.(*hclsyntax.FunctionCallExpr)
		if !ok || refErr != nil {
			return nil
		}
		if _, known := stepFunctionNames[call.Name]; !known {
			refErr = &EvalError{Kind: InvalidExpression, Name: name, Err: fmt.Errorf("unknown function '%s'", call.Name)}
			return nil
		}
		if len(call.Args) != 1 {
			refErr = &EvalError{Kind: InvalidExpression, Name: name, Err: fmt.Errorf("%s() takes exactly one step name", call.Name)}
			return nil
		}
		arg, argDiags := call.Args[0].Value(nil)
		if argDiags.HasErrors() || arg.IsNull() || !arg.IsKnown() || arg.Type() != cty.String {
			refErr = &EvalError{Kind: InvalidExpression, Name: name, Err: fmt.Errorf("%s() argument must be a string literal", call.Name)}
			return nil
		}
		ref := arg.AsString()
		if _, known := e.steps[ref]; !known {
			refErr = &EvalError{Kind: UnknownStepReference, Name: name, Ref: ref}
			return nil
		}
		if !slices.Contains(refs, ref) {
			refs = append(refs, ref)
		}
		return nil
	})
	if diags.HasErrors() {
		return nil, &EvalError{Kind: InvalidExpression, Name: name, Err: diags}
	}
	if refErr != nil {
		return nil, refErr
	}
	e.refs[name] = refs
	return expr, nil
}

var stepFunctionNames = map[string]struct{}{
	"failed": {}, "succeeded": {}, "skipped": {}, "on_failure": {}, "status": {},
}

func evalContext(ctx Context) *hcl.EvalContext {
	funcs := make(map[string]function.Function, len(stepFunctionNames))
	for kind, test := range stepTests {
		funcs[kind] = stepFunction(ctx, test)
	}
	funcs["status"] = statusFunction(ctx)

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"platform": cty.ObjectVal(map[string]cty.Value{
				"os":     cty.StringVal(ctx.Platform.OS),
				"arch":   cty.StringVal(ctx.Platform.Arch),
				"family": cty.StringVal(ctx.Platform.Family()),
			}),
		},
		Functions: funcs,
	}
}

var stepParam = []function.Parameter{{Name: "step", Type: cty.String}}

func stepFunction(ctx Context, test stepTest) function.Function {
	return function.New(&function.Spec{
		Params: stepParam,
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			r, done := ctx.lookup(args[0].AsString())
			return cty.BoolVal(done && test(r)), nil
		},
	})
}

func statusFunction(ctx Context) function.Function {
	return function.New(&function.Spec{
		Params: stepParam,
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			r, done := ctx.lookup(args[0].AsString())
			if !done {
				return cty.StringVal("pending"), nil
			}
			return cty.StringVal(r.Status.String()), nil
		},
	})
}
