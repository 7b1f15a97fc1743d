// Package inference reconstructs missing types by unification over a
// type-variable arena. It is independent of the typechecker package: both
// share only the AST and type model.
package inference

import (
	"io"
	"log/slog"

	"github.com/hashicorp/go-set/v2"

	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/types"
)

// Inferencer infers types bottom-up, solving each constraint as soon as it is
// generated.
type Inferencer struct {
	vars       *types.VarTable
	typeEnv    map[string]types.Type
	order      []string
	introduced *set.Set[string]
	logger     *slog.Logger
}

// Option configures an Inferencer.
type Option func(*Inferencer)

// WithLogger routes unification traces to the given logger.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Inferencer) {
		if logger != nil {
			in.logger = logger.With("section", "inference")
		}
	}
}

// New returns an inferencer with empty state.
func New(opts ...Option) *Inferencer {
	in := &Inferencer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(in)
	}
	in.reset()
	return in
}

func (in *Inferencer) reset() {
	in.vars = types.NewVarTable()
	in.typeEnv = make(map[string]types.Type)
	in.order = nil
	in.introduced = set.New[string](0)
}

// InferProgram infers every statement in order, then resolves every bound
// name. The returned map holds fully substituted types.
func (in *Inferencer) InferProgram(program *ast.Program) (map[string]types.Type, error) {
	in.reset()
	if program == nil {
		return nil, types.Errorf(types.InvalidNode, "inference: program is nil")
	}
	for _, stmt := range program.Statements {
		if err := in.inferStatement(stmt); err != nil {
			return nil, err
		}
	}
	if err := in.resolveEnvironment(); err != nil {
		return nil, err
	}
	out := make(map[string]types.Type, len(in.typeEnv))
	for name, typ := range in.typeEnv {
		out[name] = typ
	}
	in.logger.Debug("program inferred", "names", len(out), "variables", in.vars.Len())
	return out, nil
}

func (in *Inferencer) inferStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Declaration:
		return in.InferDeclaration(s)
	case ast.Expression:
		_, err := in.InferExpression(s)
		return err
	default:
		return types.Errorf(types.InvalidNode, "inference: unsupported statement %T", stmt)
	}
}

// InferDeclaration infers the value and binds the name to the (unresolved)
// result. An annotation is an extra constraint, not an override.
func (in *Inferencer) InferDeclaration(decl *ast.Declaration) error {
	if decl == nil {
		return types.Errorf(types.InvalidNode, "inference: declaration is nil")
	}
	inferred, err := in.InferExpression(decl.Value)
	if err != nil {
		return err
	}
	if decl.TypeAnnotation != nil {
		annotation := in.instantiate(decl.TypeAnnotation, make(map[int]types.TypeVar))
		if err := in.Unify(inferred, annotation); err != nil {
			return withContext(err, "declaration of '"+decl.Name+"'")
		}
	}
	in.define(decl.Name, inferred)
	return nil
}

// InferExpression returns the type of expr, possibly containing variables
// that later constraints will bind.
func (in *Inferencer) InferExpression(expr ast.Expression) (types.Type, error) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		if e == nil {
			break
		}
		return types.IntType{}, nil
	case *ast.BooleanLiteral:
		if e == nil {
			break
		}
		return types.BoolType{}, nil
	case *ast.Variable:
		if e == nil {
			break
		}
		if typ, ok := in.typeEnv[e.Name]; ok {
			return typ, nil
		}
		tv := in.vars.Fresh()
		in.define(e.Name, tv)
		in.introduced.Insert(e.Name)
		in.logger.Debug("introduced free variable", "name", e.Name, "var", tv.Name())
		return tv, nil
	case *ast.BinaryExpression:
		if e == nil {
			break
		}
		return in.inferBinaryExpression(e)
	case *ast.FunctionCall:
		if e == nil {
			break
		}
		return in.inferFunctionCall(e)
	case *ast.LambdaExpression:
		if e == nil {
			break
		}
		return in.inferLambdaExpression(e)
	}
	return nil, types.Errorf(types.UninferableExpression, "inference: cannot infer type for expression %T", expr)
}

func (in *Inferencer) inferBinaryExpression(expr *ast.BinaryExpression) (types.Type, error) {
	leftType, err := in.InferExpression(expr.Left)
	if err != nil {
		return nil, err
	}
	rightType, err := in.InferExpression(expr.Right)
	if err != nil {
		return nil, err
	}
	switch {
	case expr.Operator.IsArithmetic():
		if err := in.Unify(leftType, types.IntType{}); err != nil {
			return nil, withContext(err, "left operand of '"+string(expr.Operator)+"'")
		}
		if err := in.Unify(rightType, types.IntType{}); err != nil {
			return nil, withContext(err, "right operand of '"+string(expr.Operator)+"'")
		}
		return types.IntType{}, nil
	case expr.Operator.IsComparison():
		if err := in.Unify(leftType, rightType); err != nil {
			return nil, withContext(err, "operands of '"+string(expr.Operator)+"'")
		}
		return types.BoolType{}, nil
	default:
		return nil, types.Errorf(types.UnknownOperator, "inference: unsupported operator '%s'", expr.Operator)
	}
}

func (in *Inferencer) inferFunctionCall(call *ast.FunctionCall) (types.Type, error) {
	calleeType, err := in.InferExpression(call.Callee)
	if err != nil {
		return nil, err
	}
	argTypes := make([]types.Type, len(call.Arguments))
	for i, arg := range call.Arguments {
		argType, err := in.InferExpression(arg)
		if err != nil {
			return nil, err
		}
		argTypes[i] = argType
	}
	switch callee := in.vars.Walk(calleeType).(type) {
	case types.IntType, types.BoolType:
		return nil, types.Errorf(types.NotCallable, "inference: calling non-function type %s", callee.Name())
	}
	ret := in.vars.Fresh()
	if err := in.Unify(calleeType, types.FunctionType{Params: argTypes, Return: ret}); err != nil {
		return nil, withContext(err, "call")
	}
	return ret, nil
}

func (in *Inferencer) inferLambdaExpression(lambda *ast.LambdaExpression) (types.Type, error) {
	params := make([]types.Type, len(lambda.Parameters))
	for i := range lambda.Parameters {
		params[i] = in.vars.Fresh()
	}
	restore := in.bindScoped(lambda.Parameters, params)
	defer restore()
	bodyType, err := in.InferExpression(lambda.Body)
	if err != nil {
		return nil, err
	}
	return types.FunctionType{Params: params, Return: bodyType}, nil
}

// bindScoped binds lambda parameters in typeEnv and returns a func that puts
// back whatever the names were bound to before.
func (in *Inferencer) bindScoped(names []string, typs []types.Type) func() {
	type saved struct {
		name string
		prev types.Type
		had  bool
	}
	stack := make([]saved, 0, len(names))
	for i, name := range names {
		prev, had := in.typeEnv[name]
		stack = append(stack, saved{name: name, prev: prev, had: had})
		in.typeEnv[name] = typs[i]
	}
	return func() {
		for i := len(stack) - 1; i >= 0; i-- {
			entry := stack[i]
			if entry.had {
				in.typeEnv[entry.name] = entry.prev
			} else {
				delete(in.typeEnv, entry.name)
			}
		}
	}
}

func (in *Inferencer) define(name string, typ types.Type) {
	if _, exists := in.typeEnv[name]; !exists {
		in.order = append(in.order, name)
	}
	in.typeEnv[name] = typ
}

// instantiate replaces annotation variables with fresh inferencer variables,
// one per distinct variable.
func (in *Inferencer) instantiate(t types.Type, mapping map[int]types.TypeVar) types.Type {
	switch v := t.(type) {
	case types.TypeVar:
		if fresh, ok := mapping[v.ID]; ok {
			return fresh
		}
		fresh := in.vars.Fresh()
		mapping[v.ID] = fresh
		return fresh
	case types.FunctionType:
		params := make([]types.Type, len(v.Params))
		for i, param := range v.Params {
			params[i] = in.instantiate(param, mapping)
		}
		return types.FunctionType{Params: params, Return: in.instantiate(v.Return, mapping)}
	default:
		return t
	}
}

// TypeOf returns the current binding for name. Before the resolve pass this
// may still be an unresolved variable.
func (in *Inferencer) TypeOf(name string) (types.Type, bool) {
	typ, ok := in.typeEnv[name]
	return typ, ok
}

// Names lists bound names in the order they were first bound.
func (in *Inferencer) Names() []string {
	out := make([]string, 0, len(in.order))
	seen := set.New[string](len(in.order))
	for _, name := range in.order {
		if _, ok := in.typeEnv[name]; !ok || !seen.Insert(name) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Introduced lists names that were used before any binding and were given a
// fresh variable, in binding order.
func (in *Inferencer) Introduced() []string {
	var out []string
	for _, name := range in.Names() {
		if in.introduced.Contains(name) {
			out = append(out, name)
		}
	}
	return out
}
