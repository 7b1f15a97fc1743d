package typechecker

import (
	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/types"
)

func (c *Checker) checkExpression(env *Environment, expr ast.Expression) (types.Type, error) {
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
		typ, ok := env.Lookup(e.Name)
		if !ok {
			return nil, types.Errorf(types.UndefinedVariable, "typechecker: undefined variable '%s'", e.Name)
		}
		return typ, nil
	case *ast.BinaryExpression:
		if e == nil {
			break
		}
		return c.checkBinaryExpression(env, e)
	case *ast.FunctionCall:
		if e == nil {
			break
		}
		return c.checkFunctionCall(env, e)
	case *ast.LambdaExpression:
		if e == nil {
			break
		}
		return c.checkLambdaExpression(env, e)
	}
	return nil, types.Errorf(types.InvalidNode, "typechecker: unknown expression type %T", expr)
}

func (c *Checker) checkBinaryExpression(env *Environment, expr *ast.BinaryExpression) (types.Type, error) {
	leftType, err := c.checkExpression(env, expr.Left)
	if err != nil {
		return nil, err
	}
	rightType, err := c.checkExpression(env, expr.Right)
	if err != nil {
		return nil, err
	}
	switch {
	case expr.Operator.IsArithmetic():
		if !isIntType(leftType) || !isIntType(rightType) {
			return nil, types.Errorf(
				types.ArithmeticTypeError,
				"typechecker: arithmetic operator '%s' requires Int operands, got %s and %s",
				expr.Operator, types.FormatType(leftType), types.FormatType(rightType),
			)
		}
		return types.IntType{}, nil
	case expr.Operator.IsComparison():
		if !TypesEqual(leftType, rightType) {
			return nil, types.Errorf(
				types.ComparisonTypeError,
				"typechecker: comparison '%s' requires matching types, got %s and %s",
				expr.Operator, types.FormatType(leftType), types.FormatType(rightType),
			)
		}
		return types.BoolType{}, nil
	default:
		return nil, types.Errorf(types.UnknownOperator, "typechecker: unsupported operator '%s'", expr.Operator)
	}
}

func (c *Checker) checkFunctionCall(env *Environment, call *ast.FunctionCall) (types.Type, error) {
	calleeType, err := c.checkExpression(env, call.Callee)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeType.(types.FunctionType)
	if !ok {
		return nil, types.Errorf(types.NotCallable, "typechecker: calling non-function type %s", types.FormatType(calleeType))
	}
	if len(call.Arguments) != len(fn.Params) {
		return nil, types.Errorf(
			types.ArityMismatch,
			"typechecker: function call with wrong number of arguments: expected %d, got %d",
			len(fn.Params), len(call.Arguments),
		)
	}
	for i, arg := range call.Arguments {
		argType, err := c.checkExpression(env, arg)
		if err != nil {
			return nil, err
		}
		if !TypesEqual(argType, fn.Params[i]) {
			return nil, types.Errorf(
				types.ArgumentTypeMismatch,
				"typechecker: argument %d type mismatch: expected %s, got %s",
				i+1, types.FormatType(fn.Params[i]), types.FormatType(argType),
			)
		}
	}
	return fn.Return, nil
}

func (c *Checker) checkLambdaExpression(env *Environment, lambda *ast.LambdaExpression) (types.Type, error) {
	scope := env.Extend()
	params := make([]types.Type, len(lambda.Parameters))
	for i, name := range lambda.Parameters {
		tv := c.vars.Fresh()
		params[i] = tv
		scope.Define(name, tv)
	}
	bodyType, err := c.checkExpression(scope, lambda.Body)
	if err != nil {
		return nil, err
	}
	return types.FunctionType{Params: params, Return: bodyType}, nil
}
