package ast

import "minilang/analyzer-go/pkg/types"

// Literal and identifier helpers.

func Int(value int64) *IntegerLiteral {
	return NewIntegerLiteral(value)
}

func Bool(value bool) *BooleanLiteral {
	return NewBooleanLiteral(value)
}

func ID(name string) *Variable {
	return NewVariable(name)
}

// Expression helpers.

func Bin(operator string, left, right Expression) *BinaryExpression {
	return NewBinaryExpression(Operator(operator), left, right)
}

func Call(callee Expression, args ...Expression) *FunctionCall {
	return NewFunctionCall(callee, args)
}

func CallName(name string, args ...Expression) *FunctionCall {
	return NewFunctionCall(ID(name), args)
}

func Lam(params []string, body Expression) *LambdaExpression {
	return NewLambdaExpression(params, body)
}

// Declaration helpers.

func Let(name string, value Expression) *Declaration {
	return NewDeclaration(name, nil, value)
}

func LetTyped(name string, annotation types.Type, value Expression) *Declaration {
	return NewDeclaration(name, annotation, value)
}

func Prog(statements ...Statement) *Program {
	return NewProgram(statements)
}
