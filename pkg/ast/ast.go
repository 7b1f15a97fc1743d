package ast

import "minilang/analyzer-go/pkg/types"

type NodeType string

const (
	NodeIntegerLiteral   NodeType = "IntegerLiteral"
	NodeBooleanLiteral   NodeType = "BooleanLiteral"
	NodeVariable         NodeType = "Variable"
	NodeBinaryExpression NodeType = "BinaryExpression"
	NodeFunctionCall     NodeType = "FunctionCall"
	NodeLambdaExpression NodeType = "LambdaExpression"
	NodeDeclaration      NodeType = "Declaration"
	NodeProgram          NodeType = "Program"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
	statementNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

type Statement interface {
	Node
	statementNode()
}

type statementMarker struct{}

func (statementMarker) statementNode() {}

// Operator is a binary operator symbol.
type Operator string

const (
	OpAdd      Operator = "+"
	OpSubtract Operator = "-"
	OpMultiply Operator = "*"
	OpDivide   Operator = "/"
	OpEqual    Operator = "=="
	OpLess     Operator = "<"
	OpGreater  Operator = ">"
)

func (o Operator) IsArithmetic() bool {
	switch o {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	}
	return false
}

func (o Operator) IsComparison() bool {
	switch o {
	case OpEqual, OpLess, OpGreater:
		return true
	}
	return false
}

func (o Operator) IsValid() bool {
	return o.IsArithmetic() || o.IsComparison()
}

// Literals

type IntegerLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value int64 `json:"value"`
}

func NewIntegerLiteral(value int64) *IntegerLiteral {
	return &IntegerLiteral{nodeImpl: newNodeImpl(NodeIntegerLiteral), Value: value}
}

type BooleanLiteral struct {
	nodeImpl
	expressionMarker
	statementMarker

	Value bool `json:"value"`
}

func NewBooleanLiteral(value bool) *BooleanLiteral {
	return &BooleanLiteral{nodeImpl: newNodeImpl(NodeBooleanLiteral), Value: value}
}

// Variable references a name bound by a declaration or lambda parameter.
type Variable struct {
	nodeImpl
	expressionMarker
	statementMarker

	Name string `json:"name"`
}

func NewVariable(name string) *Variable {
	return &Variable{nodeImpl: newNodeImpl(NodeVariable), Name: name}
}

type BinaryExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Operator Operator   `json:"operator"`
	Left     Expression `json:"left"`
	Right    Expression `json:"right"`
}

func NewBinaryExpression(operator Operator, left, right Expression) *BinaryExpression {
	return &BinaryExpression{nodeImpl: newNodeImpl(NodeBinaryExpression), Operator: operator, Left: left, Right: right}
}

type FunctionCall struct {
	nodeImpl
	expressionMarker
	statementMarker

	Callee    Expression   `json:"callee"`
	Arguments []Expression `json:"arguments"`
}

func NewFunctionCall(callee Expression, args []Expression) *FunctionCall {
	return &FunctionCall{nodeImpl: newNodeImpl(NodeFunctionCall), Callee: callee, Arguments: args}
}

// LambdaExpression is an anonymous function with a single-expression body.
type LambdaExpression struct {
	nodeImpl
	expressionMarker
	statementMarker

	Parameters []string   `json:"parameters"`
	Body       Expression `json:"body"`
}

func NewLambdaExpression(params []string, body Expression) *LambdaExpression {
	return &LambdaExpression{nodeImpl: newNodeImpl(NodeLambdaExpression), Parameters: params, Body: body}
}

// Declaration binds a name to a value. A nil TypeAnnotation means the source
// carried no annotation; the checker fills it in.
type Declaration struct {
	nodeImpl
	statementMarker

	Name           string     `json:"name"`
	TypeAnnotation types.Type `json:"annotation,omitempty"`
	Value          Expression `json:"value"`
}

func NewDeclaration(name string, annotation types.Type, value Expression) *Declaration {
	return &Declaration{nodeImpl: newNodeImpl(NodeDeclaration), Name: name, TypeAnnotation: annotation, Value: value}
}

type Program struct {
	nodeImpl

	Statements []Statement `json:"statements"`
}

func NewProgram(statements []Statement) *Program {
	return &Program{nodeImpl: newNodeImpl(NodeProgram), Statements: statements}
}

// Declarations returns the program's declarations in source order.
func (p *Program) Declarations() []*Declaration {
	if p == nil {
		return nil
	}
	var out []*Declaration
	for _, stmt := range p.Statements {
		if decl, ok := stmt.(*Declaration); ok && decl != nil {
			out = append(out, decl)
		}
	}
	return out
}
