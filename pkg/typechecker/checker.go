package typechecker

import (
	"minilang/analyzer-go/pkg/ast"
	"minilang/analyzer-go/pkg/types"
)

// Checker validates annotated and partially annotated programs. It stops at
// the first violation.
type Checker struct {
	env  *Environment
	vars *types.VarTable
}

// New returns a checker instance.
func New() *Checker {
	return &Checker{
		env:  NewEnvironment(nil),
		vars: types.NewVarTable(),
	}
}

// Environment exposes the program scope populated by the last run.
func (c *Checker) Environment() *Environment {
	return c.env
}

// CheckProgram checks each statement in order. State from earlier runs is
// discarded first.
func (c *Checker) CheckProgram(program *ast.Program) error {
	if program == nil {
		return types.Errorf(types.InvalidNode, "typechecker: program is nil")
	}
	c.env = NewEnvironment(nil)
	c.vars = types.NewVarTable()
	for _, stmt := range program.Statements {
		if err := c.checkStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkStatement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Declaration:
		return c.CheckDeclaration(s)
	case ast.Expression:
		_, err := c.checkExpression(c.env, s)
		return err
	default:
		return types.Errorf(types.InvalidNode, "typechecker: unsupported statement %T", stmt)
	}
}

// CheckDeclaration checks the value and binds the declared name. A missing
// annotation is filled in with the value's type.
func (c *Checker) CheckDeclaration(decl *ast.Declaration) error {
	if decl == nil {
		return types.Errorf(types.InvalidNode, "typechecker: declaration is nil")
	}
	actual, err := c.checkExpression(c.env, decl.Value)
	if err != nil {
		return err
	}
	if decl.TypeAnnotation == nil {
		decl.TypeAnnotation = actual
	} else if !TypesEqual(actual, decl.TypeAnnotation) {
		return types.Errorf(
			types.DeclarationTypeMismatch,
			"typechecker: type mismatch in declaration of '%s': expected %s, got %s",
			decl.Name, types.FormatType(decl.TypeAnnotation), types.FormatType(actual),
		)
	}
	c.env.Define(decl.Name, decl.TypeAnnotation)
	return nil
}

// CheckExpression computes the type of an expression in the program scope.
func (c *Checker) CheckExpression(expr ast.Expression) (types.Type, error) {
	return c.checkExpression(c.env, expr)
}
