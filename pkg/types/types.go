package types

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Type represents a minilang type. The set of variants is closed.
type Type interface {
	Name() string
	isType()
}

type IntType struct{}

func (IntType) Name() string   { return "Int" }
func (IntType) String() string { return "Int" }
func (IntType) isType()        {}

type BoolType struct{}

func (BoolType) Name() string   { return "Bool" }
func (BoolType) String() string { return "Bool" }
func (BoolType) isType()        {}

// FunctionType is a structural function type. Arity is len(Params).
type FunctionType struct {
	Params []Type
	Return Type
}

func (f FunctionType) Name() string {
	params := lo.Map(f.Params, func(p Type, _ int) string { return FormatType(p) })
	return "(" + strings.Join(params, ", ") + ") -> " + FormatType(f.Return)
}

func (f FunctionType) String() string { return f.Name() }
func (FunctionType) isType()          {}

// TypeVar names a cell in a VarTable. The variable itself carries no
// binding; resolution always goes through the owning table.
type TypeVar struct {
	ID int
}

func (v TypeVar) Name() string   { return "?t" + strconv.Itoa(v.ID) }
func (v TypeVar) String() string { return v.Name() }
func (TypeVar) isType()          {}

// Func builds a function type.
func Func(params []Type, ret Type) FunctionType {
	return FunctionType{Params: params, Return: ret}
}

var (
	Int  Type = IntType{}
	Bool Type = BoolType{}
)

// FormatType renders a type, tolerating nil.
func FormatType(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.Name()
}

func IsTypeVar(t Type) bool {
	_, ok := t.(TypeVar)
	return ok
}

// Equal reports strict structural equality. Type variables are equal only
// to the same variable.
func Equal(a, b Type) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case IntType:
		_, ok := b.(IntType)
		return ok
	case BoolType:
		_, ok := b.(BoolType)
		return ok
	case TypeVar:
		bv, ok := b.(TypeVar)
		return ok && av.ID == bv.ID
	case FunctionType:
		bv, ok := b.(FunctionType)
		if !ok || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return Equal(av.Return, bv.Return)
	default:
		return false
	}
}
