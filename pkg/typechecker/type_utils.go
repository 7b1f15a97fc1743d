package typechecker

import "minilang/analyzer-go/pkg/types"

// TypesEqual performs a permissive structural comparison. A type variable on
// either side matches anything; the checker never solves variables itself.
func TypesEqual(a, b types.Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if types.IsTypeVar(a) || types.IsTypeVar(b) {
		return true
	}
	switch left := a.(type) {
	case types.IntType:
		_, ok := b.(types.IntType)
		return ok
	case types.BoolType:
		_, ok := b.(types.BoolType)
		return ok
	case types.FunctionType:
		right, ok := b.(types.FunctionType)
		if !ok || len(left.Params) != len(right.Params) {
			return false
		}
		for i := range left.Params {
			if !TypesEqual(left.Params[i], right.Params[i]) {
				return false
			}
		}
		return TypesEqual(left.Return, right.Return)
	default:
		return false
	}
}

// isIntType accepts Int and unresolved variables, which may still turn out
// to be Int.
func isIntType(t types.Type) bool {
	switch t.(type) {
	case types.IntType, types.TypeVar:
		return true
	default:
		return false
	}
}
