package inference

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-set/v2"

	"minilang/analyzer-go/pkg/types"
)

// Unify makes a and b equal by binding type variables, or fails. Bound
// variables are never rebound; unification continues through their instance.
// There is no occurs check: a variable may be bound to a type containing it.
func (in *Inferencer) Unify(a, b types.Type) error {
	return in.unify(a, b, set.New[int](0))
}

// unify tracks the variables whose instances are being expanded on the
// current path. Meeting one of them again means the binding graph is cyclic.
func (in *Inferencer) unify(a, b types.Type, visiting *set.Set[int]) error {
	if a == nil || b == nil {
		return types.Errorf(types.InvalidNode, "inference: cannot unify %s with %s", types.FormatType(a), types.FormatType(b))
	}
	left, leftChain := in.walk(a)
	right, rightChain := in.walk(b)
	chain := append(append([]int(nil), leftChain...), rightChain...)
	for _, id := range chain {
		if visiting.Contains(id) {
			return types.Errorf(types.RecursiveType, "inference: recursive type through %s", types.TypeVar{ID: id}.Name())
		}
	}
	entered := make([]int, 0, len(chain))
	for _, id := range chain {
		if visiting.Insert(id) {
			entered = append(entered, id)
		}
	}
	defer func() {
		for _, id := range entered {
			visiting.Remove(id)
		}
	}()

	if lv, ok := left.(types.TypeVar); ok {
		return in.bind(lv, right)
	}
	if rv, ok := right.(types.TypeVar); ok {
		return in.bind(rv, left)
	}

	switch l := left.(type) {
	case types.FunctionType:
		r, ok := right.(types.FunctionType)
		if !ok {
			break
		}
		if len(l.Params) != len(r.Params) {
			return types.Errorf(
				types.ArityMismatch,
				"inference: function types have different numbers of parameters: %d and %d",
				len(l.Params), len(r.Params),
			)
		}
		for i := range l.Params {
			if err := in.unify(l.Params[i], r.Params[i], visiting); err != nil {
				return err
			}
		}
		return in.unify(l.Return, r.Return, visiting)
	case types.IntType:
		if _, ok := right.(types.IntType); ok {
			return nil
		}
	case types.BoolType:
		if _, ok := right.(types.BoolType); ok {
			return nil
		}
	}
	return types.Errorf(types.UnificationTypeMismatch, "inference: type mismatch: %s and %s", left.Name(), right.Name())
}

// bind links an unbound variable to t. Unifying a variable with itself is a
// no-op.
func (in *Inferencer) bind(v types.TypeVar, t types.Type) error {
	if other, ok := t.(types.TypeVar); ok && other.ID == v.ID {
		return nil
	}
	if err := in.vars.Bind(v, t); err != nil {
		return types.Errorf(types.InvalidNode, "inference: %v", err)
	}
	in.logger.Debug("bound type variable", "var", v.Name(), "type", t.Name())
	return nil
}

// walk follows variable links to a non-variable type or an unbound
// variable, returning the ids of the bound variables it passed through.
func (in *Inferencer) walk(t types.Type) (types.Type, []int) {
	var chain []int
	for {
		v, ok := t.(types.TypeVar)
		if !ok {
			return t, chain
		}
		inst, bound := in.vars.Instance(v)
		if !bound {
			return v, chain
		}
		for _, id := range chain {
			if id == v.ID {
				return v, chain
			}
		}
		chain = append(chain, v.ID)
		t = inst
	}
}

// withContext prefixes an analysis error's message, keeping its kind.
func withContext(err error, context string) error {
	var typed *types.Error
	if !errors.As(err, &typed) {
		return err
	}
	return &types.Error{
		Kind:    typed.Kind,
		Message: "inference: " + context + ": " + strings.TrimPrefix(typed.Message, "inference: "),
	}
}
