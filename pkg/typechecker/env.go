package typechecker

import (
	"sort"

	"minilang/analyzer-go/pkg/types"
)

// Environment represents a lexical scope used during typechecking.
type Environment struct {
	parent  *Environment
	symbols map[string]types.Type
}

// NewEnvironment creates a new environment with an optional parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		parent:  parent,
		symbols: make(map[string]types.Type),
	}
}

// Define binds a name to a type in the current scope.
func (e *Environment) Define(name string, typ types.Type) {
	e.symbols[name] = typ
}

// Lookup searches for a name in the current scope chain.
func (e *Environment) Lookup(name string) (types.Type, bool) {
	if typ, ok := e.symbols[name]; ok {
		return typ, true
	}
	if e.parent != nil {
		return e.parent.Lookup(name)
	}
	return nil, false
}

// Extend returns a child environment. Bindings made in the child never reach
// the parent; dropping the child restores the enclosing scope.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}

// Names lists the names bound directly in this scope, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.symbols))
	for name := range e.symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
