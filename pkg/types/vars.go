package types

import "fmt"

type varCell struct {
	instance Type
}

// VarTable is the arena backing type variables. A cell starts unbound and
// may be bound exactly once.
type VarTable struct {
	cells []varCell
}

func NewVarTable() *VarTable {
	return &VarTable{}
}

// Fresh allocates a new unbound variable.
func (t *VarTable) Fresh() TypeVar {
	t.cells = append(t.cells, varCell{})
	return TypeVar{ID: len(t.cells) - 1}
}

// Len returns the number of allocated variables.
func (t *VarTable) Len() int {
	return len(t.cells)
}

func (t *VarTable) owns(v TypeVar) bool {
	return v.ID >= 0 && v.ID < len(t.cells)
}

// Instance returns the type a variable is bound to. Variables the table did
// not allocate are reported as unbound.
func (t *VarTable) Instance(v TypeVar) (Type, bool) {
	if !t.owns(v) {
		return nil, false
	}
	inst := t.cells[v.ID].instance
	return inst, inst != nil
}

// Bind links an unbound variable to a type.
func (t *VarTable) Bind(v TypeVar, to Type) error {
	if !t.owns(v) {
		return fmt.Errorf("types: variable %s not allocated by this table", v.Name())
	}
	if to == nil {
		return fmt.Errorf("types: cannot bind %s to nil", v.Name())
	}
	if cur := t.cells[v.ID].instance; cur != nil {
		return fmt.Errorf("types: %s already bound to %s", v.Name(), FormatType(cur))
	}
	t.cells[v.ID].instance = to
	return nil
}

// Walk follows variable links until it reaches a non-variable type or an
// unbound variable. It does not descend into function types.
func (t *VarTable) Walk(typ Type) Type {
	seen := 0
	for {
		v, ok := typ.(TypeVar)
		if !ok {
			return typ
		}
		inst, bound := t.Instance(v)
		if !bound {
			return v
		}
		typ = inst
		// a chain longer than the arena is a cycle built directly through Bind
		seen++
		if seen > len(t.cells) {
			return v
		}
	}
}
