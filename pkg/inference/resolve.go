package inference

import (
	"github.com/hashicorp/go-set/v2"

	"minilang/analyzer-go/pkg/types"
)

// Resolve substitutes every bound variable in t. An unbound variable is
// returned as itself. Resolving a resolved type returns it unchanged.
func (in *Inferencer) Resolve(t types.Type) (types.Type, error) {
	return in.resolve(t, set.New[int](0))
}

func (in *Inferencer) resolve(t types.Type, visiting *set.Set[int]) (types.Type, error) {
	switch v := t.(type) {
	case nil:
		return nil, types.Errorf(types.InvalidNode, "inference: cannot resolve a missing type")
	case types.TypeVar:
		inst, bound := in.vars.Instance(v)
		if !bound {
			return v, nil
		}
		if !visiting.Insert(v.ID) {
			return nil, types.Errorf(types.RecursiveType, "inference: recursive type through %s", v.Name())
		}
		defer visiting.Remove(v.ID)
		return in.resolve(inst, visiting)
	case types.FunctionType:
		params := make([]types.Type, len(v.Params))
		for i, param := range v.Params {
			resolved, err := in.resolve(param, visiting)
			if err != nil {
				return nil, err
			}
			params[i] = resolved
		}
		ret, err := in.resolve(v.Return, visiting)
		if err != nil {
			return nil, err
		}
		return types.FunctionType{Params: params, Return: ret}, nil
	default:
		return t, nil
	}
}

// resolveEnvironment replaces every typeEnv entry with its resolved image.
func (in *Inferencer) resolveEnvironment() error {
	for _, name := range in.Names() {
		resolved, err := in.Resolve(in.typeEnv[name])
		if err != nil {
			return withContext(err, "resolving '"+name+"'")
		}
		in.typeEnv[name] = resolved
		in.logger.Debug("resolved binding", "name", name, "type", resolved.Name())
	}
	return nil
}
