package mono

import "github.com/kahflane/naml/internal/types"

// substType rewrites every type-param placeholder DefID found in t
// according to subst, rebuilding compound types through the interner as
// needed. A direct copy of internal/sema/call_type_instantiation.go's
// unexported substTypeID: sema needs its own copy at unification time,
// mono needs the identical rewrite at specialization time, and neither
// package is in a position to export/import the other's private helper
// without a layering cycle (sema must not depend on mono).
func substType(in *types.Interner, t types.TypeID, subst map[types.DefID]types.TypeID) types.TypeID {
	tt := in.Lookup(t)
	switch tt.Kind {
	case types.KindTypeParam:
		if v, ok := subst[tt.Def]; ok {
			return v
		}
		return t
	case types.KindArray:
		return in.Array(substType(in, tt.Elem, subst))
	case types.KindOption:
		return in.Option(substType(in, tt.Elem, subst))
	case types.KindMutex:
		return in.Mutex(substType(in, tt.Elem, subst))
	case types.KindRwLock:
		return in.RwLock(substType(in, tt.Elem, subst))
	case types.KindAtomic:
		return in.Atomic(substType(in, tt.Elem, subst))
	case types.KindChannel:
		return in.Channel(substType(in, tt.Elem, subst))
	case types.KindMap:
		return in.Map(substType(in, tt.Key, subst), substType(in, tt.Val, subst))
	case types.KindFn:
		params := make([]types.TypeID, len(tt.Params))
		for i, p := range tt.Params {
			params[i] = substType(in, p, subst)
		}
		throws := make([]types.TypeID, len(tt.Throws))
		for i, e := range tt.Throws {
			throws[i] = substType(in, e, subst)
		}
		return in.Fn(params, substType(in, tt.Ret, subst), throws)
	default:
		return t
	}
}

func substTypeSlice(in *types.Interner, ts []types.TypeID, subst map[types.DefID]types.TypeID) []types.TypeID {
	if len(ts) == 0 {
		return nil
	}
	out := make([]types.TypeID, len(ts))
	for i, t := range ts {
		out[i] = substType(in, t, subst)
	}
	return out
}
