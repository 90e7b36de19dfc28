package types

// IsNumeric reports whether a type participates in arithmetic operators.
func (in *Interner) IsNumeric(id TypeID) bool {
	k := in.Lookup(id).Kind
	return k == KindInt || k == KindUint || k == KindFloat || k == KindDecimal
}

// IsScalar reports whether a value of this type is stored unboxed, per
// §3.1 ("unboxed scalars: int, uint, float, bool").
func (in *Interner) IsScalar(id TypeID) bool {
	switch in.Lookup(id).Kind {
	case KindBool, KindInt, KindUint, KindFloat, KindDecimal, KindUnit:
		return true
	default:
		return false
	}
}

// IsBoxed reports whether a value of this type lives behind a heap
// pointer with an RC header (§3.1).
func (in *Interner) IsBoxed(id TypeID) bool {
	switch in.Lookup(id).Kind {
	case KindString, KindBytes, KindArray, KindMap, KindStruct, KindEnum,
		KindOption, KindMutex, KindRwLock, KindAtomic, KindChannel,
		KindClosure, KindException:
		return true
	default:
		return false
	}
}

// Comparable reports whether values of this type may be map keys
// (§3.1: "keys restricted to scalar or string").
func (in *Interner) Comparable(id TypeID) bool {
	k := in.Lookup(id).Kind
	return in.IsScalar(id) || k == KindString
}
