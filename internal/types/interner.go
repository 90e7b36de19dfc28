package types

import (
	"fmt"
	"strings"
)

// Builtins caches TypeIDs for primitives allocated at interner
// construction time.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Nothing TypeID
	Bool    TypeID
	String  TypeID
	Bytes   TypeID
	Int     TypeID
	Uint    TypeID
	Float   TypeID
}

// Interner assigns stable TypeIDs by hashing a structural key, so two
// requests for the same shape (e.g. array<int>) return the same TypeID —
// the pointer/ID equality invariant of §3.2.
type Interner struct {
	types    []Type
	index    map[string]TypeID
	builtins Builtins
}

func NewInterner() *Interner {
	in := &Interner{index: make(map[string]TypeID, 128)}
	in.types = append(in.types, Type{Kind: KindInvalid}) // reserve 0 = NoTypeID
	in.builtins.Invalid = NoTypeID
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Nothing = in.Intern(Type{Kind: KindNothing})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Bytes = in.Intern(Type{Kind: KindBytes})
	in.builtins.Int = in.Intern(MakeInt(Width64, true))
	in.builtins.Uint = in.Intern(MakeInt(Width64, false))
	in.builtins.Float = in.Intern(Type{Kind: KindFloat, Width: Width64})
	return in
}

func (in *Interner) Builtins() Builtins { return in.builtins }

func MakeInt(w Width, signed bool) Type {
	kind := KindUint
	if signed {
		kind = KindInt
	}
	return Type{Kind: kind, Width: w, Signed: signed}
}

// key produces a structural hash key so structurally identical Types
// collapse to one TypeID regardless of how many times they're requested.
func key(t Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d|w%d|s%v|e%d|dp%d|ds%d|def%d|", t.Kind, t.Width, t.Signed, t.Elem, t.DecPrecision, t.DecScale, t.Def)
	for _, a := range t.Args {
		fmt.Fprintf(&sb, "%d,", a)
	}
	sb.WriteByte('|')
	for _, p := range t.Params {
		fmt.Fprintf(&sb, "%d,", p)
	}
	fmt.Fprintf(&sb, "|ret%d|", t.Ret)
	for _, e := range t.Throws {
		fmt.Fprintf(&sb, "%d,", e)
	}
	fmt.Fprintf(&sb, "|k%d|v%d", t.Key, t.Val)
	return sb.String()
}

// Intern returns the canonical TypeID for t, allocating a fresh one on
// first occurrence of its structural key.
func (in *Interner) Intern(t Type) TypeID {
	k := key(t)
	if id, ok := in.index[k]; ok {
		return id
	}
	id := TypeID(len(in.types))
	in.types = append(in.types, t)
	in.index[k] = id
	return id
}

func (in *Interner) Lookup(id TypeID) Type {
	if int(id) >= len(in.types) {
		return Type{Kind: KindInvalid}
	}
	return in.types[id]
}

// Equal reports whether a and b denote the same type. Because Types are
// interned, this is ID equality (§3.2).
func (in *Interner) Equal(a, b TypeID) bool {
	return a == b
}

func (in *Interner) String(id TypeID) string {
	t := in.Lookup(id)
	switch t.Kind {
	case KindArray:
		return "array<" + in.String(t.Elem) + ">"
	case KindOption:
		return "option<" + in.String(t.Elem) + ">"
	case KindMutex:
		return "mutex<" + in.String(t.Elem) + ">"
	case KindRwLock:
		return "rwlock<" + in.String(t.Elem) + ">"
	case KindAtomic:
		return "atomic<" + in.String(t.Elem) + ">"
	case KindChannel:
		return "channel<" + in.String(t.Elem) + ">"
	case KindMap:
		return "map<" + in.String(t.Key) + ", " + in.String(t.Val) + ">"
	case KindNamed:
		s := fmt.Sprintf("def#%d", t.Def)
		if len(t.Args) > 0 {
			s += "<"
			for i, a := range t.Args {
				if i > 0 {
					s += ", "
				}
				s += in.String(a)
			}
			s += ">"
		}
		return s
	case KindInt:
		if t.Width == WidthAny || t.Width == Width64 {
			return "int"
		}
		return fmt.Sprintf("int%d", t.Width)
	case KindUint:
		if t.Width == WidthAny || t.Width == Width64 {
			return "uint"
		}
		return fmt.Sprintf("uint%d", t.Width)
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.DecPrecision, t.DecScale)
	default:
		return t.Kind.String()
	}
}
