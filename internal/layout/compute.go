package layout

import (
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/types"
)

// computeSlotLayout is the uncached body of LayoutOf. Unlike the
// teacher's computeLayout, this never recurses into another type's
// payload: every kind capable of self-reference (struct, enum, array,
// map, ...) is boxed per types.Interner.IsBoxed, so its slot layout is
// always just a pointer. A genuinely infinite-size value shape — the
// reason the teacher's layout engine tracks a cycle-detection stack —
// can't arise here; see DESIGN.md.
func (e *Engine) computeSlotLayout(id types.TypeID) (TypeLayout, error) {
	if e.Types.IsBoxed(id) {
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil
	}

	t := e.Types.Lookup(id)
	switch t.Kind {
	case types.KindInvalid, types.KindUnit, types.KindNothing:
		return TypeLayout{Size: 0, Align: 1}, nil
	case types.KindBool:
		return TypeLayout{Size: 1, Align: 1}, nil
	case types.KindInt, types.KindUint, types.KindFloat:
		return scalarLayout(t.Width), nil
	case types.KindDecimal:
		// Fixed-point backing store wide enough for any (p, s) this
		// grammar accepts; DecPrecision/DecScale drive formatting and
		// arithmetic scaling, not storage width.
		return TypeLayout{Size: 16, Align: 8}, nil
	case types.KindFn, types.KindInterface:
		// A naked fn value is a code pointer; an interface-typed slot
		// holds the same pointer a concrete struct value would (Open
		// Question 2: interface satisfaction is resolved statically at
		// the call site, so there's no separate boxed interface form,
		// fat pointer, or vtable to lay out).
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign}, nil
	default:
		// KindNamed/KindTypeParam should never reach layout: internal/mono
		// substitutes every type parameter with a concrete type before
		// mir lowering runs, so a caller handing either of these kinds
		// to the layout engine has a real bug upstream.
		return TypeLayout{}, &Error{Code: diag.CodegenUnresolvedGeneric, Type: id}
	}
}

func scalarLayout(w types.Width) TypeLayout {
	switch w {
	case types.Width8:
		return TypeLayout{Size: 1, Align: 1}
	case types.Width16:
		return TypeLayout{Size: 2, Align: 2}
	case types.Width32:
		return TypeLayout{Size: 4, Align: 4}
	default: // Width64, WidthAny (defaults to 64-bit per §4.3)
		return TypeLayout{Size: 8, Align: 8}
	}
}

// computePayloadLayout is the uncached body of PayloadLayoutOf, called
// only for types.Interner.IsBoxed kinds. Each case follows §3.1's
// payload table verbatim.
func (e *Engine) computePayloadLayout(id types.TypeID) (TypeLayout, error) {
	t := e.Types.Lookup(id)
	switch t.Kind {
	case types.KindString:
		// { len: u64, bytes: [u8; len] }
		return TypeLayout{Size: 8, Align: 8, Variable: true}, nil

	case types.KindBytes:
		// { len: u64, cap: u64, bytes: [u8; cap] }
		return TypeLayout{Size: 16, Align: 8, Variable: true}, nil

	case types.KindArray:
		// { len: u64, cap: u64, elem_size: u8, elems }
		elemLayout, err := e.LayoutOf(t.Elem)
		if err != nil {
			return TypeLayout{}, err
		}
		fixed := 8 + 8 + 1
		offset := roundUp(fixed, maxInt(1, elemLayout.Align))
		return TypeLayout{
			Size: offset, Align: maxInt(8, elemLayout.Align), Variable: true,
			ElemSize: elemLayout.Size, ElemAlign: elemLayout.Align,
		}, nil

	case types.KindMap:
		// Open-addressed hash table; naml gives no further byte-level
		// detail, so a map's entries are only ever reached through
		// heap.Object's MapGet/MapSet, never by computed offset.
		return TypeLayout{Align: e.Target.PtrAlign, Variable: true, Opaque: true}, nil

	case types.KindStruct:
		return e.structFieldLayout(e.Reg.Struct(t.Def).Fields)

	case types.KindException:
		return e.structFieldLayout(e.Reg.Exception(t.Def).Fields)

	case types.KindEnum:
		return e.enumPayloadLayout(e.Reg.Enum(t.Def).Variants)

	case types.KindOption:
		// §3.1: Option is "a variant of Enum with tag 0 = none, 1 =
		// some" — its payload shares Enum's {tag, payload} shape with
		// a single implicit Some(Elem) variant.
		return e.enumPayloadLayout([]types.Variant{{Name: "some", Tag: 1, Payload: t.Elem}})

	case types.KindMutex, types.KindRwLock, types.KindAtomic:
		// "lock word + payload" — one pointer-sized lock word, then the
		// guarded value's slot inline.
		elemLayout, err := e.LayoutOf(t.Elem)
		if err != nil {
			return TypeLayout{}, err
		}
		offset := roundUp(e.Target.PtrSize, maxInt(1, elemLayout.Align))
		return TypeLayout{
			PayloadOffset: offset, Size: offset + elemLayout.Size,
			Align: maxInt(e.Target.PtrAlign, elemLayout.Align),
		}, nil

	case types.KindChannel:
		// "bounded ring buffer + condition variables" — capacity is a
		// runtime construction parameter, not part of the static type,
		// so like Map this is runtime-owned and opaque to codegen.
		return TypeLayout{Align: e.Target.PtrAlign, Variable: true, Opaque: true}, nil

	case types.KindClosure:
		// { fn_ptr, captures: [Value; N] }. N and each capture's type
		// are properties of the specific mir.ClosureLit that created
		// the value, not of the bare KindClosure type (which §4.3
		// leaves signature-less) — codegen lays out the capture tail
		// per call site from RValueClosure.Captures, not from this.
		return TypeLayout{Size: e.Target.PtrSize, Align: e.Target.PtrAlign, Variable: true}, nil

	default:
		return TypeLayout{}, &Error{Code: diag.CodegenUnresolvedGeneric, Type: id}
	}
}

// structFieldLayout lays out fields in declared order, each padded to
// its own natural alignment (§3.1: "inline field storage in declared
// order, padded to natural alignment") — no @packed/@align override,
// since naml's struct/exception grammar carries no layout attributes.
func (e *Engine) structFieldLayout(fields []types.Field) (TypeLayout, error) {
	offsets := make([]int, len(fields))
	offset := 0
	align := 1
	for i, f := range fields {
		fl, err := e.LayoutOf(f.Type)
		if err != nil {
			return TypeLayout{}, err
		}
		offset = roundUp(offset, maxInt(1, fl.Align))
		offsets[i] = offset
		offset += fl.Size
		if fl.Align > align {
			align = fl.Align
		}
	}
	return TypeLayout{Size: roundUp(offset, align), Align: align, FieldOffsets: offsets}, nil
}

// enumPayloadLayout sizes the payload region to the largest variant,
// per §3.1 ("{tag: u16, payload_bytes} sized to the largest variant").
func (e *Engine) enumPayloadLayout(variants []types.Variant) (TypeLayout, error) {
	const tagSize = 2
	maxSize, maxAlign := 0, 1
	for _, v := range variants {
		if v.Payload == types.NoTypeID {
			continue
		}
		vl, err := e.LayoutOf(v.Payload)
		if err != nil {
			return TypeLayout{}, err
		}
		if vl.Size > maxSize {
			maxSize = vl.Size
		}
		if vl.Align > maxAlign {
			maxAlign = vl.Align
		}
	}
	offset := roundUp(tagSize, maxAlign)
	return TypeLayout{
		TagSize: tagSize, PayloadOffset: offset, Size: offset + maxSize,
		Align: maxInt(tagSize, maxAlign),
	}, nil
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
