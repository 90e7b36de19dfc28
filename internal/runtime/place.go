package runtime

import (
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/layout"
	"github.com/kahflane/naml/internal/mir"
)

// setPlace stores val into place, walking any field/index projections
// (m[k] = v, s.field = v, a[i] = v) before the final write. Every
// projection but the last is a read that must resolve to a boxed
// Object to project further into; the last is the write itself.
func (rt *Runtime) setPlace(fr *Frame, place mir.Place, val heap.Value) *Fault {
	if len(place.Proj) == 0 {
		fr.locals[place.Local] = val
		return nil
	}

	obj := fr.locals[place.Local].Obj
	for i, proj := range place.Proj {
		last := i == len(place.Proj)-1
		switch proj.Kind {
		case mir.PlaceProjField:
			if last {
				obj.Fields[proj.FieldIdx] = val
				return nil
			}
			obj = obj.Fields[proj.FieldIdx].Obj

		default: // mir.PlaceProjIndex
			key := rt.evalOperand(fr, proj.Index)
			if obj.Header.Kind == layout.ObjMap {
				if last {
					obj.MapSet(key, val)
					return nil
				}
				next, _ := obj.MapGet(key)
				obj = next.Obj
				continue
			}
			idx := int(key.I)
			if last {
				if !obj.ArraySet(idx, val) && !rt.opts.Unsafe {
					return rt.indexOutOfBounds(fr, idx, len(obj.Elems))
				}
				return nil
			}
			next, ok := obj.ArrayGet(idx)
			if !ok && !rt.opts.Unsafe {
				return rt.indexOutOfBounds(fr, idx, len(obj.Elems))
			}
			obj = next.Obj
		}
	}
	return nil
}
