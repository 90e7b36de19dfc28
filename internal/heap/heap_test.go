package heap

import (
	"testing"

	"github.com/kahflane/naml/internal/types"
)

func TestRetainReleaseFreesNestedArrayElements(t *testing.T) {
	h := New()
	in := types.NewInterner()
	strTy := in.Builtins().String
	arrTy := in.Array(strTy)

	inner := h.AllocString(strTy, "hello", false)
	outer := h.AllocArray(arrTy, strTy, []Value{Boxed(strTy, inner)}, false)

	if inner.Header.RC.Load() != 1 {
		t.Fatalf("expected inner rc=1, got %d", inner.Header.RC.Load())
	}
	h.Release(outer)
	if inner.Header.RC.Load() != 0 {
		t.Fatalf("expected releasing the array to release its nested string, got rc=%d", inner.Header.RC.Load())
	}
}

func TestRetainIncrementsAndReleaseDecrements(t *testing.T) {
	h := New()
	in := types.NewInterner()
	o := h.AllocString(in.Builtins().String, "x", false)
	h.Retain(o)
	if o.Header.RC.Load() != 2 {
		t.Fatalf("expected rc=2 after retain, got %d", o.Header.RC.Load())
	}
	h.Release(o)
	if o.Header.RC.Load() != 1 {
		t.Fatalf("expected rc=1 after one release, got %d", o.Header.RC.Load())
	}
}

func TestPinnedObjectIgnoresRetainAndRelease(t *testing.T) {
	h := New()
	in := types.NewInterner()
	o := h.AllocString(in.Builtins().String, "const", false)
	h.Pin(o)
	h.Retain(o)
	h.Release(o)
	h.Release(o)
	if o.Header.RC.Load() != PinnedRC {
		t.Fatalf("expected pinned object's rc to stay fixed, got %d", o.Header.RC.Load())
	}
}

func TestReleaseUnderflowPanics(t *testing.T) {
	h := New()
	in := types.NewInterner()
	o := h.AllocString(in.Builtins().String, "x", false)
	h.Release(o) // rc: 1 -> 0, frees
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic releasing an already-freed object")
		}
	}()
	h.Release(o)
}

func TestArenaObjectsSkipIndividualRelease(t *testing.T) {
	h := New()
	in := types.NewInterner()
	o := h.AllocString(in.Builtins().String, "scratch", true)
	if !o.InArena() {
		t.Fatalf("expected ArenaBit to be set")
	}
	h.Release(o)
	if o.Header.RC.Load() != 1 {
		t.Fatalf("expected an arena object's rc to be untouched by Release, got %d", o.Header.RC.Load())
	}
	h.ResetArena()
}

func TestMapKeyEqualityIsByStringContentNotObjectIdentity(t *testing.T) {
	h := New()
	in := types.NewInterner()
	strTy := in.Builtins().String
	intTy := in.Builtins().Int
	mapTy := in.Map(strTy, intTy)

	m := h.AllocMap(mapTy, false)
	k1 := h.AllocString(strTy, "key", false)
	k2 := h.AllocString(strTy, "key", false)

	m.Entries[mapKey(Boxed(strTy, k1))] = Int(intTy, 1)
	if _, ok := m.Entries[mapKey(Boxed(strTy, k2))]; !ok {
		t.Fatalf("expected two distinct Objects with equal string content to collide as the same map key")
	}
}

func TestReleasingStructReleasesNestedFields(t *testing.T) {
	h := New()
	in := types.NewInterner()
	strTy := in.Builtins().String
	structTy := in.Builtins().Unit // placeholder type id; fields carry their own real types

	field := h.AllocString(strTy, "field", false)
	s := h.AllocStruct(structTy, []Value{Boxed(strTy, field)}, false)

	h.Release(s)
	if field.Header.RC.Load() != 0 {
		t.Fatalf("expected releasing a struct to release its fields, got rc=%d", field.Header.RC.Load())
	}
}

func TestReleasingChannelClosesIt(t *testing.T) {
	h := New()
	in := types.NewInterner()
	chTy := in.Channel(in.Builtins().Int)
	ch := h.AllocChannel(chTy, in.Builtins().Int, 0, false)

	h.Release(ch)
	select {
	case _, ok := <-ch.Ch:
		if ok {
			t.Fatalf("expected the channel to be closed, not to yield a value")
		}
	default:
		t.Fatalf("expected a closed channel receive to proceed without blocking")
	}
}

func TestReleasingMutexReleasesGuardedValue(t *testing.T) {
	h := New()
	in := types.NewInterner()
	strTy := in.Builtins().String
	mutexTy := in.Mutex(strTy)

	guarded := h.AllocString(strTy, "guarded", false)
	mu := h.AllocMutex(mutexTy, Boxed(strTy, guarded), false)

	h.Release(mu)
	if guarded.Header.RC.Load() != 0 {
		t.Fatalf("expected releasing a mutex to release its guarded value, got rc=%d", guarded.Header.RC.Load())
	}
}

func TestOptionNoneHasNoPayload(t *testing.T) {
	h := New()
	in := types.NewInterner()
	optTy := in.Option(in.Builtins().Int)
	none := h.AllocNone(optTy, false)
	if none.Tag != 0 || none.Payload != nil {
		t.Fatalf("expected none to carry tag 0 and no payload, got tag=%d payload=%v", none.Tag, none.Payload)
	}
}
