// Package syncrt implements the blocking-primitive bodies behind naml's
// mutex/rwlock/atomic host functions (§4.8): plain operations against
// one heap.Object's Lock/Guarded fields, with none of the naml-specific
// concerns (Faults, exceptions, frame bookkeeping) of their own —
// internal/runtime's host table wraps each of these with the Fault/
// exception translation §7 requires at the call boundary. Channel send/
// receive/close live directly on heap.Object instead (ChannelSend et
// al.), since they need the unexported chMu/closed pair this package
// has no access to.
//
// Grounded in the teacher's own preference for goroutine-blocking
// primitives over a hand-rolled futex: surge's internal/driver/parallel.go
// reaches for golang.org/x/sync/errgroup and the standard library's own
// synchronization rather than anything lower-level, and naml's mutex/
// rwlock map directly onto sync.RWMutex the same way — ObjMutex only
// ever takes the full write lock (heap.Object's own doc comment) while
// ObjRwLock exercises both RLock and Lock.
package syncrt

import "github.com/kahflane/naml/internal/heap"

// Lock acquires o's lock exclusively: naml's plain mutex, or an rwlock
// in write mode.
func Lock(o *heap.Object) { o.Lock.Lock() }

// Unlock releases a lock acquired by Lock.
func Unlock(o *heap.Object) { o.Lock.Unlock() }

// RLock acquires o's lock in shared (read) mode.
func RLock(o *heap.Object) { o.Lock.RLock() }

// RUnlock releases a lock acquired by RLock.
func RUnlock(o *heap.Object) { o.Lock.RUnlock() }

// Read returns the value o currently guards. Caller must hold o's lock.
func Read(o *heap.Object) heap.Value { return o.Guarded }

// Write replaces the value o guards. Caller must hold o's lock
// exclusively.
func Write(o *heap.Object, v heap.Value) { o.Guarded = v }

// Load reads o's guarded value under its own lock, independent of any
// locked/rlocked/wlocked region the caller may or may not be holding —
// atomic<T> has no separate lock/unlock step (§4.8).
func Load(o *heap.Object) heap.Value {
	o.Lock.RLock()
	defer o.Lock.RUnlock()
	return o.Guarded
}

// Store replaces o's guarded value under its own lock.
func Store(o *heap.Object, v heap.Value) {
	o.Lock.Lock()
	defer o.Lock.Unlock()
	o.Guarded = v
}

// CAS performs a sequentially-consistent compare-and-swap (§4.8: "cas
// succeeds iff the current value equals exp"), holding o's lock for the
// whole check-and-set so a concurrent Load/Store/CAS can't interleave
// with it. eq is injected rather than imported, since value equality
// for every naml type already lives in internal/runtime's evalBinary
// and this package has no business duplicating it.
func CAS(o *heap.Object, exp, new heap.Value, eq func(a, b heap.Value) bool) bool {
	o.Lock.Lock()
	defer o.Lock.Unlock()
	if !eq(o.Guarded, exp) {
		return false
	}
	o.Guarded = new
	return true
}
