package runtime

import (
	"github.com/kahflane/naml/internal/codegen"
	"github.com/kahflane/naml/internal/diag"
	"github.com/kahflane/naml/internal/heap"
	"github.com/kahflane/naml/internal/scheduler"
	"github.com/kahflane/naml/internal/types"
)

// maxCallDepth bounds the frame stack; exceeding it raises
// RuntimeStackOverflow (§7) rather than letting a runaway recursion
// exhaust the host process's own stack or heap.
const maxCallDepth = 4096

// Options configures the trade-offs §7 leaves to a --unsafe flag:
// skipping array bounds checks and integer overflow checks once a
// program has been validated in a checked run, plus the worker count
// §4.7 defaults to the logical CPU count.
type Options struct {
	Unsafe  bool
	Workers int
}

// Runtime executes one finalized codegen.Program to completion. It owns
// the one heap.Heap and frame stack a single program run needs; a
// second concurrently-running program (there is no such API surface
// today) would need its own Runtime.
type Runtime struct {
	prog *codegen.Program

	heap  *heap.Heap
	types *types.Interner
	reg   *types.Registry

	consts map[string]heap.Value

	opts Options

	sched *scheduler.Scheduler
}

// New prepares a Runtime to execute prog against h. prog must already be
// finalized (codegen.Program.Finalize) against a host-function table
// built by HostTable(h, in) — h is threaded in here rather than created
// fresh so the very same Heap that resolved the host functions' channel/
// mutex/atomic allocations is the one Run's frames retain/release
// against.
func New(prog *codegen.Program, h *heap.Heap, in *types.Interner, reg *types.Registry, opts Options) *Runtime {
	rt := &Runtime{
		prog:  prog,
		heap:  h,
		types: in,
		reg:   reg,
		opts:  opts,
	}
	rt.consts = make(map[string]heap.Value, len(prog.Consts))
	for name, c := range prog.Consts {
		rt.consts[name] = rt.evalConst(c)
	}
	rt.sched = scheduler.New(opts.Workers, rt)
	return rt
}

// Close stops the runtime's worker pool. Run calls this itself once
// main returns or faults; exposed for a caller (e.g. a future REPL)
// that constructs a Runtime without ever calling Run to completion.
func (rt *Runtime) Close() { rt.sched.Close() }

// Run locates and invokes main per §4.5/§6.4, returning the process
// exit code: 0 on a clean return, 2 on a Fault (runtime error) or
// uncaught exception reaching the outermost frame, and 3 together with a
// Fault when prog has no main entry function.
func (rt *Runtime) Run() (int, *Fault) {
	defer rt.Close()
	entry, ok := rt.prog.Entry()
	if !ok {
		return 3, rt.fault(nil, diag.UnknownCode, "no main function in program")
	}
	_, sig := rt.call(entry, nil, nil)
	if sig == nil {
		return 0, nil
	}
	if sig.fault != nil {
		return 2, sig.fault
	}
	return 2, rt.uncaughtException(nil, rt.describeException(sig.exc))
}

// RunTask runs a spawned task's closure to completion on whichever
// goroutine calls it (one of the scheduler's own workers), satisfying
// scheduler.TaskRunner. The task starts its own call chain (parent nil)
// rather than linking to the spawning frame: it now runs concurrently
// with its spawner, so their frames are not part of one logical stack
// (§4.7). A task Fault or uncaught exception is returned as a plain
// error rather than propagated as this package's own *signal, matching
// §4.7's "a task runs until its body returns or it throws an unhandled
// exception (which terminates the program)": the corresponding join()
// surfaces that error to its own frame, which turns it into a Fault
// that ends the whole program exactly as an uncaught exception in main
// would.
func (rt *Runtime) RunTask(closure heap.Value, args []heap.Value) (heap.Value, error) {
	result, sig := rt.InvokeClosure(closure, args, nil)
	if sig == nil {
		return result, nil
	}
	if sig.fault != nil {
		return heap.Value{}, sig.fault
	}
	return heap.Value{}, rt.uncaughtException(nil, rt.describeException(sig.exc))
}

// call pushes a new Frame for fp linked to parent (nil for a
// goroutine's own outermost frame), binds args positionally into its
// parameter locals, and runs the dispatch loop to completion. parent
// replaces a single Runtime-wide frame-stack slice so that concurrently
// running goroutines (the scheduler's workers, §4.7) never share
// mutable call-stack state — see Frame's doc comment.
func (rt *Runtime) call(fp *codegen.FuncProgram, args []heap.Value, parent *Frame) (heap.Value, *signal) {
	depth := 0
	if parent != nil {
		depth = parent.depth + 1
	}
	if depth >= maxCallDepth {
		return heap.Value{}, &signal{fault: rt.stackOverflow(parent)}
	}
	fr := newFrame(fp, parent)
	for i, id := range fp.ParamLocals {
		if i < len(args) {
			fr.locals[id] = args[i]
		}
	}
	result, sig := rt.dispatch(fr)
	if sig != nil {
		fr.releaseHeldLocks()
	}
	return result, sig
}

// InvokeClosure runs a closure value to completion: evaluating the
// operand to a heap.Value carrying layout.ObjClosure, resolving its
// target FuncProgram by name, and binding the new frame's parameters as
// the closure's Captures followed by extraArgs, positionally matched
// against the callee's ParamLocals. internal/scheduler's task dispatch
// and the interpreter's own CalleeValue call site both go through this,
// since a spawned task body (mir's RValueClosure, emitted only by
// lowerSpawn today) is just a closure with no extra call-site args.
// parent is the calling Frame, or nil when invoked as a fresh task.
func (rt *Runtime) InvokeClosure(v heap.Value, extraArgs []heap.Value, parent *Frame) (heap.Value, *signal) {
	fp, ok := rt.prog.ByName[v.Obj.ClosureFn]
	if !ok {
		return heap.Value{}, &signal{fault: rt.fault(parent, diag.UnknownCode, "unresolved closure target %q", v.Obj.ClosureFn)}
	}
	args := make([]heap.Value, 0, len(v.Obj.Captures)+len(extraArgs))
	args = append(args, v.Obj.Captures...)
	args = append(args, extraArgs...)
	return rt.call(fp, args, parent)
}
