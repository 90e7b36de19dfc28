// Package runtime executes a finalized internal/codegen.Program: a frame
// stack, a per-frame landing-pad stack for §4.9's two-phase unwinding, and
// the dispatch loop that walks one Op at a time. It plays the part the
// teacher's internal/vm package plays, but against codegen's already-
// flattened op tape rather than a basic-block-and-terminator walk, and
// against naml's always-boxed-or-scalar Value instead of the teacher's
// move-checked one (§4.6).
package runtime

import (
	"fmt"
	"strings"

	"github.com/kahflane/naml/internal/diag"
)

// BacktraceFrame names one still-live call at the moment a Fault was
// raised. mir carries source.Span only on Local declarations, not on
// individual instructions (internal/mir/types.go), so unlike the
// teacher's vm.BacktraceFrame there is no per-instruction span to
// attach here — the function name is the best provenance available
// without inventing position data internal/mir never threaded through.
type BacktraceFrame struct {
	FuncName string
}

// Fault is a runtime error per §7: "uncaught exception, force-unwrap of
// none, integer overflow, array index out of bounds, channel send on
// closed, release underflow, stack overflow." A Fault raised while the
// program runs terminates it with exit code 2 (§6.4; Run's missing-main
// Fault is the one exception, with exit code 3); Faults are never catchable (§7
// "Runtime faults are non-recoverable; they are not catchable via
// catch").
type Fault struct {
	Code      diag.Code
	Message   string
	Backtrace []BacktraceFrame
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

// Format renders a one-line summary followed by the live call stack,
// innermost first, matching §7's "single-line summary followed by ...
// a stack of function names."
func (f *Fault) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", f.Code, f.Message)
	for _, bf := range f.Backtrace {
		fmt.Fprintf(&sb, "\tat %s\n", bf.FuncName)
	}
	return sb.String()
}

// fault builds a Fault whose Backtrace walks fr's parent chain outward
// (innermost call first), rather than reversing a shared Runtime-wide
// frame-stack slice: each goroutine's call chain is its own linked list
// (Frame.parent), since the scheduler's workers run concurrently and
// cannot share one mutable stack (§4.7). fr is nil when the fault
// predates any frame (e.g. no main function found).
func (rt *Runtime) fault(fr *Frame, code diag.Code, format string, args ...any) *Fault {
	var bt []BacktraceFrame
	for f := fr; f != nil; f = f.parent {
		bt = append(bt, BacktraceFrame{FuncName: f.fp.Name})
	}
	return &Fault{Code: code, Message: fmt.Sprintf(format, args...), Backtrace: bt}
}

func (rt *Runtime) uncaughtException(fr *Frame, excSummary string) *Fault {
	return rt.fault(fr, diag.RuntimeUncaughtException, "uncaught exception: %s", excSummary)
}

func (rt *Runtime) forceUnwrapNone(fr *Frame) *Fault {
	return rt.fault(fr, diag.RuntimeForceUnwrapNone, "force-unwrap (!) of none")
}

func (rt *Runtime) integerOverflow(fr *Frame, op string) *Fault {
	return rt.fault(fr, diag.RuntimeIntegerOverflow, "integer overflow in %s", op)
}

func (rt *Runtime) indexOutOfBounds(fr *Frame, idx, length int) *Fault {
	return rt.fault(fr, diag.RuntimeIndexOutOfBounds, "index %d out of bounds (length %d)", idx, length)
}

func (rt *Runtime) sendOnClosed(fr *Frame) *Fault {
	return rt.fault(fr, diag.RuntimeSendOnClosed, "send on closed channel")
}

func (rt *Runtime) releaseUnderflow(fr *Frame, kind string) *Fault {
	return rt.fault(fr, diag.RuntimeReleaseUnderflow, "release underflow on %s", kind)
}

func (rt *Runtime) stackOverflow(fr *Frame) *Fault {
	return rt.fault(fr, diag.RuntimeStackOverflow, "stack overflow (depth exceeded %d)", maxCallDepth)
}
