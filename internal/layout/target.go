package layout

// Target describes the pointer width of the machine naml is compiling
// for. §3.1 fixes naml's own data shapes in absolute byte counts (the
// 8-byte HeapHeader, u64 lengths); only pointer-sized fields (string/
// array/map backing pointers held by a reference, closure capture
// slots) vary with the target.
type Target struct {
	Triple   string
	PtrSize  int
	PtrAlign int
}

func X86_64LinuxGNU() Target {
	return Target{Triple: "x86_64-linux-gnu", PtrSize: 8, PtrAlign: 8}
}

func Arm64LinuxGNU() Target {
	return Target{Triple: "aarch64-linux-gnu", PtrSize: 8, PtrAlign: 8}
}
