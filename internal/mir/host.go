package mir

// Host function names shared between internal/mir (which names them as
// CalleeHost callees), internal/codegen (which relocates calls to them
// through the process-global function table, §4.5), and internal/runtime
// (which populates that table at startup with the matching C-ABI
// implementation, §6.1). Names follow the naml_* convention the runtime
// section of the spec uses for its symbol table (naml_alloc, naml_retain,
// naml_release, naml_spawn, naml_join, naml_panic, ...).
const (
	HostRetain  = "naml_retain"
	HostRelease = "naml_release"
	HostAlloc   = "naml_alloc"

	HostMutexLock    = "naml_mutex_lock"
	HostMutexRead    = "naml_mutex_read"
	HostMutexWrite   = "naml_mutex_write"
	HostMutexUnlock  = "naml_mutex_unlock"
	HostRwLockRLock  = "naml_rwlock_read_lock"
	HostRwLockRRead  = "naml_rwlock_read"
	HostRwLockRUnlk  = "naml_rwlock_read_unlock"
	HostRwLockWLock  = "naml_rwlock_write_lock"
	HostRwLockWRead  = "naml_rwlock_write"
	HostRwLockWWrite = "naml_rwlock_write_commit"
	HostRwLockWUnlk  = "naml_rwlock_write_unlock"

	HostAtomicLoad  = "naml_atomic_load"
	HostAtomicStore = "naml_atomic_store"
	HostAtomicCAS   = "naml_atomic_cas"

	HostChannelOpen  = "naml_open_channel"
	HostChannelSend  = "naml_channel_send"
	HostChannelRecv  = "naml_channel_recv"
	HostChannelClose = "naml_channel_close"

	HostSchedulerEnqueue = "naml_spawn"
	HostSchedulerWaitAll = "naml_join"

	HostIterHasNext = "naml_iter_has_next"
	HostIterNext    = "naml_iter_next"

	HostThrow = "naml_throw"
	HostPanic = "naml_panic"
)
