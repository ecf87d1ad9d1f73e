// Package scheduler implements a single-threaded cooperative user-level
// thread runtime. Because Go exposes no public API for switching a
// goroutine's stack at an arbitrary call depth, each Thread is realized as
// its own goroutine that rendezvous with the dispatcher over a pair of
// unbuffered channels: the goroutine blocks on its resume channel until the
// dispatcher hands it a ResumeValue, and the dispatcher blocks on that
// thread's yield channel until the goroutine hands back a yieldRequest. The
// dispatcher never sends a second resume before it has received the prior
// yield, so at most one thread's user code ever runs at a time — the exact
// single-threaded semantics a stackful coroutine would give, without any
// unsafe stack-pointer manipulation. See scheduler.go for the dispatch loop.
package scheduler

import "time"

// ThreadId identifies a thread within one Scheduler. Ids are assigned
// monotonically at Spawn and never reused within a scheduler's lifetime.
type ThreadId uint64

// Stack is a caller-supplied backing region for SpawnWithStack. In this
// realization no stack pointer is ever switched to and the scheduler does
// not read the region; it stands in for the original's raw stack
// allocator collaborator.
type Stack struct {
	Base []byte
	Size int
}

// NewStack allocates a Stack of the given size.
func NewStack(size int) Stack {
	return Stack{Base: make([]byte, size), Size: size}
}

type yieldKind int

const (
	yieldNone yieldKind = iota
	yieldRunnable
	yieldUnrunnable
	yieldRunnableList
	yieldTimeout
	yieldSpawn
	yieldSpawnWithStack
	yieldTerminated
)

// yieldRequest is what a thread's goroutine sends back to the dispatcher
// each time it suspends, describing why and with what effect.
type yieldRequest struct {
	kind      yieldKind
	target    ThreadId
	targets   []ThreadId
	until     time.Time
	stackSize int
	stack     *Stack
	body      func(ThreadHandle, any)
	arg       any
}

type resumeKind int

const (
	resumeCompleted resumeKind = iota
	resumeSpawned
	resumeError
)

// ResumeValue is what the dispatcher hands a thread's goroutine when it
// resumes it: either a plain wakeup, the id of a thread just spawned on its
// behalf, or an error (e.g. ErrTooManyThreads) reported back from a failed
// Spawn request.
type ResumeValue struct {
	kind      resumeKind
	spawnedID ThreadId
	err       error
}

// Completed returns.
func (r ResumeValue) Completed() bool { return r.kind == resumeCompleted }

// Spawned reports whether this resume carries a freshly spawned thread id,
// and returns it.
func (r ResumeValue) Spawned() (ThreadId, bool) {
	return r.spawnedID, r.kind == resumeSpawned
}

// Err returns the error carried by this resume, if any.
func (r ResumeValue) Err() error { return r.err }

// Upcall is the shape of the Schedule/Deschedule callbacks a Mutex invokes
// around entering/exiting its critical section, letting a higher-level
// runtime track blocking without the scheduler itself knowing about it.
type Upcall func(reqID *uint64, mtx *Mutex)

// ThreadHandle is the in-thread interface a spawned body uses to yield
// control back to the dispatcher. Every method blocks the calling
// goroutine until the dispatcher resumes it again.
type ThreadHandle interface {
	// ID returns the handle's own thread id.
	ID() ThreadId

	// Relinquish yields with no request; the dispatcher rotates this
	// thread to the tail of the ready sequence (round-robin fairness).
	Relinquish()

	// Block yields Unrunnable(self); the thread is removed from the ready
	// sequence until some other thread calls MakeRunnable(self's id).
	Block()

	// MakeRunnable marks tid runnable without yielding control.
	MakeRunnable(tid ThreadId)

	// MakeRunnableList marks every id in tids runnable in one batch.
	MakeRunnableList(tids []ThreadId)

	// Sleep yields Timeout(now+d); the thread re-enters ready once the
	// deadline has passed.
	Sleep(d time.Duration)

	// Spawn creates a new thread with a scheduler-owned stack.
	Spawn(stackSize int, body func(ThreadHandle, any), arg any) (ThreadId, error)

	// SpawnWithStack creates a new thread backed by a caller-supplied Stack.
	SpawnWithStack(stack Stack, body func(ThreadHandle, any), arg any) (ThreadId, error)

	// TLS returns this thread's thread-local-storage slot contents.
	TLS() any

	// SetTLS relocates this thread's thread-local-storage slot contents.
	SetTLS(v any)
}
