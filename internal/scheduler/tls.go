package scheduler

import "sync"

// Environment is the process-wide thread-local-storage accessor: the
// dispatcher writes the currently-dispatched thread's TLS pointer here
// before resuming it, and reads it back (threads may relocate it) when the
// thread yields. Safe without synchronization because at most one
// goroutine is ever "live" between a resume and the next yield (see the
// package doc comment in types.go).
var Environment struct {
	TLS   any
	State *SchedulerState
}

// SchedulerState holds the fields mutated from outside the dispatch loop:
// IRQ context setting a pending-interrupt latch, or any context marking a
// thread runnable without holding the scheduler's exclusive attention. The
// dispatcher drains both at the top of every tick with acquire-release
// ordering so the wake is visible before dispatch.
type SchedulerState struct {
	irqMu      sync.Mutex
	irqPending bool

	runnableMu sync.Mutex
	runnable   map[ThreadId]struct{}

	// Schedule and Deschedule are the upcalls a Mutex invokes around the
	// exit/enter of its critical section. Both may be nil.
	Schedule   Upcall
	Deschedule Upcall
}

// NewSchedulerState creates an empty SchedulerState.
func NewSchedulerState() *SchedulerState {
	return &SchedulerState{runnable: make(map[ThreadId]struct{})}
}

// SetIRQPending latches the IRQ-pending flag from interrupt context.
func (s *SchedulerState) SetIRQPending() {
	s.irqMu.Lock()
	s.irqPending = true
	s.irqMu.Unlock()
}

// takeIRQPending atomically reads and clears the IRQ-pending flag.
func (s *SchedulerState) takeIRQPending() bool {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	pending := s.irqPending
	s.irqPending = false
	return pending
}

// MarkRunnable queues tid to be made runnable at the next dispatch tick,
// for use from contexts that do not hold the scheduler's exclusive
// attention (IRQ handlers, other goroutines).
func (s *SchedulerState) MarkRunnable(tid ThreadId) {
	s.runnableMu.Lock()
	s.runnable[tid] = struct{}{}
	s.runnableMu.Unlock()
}

// drainRunnable empties and returns the queued runnable set.
func (s *SchedulerState) drainRunnable() []ThreadId {
	s.runnableMu.Lock()
	defer s.runnableMu.Unlock()
	if len(s.runnable) == 0 {
		return nil
	}
	ids := make([]ThreadId, 0, len(s.runnable))
	for id := range s.runnable {
		ids = append(ids, id)
	}
	s.runnable = make(map[ThreadId]struct{})
	return ids
}
