package scheduler

// MutexKind selects the upcall ordering a Mutex applies around its
// critical section.
type MutexKind int

const (
	// MutexNormal calls Deschedule before blocking to acquire and
	// Schedule after acquiring; the common case.
	MutexNormal MutexKind = iota
	// MutexSpin inverts that ordering (Schedule before, Deschedule after)
	// to avoid a deadlock window with external schedulers that poll the
	// upcall state while a spin-mutex is briefly held.
	MutexSpin
	// MutexKernel behaves like MutexNormal; kept as a distinct kind for
	// parity with the collaborator's type, not because the Go realization
	// treats it differently.
	MutexKernel
)

// Mutex is a cooperative mutual-exclusion lock built on the scheduler's
// yield primitives. Only one thread holds it at a time; blocked threads
// queue in FIFO order and are woken in that order on Unlock.
type Mutex struct {
	kind     MutexKind
	hasOwner bool
	owner    ThreadId
	waiters  []ThreadId
}

// NewMutex creates an unlocked Mutex of the given kind.
func NewMutex(kind MutexKind) *Mutex {
	return &Mutex{kind: kind}
}

func (m *Mutex) upcall(which func(*SchedulerState) Upcall, reqID *uint64) {
	state := Environment.State
	if state == nil {
		return
	}
	if fn := which(state); fn != nil {
		fn(reqID, m)
	}
}

func scheduleUpcall(s *SchedulerState) Upcall   { return s.Schedule }
func descheduleUpcall(s *SchedulerState) Upcall { return s.Deschedule }

// Lock acquires the mutex, blocking (yielding Unrunnable(self) and waiting
// to be made runnable again) while it is held by another thread. reqID is
// threaded through to the Schedule/Deschedule upcalls unchanged.
func (m *Mutex) Lock(h ThreadHandle, reqID *uint64) {
	if m.kind == MutexSpin {
		m.upcall(scheduleUpcall, reqID)
	} else {
		m.upcall(descheduleUpcall, reqID)
	}

	for m.hasOwner {
		m.waiters = append(m.waiters, h.ID())
		h.Block()
	}
	m.hasOwner = true
	m.owner = h.ID()

	if m.kind == MutexSpin {
		m.upcall(descheduleUpcall, reqID)
	} else {
		m.upcall(scheduleUpcall, reqID)
	}
}

// Unlock releases the mutex, waking the oldest queued waiter (if any) in
// FIFO order.
func (m *Mutex) Unlock(h ThreadHandle, reqID *uint64) {
	if m.kind == MutexSpin {
		m.upcall(scheduleUpcall, reqID)
	} else {
		m.upcall(descheduleUpcall, reqID)
	}

	m.hasOwner = false
	if len(m.waiters) > 0 {
		next := m.waiters[0]
		m.waiters = m.waiters[1:]
		h.MakeRunnable(next)
	}

	if m.kind == MutexSpin {
		m.upcall(descheduleUpcall, reqID)
	} else {
		m.upcall(scheduleUpcall, reqID)
	}
}

// Owner reports the current owner and whether the mutex is held.
func (m *Mutex) Owner() (ThreadId, bool) { return m.owner, m.hasOwner }
