package scheduler

import (
	"runtime"
	"time"

	"github.com/nrkernel/corekernel/internal/constants"
	"golang.org/x/sys/unix"
)

// Observer receives scheduler activity notifications; kernel.MetricsObserver
// satisfies this interface structurally (it implements a superset of these
// methods), so a Scheduler can be wired directly to the root package's
// metrics without this package importing it.
type Observer interface {
	ObserveSpawn()
	ObserveThreadCompleted()
	ObserveDispatchTick()
}

type noOpObserver struct{}

func (noOpObserver) ObserveSpawn()           {}
func (noOpObserver) ObserveThreadCompleted() {}
func (noOpObserver) ObserveDispatchTick()    {}

// Scheduler multiplexes N user threads onto a single logical OS thread
// using the stackful-coroutine realization described in the package doc
// comment. It owns exactly one Thread per live ThreadId, a ready sequence
// processed round-robin, and a waiting set keyed by wake deadline.
type Scheduler struct {
	threads map[ThreadId]*Thread
	ready   []ThreadId
	waiting map[ThreadId]time.Time
	nextID  ThreadId
	state   *SchedulerState
	obs     Observer
	cpu     int // -1 means unpinned
}

// New creates a Scheduler. state may be nil, in which case a fresh
// SchedulerState is created; pass a shared one if IRQ context outside the
// scheduler needs to latch wakeups into it.
func New(state *SchedulerState) *Scheduler {
	if state == nil {
		state = NewSchedulerState()
	}
	return &Scheduler{
		threads: make(map[ThreadId]*Thread),
		waiting: make(map[ThreadId]time.Time),
		state:   state,
		obs:     noOpObserver{},
		cpu:     -1,
	}
}

// SetObserver installs a metrics observer; pass nil to disable.
func (s *Scheduler) SetObserver(obs Observer) {
	if obs == nil {
		obs = noOpObserver{}
	}
	s.obs = obs
}

// PinToCPU requests that Run lock its goroutine to the calling OS thread and
// set that thread's CPU affinity before entering the dispatch loop. A
// cooperative scheduler that migrated across CPUs mid-run would invalidate
// any per-CPU state a thread body stashes in its TLS slot between yields.
func (s *Scheduler) PinToCPU(cpu int) {
	s.cpu = cpu
}

// State returns the scheduler's shared cross-context wakeup state, for
// handing to IRQ-context callers that need to latch IRQPending or call
// MarkRunnable from outside the dispatch loop.
func (s *Scheduler) State() *SchedulerState { return s.state }

// Spawn allocates a goroutine standing in for a stack, registers a new
// thread running body(handle, arg), and marks it runnable. Intended for use
// before Run is ticking (bootstrapping the initial thread set); a thread
// that wants to spawn another from inside its own body must use
// ThreadHandle.Spawn instead, which routes through the dispatch loop.
func (s *Scheduler) Spawn(stackSize int, body func(ThreadHandle, any), arg any) (ThreadId, error) {
	return s.spawn(body, arg)
}

// SpawnWithStack is identical to Spawn but the caller supplies the backing
// Stack; the Stack is accepted but not used, since no stack pointer is
// switched to in this realization.
func (s *Scheduler) SpawnWithStack(stack Stack, body func(ThreadHandle, any), arg any) (ThreadId, error) {
	return s.spawn(body, arg)
}

func (s *Scheduler) spawn(body func(ThreadHandle, any), arg any) (ThreadId, error) {
	if len(s.threads) >= constants.MaxThreads {
		return 0, ErrTooManyThreads
	}
	s.nextID++
	id := s.nextID
	th := newThread(id, body, arg)
	s.threads[id] = th
	s.ready = append(s.ready, id)
	s.obs.ObserveSpawn()
	return id, nil
}

// Run executes the dispatch loop until the ready sequence is empty and no
// waiting thread becomes runnable within the current instant.
func (s *Scheduler) Run() {
	if s.cpu >= 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		var mask unix.CPUSet
		mask.Set(s.cpu)
		_ = unix.SchedSetaffinity(0, &mask)
	}

	Environment.State = s.state
	defer func() {
		Environment.State = nil
		Environment.TLS = nil
	}()

	for {
		s.obs.ObserveDispatchTick()

		if s.state.takeIRQPending() {
			s.pushFront(ThreadId(constants.IRQThreadID))
		}
		for _, tid := range s.state.drainRunnable() {
			s.markRunnableIfKnown(tid)
		}

		now := time.Now()
		for tid, deadline := range s.waiting {
			if !deadline.After(now) {
				delete(s.waiting, tid)
				s.pushReadyIfAbsent(tid)
			}
		}

		if len(s.ready) == 0 {
			return
		}

		// The ready sequence is always dispatched from its head; rotation
		// (move-to-tail on a plain yield) is what provides round-robin
		// progress, so no separate cursor needs to advance.
		tid := s.ready[0]
		th, ok := s.threads[tid]
		if !ok {
			panic(ErrContractViolation)
		}

		Environment.TLS = th.tls
		resume := th.nextResume
		th.nextResume = ResumeValue{}
		th.resumeCh <- resume
		req := <-th.yieldCh
		th.tls = Environment.TLS
		Environment.TLS = nil

		switch req.kind {
		case yieldNone:
			s.rotate(tid)
		case yieldRunnable:
			s.markRunnableIfKnown(req.target)
		case yieldUnrunnable:
			inReady := false
			for _, id := range s.ready {
				if id == req.target {
					inReady = true
					break
				}
			}
			if !inReady {
				panic(ErrContractViolation)
			}
			s.removeFromReady(req.target)
		case yieldRunnableList:
			for _, id := range req.targets {
				s.markRunnableIfKnown(id)
			}
		case yieldTimeout:
			s.removeFromReady(tid)
			s.waiting[tid] = req.until
		case yieldSpawn:
			s.handleSpawnYield(th, req.body, req.arg)
			s.rotate(tid)
		case yieldSpawnWithStack:
			s.handleSpawnYield(th, req.body, req.arg)
			s.rotate(tid)
		case yieldTerminated:
			s.removeFromReady(tid)
			delete(s.threads, tid)
			s.obs.ObserveThreadCompleted()
		default:
			panic(ErrContractViolation)
		}
	}
}

func (s *Scheduler) handleSpawnYield(th *Thread, body func(ThreadHandle, any), arg any) {
	newID, err := s.spawn(body, arg)
	if err != nil {
		th.nextResume = ResumeValue{kind: resumeError, err: err}
		return
	}
	th.nextResume = ResumeValue{kind: resumeSpawned, spawnedID: newID}
}

func (s *Scheduler) rotate(tid ThreadId) {
	for i, id := range s.ready {
		if id == tid {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			s.ready = append(s.ready, tid)
			return
		}
	}
}

func (s *Scheduler) removeFromReady(tid ThreadId) {
	for i, id := range s.ready {
		if id == tid {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) pushReadyIfAbsent(tid ThreadId) {
	for _, id := range s.ready {
		if id == tid {
			return
		}
	}
	s.ready = append(s.ready, tid)
}

func (s *Scheduler) pushFront(tid ThreadId) {
	if _, ok := s.threads[tid]; !ok {
		return
	}
	s.removeFromReady(tid)
	s.ready = append([]ThreadId{tid}, s.ready...)
}

func (s *Scheduler) markRunnableIfKnown(tid ThreadId) {
	if _, ok := s.threads[tid]; !ok {
		panic(ErrContractViolation)
	}
	delete(s.waiting, tid)
	s.pushReadyIfAbsent(tid)
}
