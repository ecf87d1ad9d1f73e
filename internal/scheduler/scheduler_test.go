package scheduler

import (
	"reflect"
	"testing"

	"github.com/nrkernel/corekernel/internal/constants"
)

func TestPingPongOrdering(t *testing.T) {
	var log []string

	sched := New(nil)
	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		h.Relinquish()
		log = append(log, "A")
	}, nil); err != nil {
		t.Fatalf("Spawn(A) failed: %v", err)
	}

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		log = append(log, "B")
	}, nil); err != nil {
		t.Fatalf("Spawn(B) failed: %v", err)
	}

	sched.Run()

	want := []string{"B", "A"}
	if !reflect.DeepEqual(log, want) {
		t.Errorf("dispatch order = %v, want %v", log, want)
	}
}

func TestMutexFIFOFairness(t *testing.T) {
	mtx := NewMutex(MutexNormal)
	var reqID uint64
	var order []string

	sched := New(nil)
	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		mtx.Lock(h, &reqID)
		h.Relinquish() // let A and B enqueue behind the held mutex
		h.Relinquish()
		mtx.Unlock(h, &reqID)
	}, nil); err != nil {
		t.Fatalf("Spawn(holder) failed: %v", err)
	}

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		mtx.Lock(h, &reqID)
		order = append(order, "A")
		mtx.Unlock(h, &reqID)
	}, nil); err != nil {
		t.Fatalf("Spawn(A) failed: %v", err)
	}

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		mtx.Lock(h, &reqID)
		order = append(order, "B")
		mtx.Unlock(h, &reqID)
	}, nil); err != nil {
		t.Fatalf("Spawn(B) failed: %v", err)
	}

	sched.Run()

	want := []string{"A", "B"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("acquire order = %v, want %v", order, want)
	}
}

func TestCondVarSignalConsumer(t *testing.T) {
	mtx := NewMutex(MutexNormal)
	cv := NewCondVar()
	var reqID uint64
	count := 0
	completed := 0

	sched := New(nil)
	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		for i := 0; i < 12; i++ {
			mtx.Lock(h, &reqID)
			count++
			cv.Signal(h)
			mtx.Unlock(h, &reqID)
			h.Relinquish()
		}
	}, nil); err != nil {
		t.Fatalf("Spawn(producer) failed: %v", err)
	}

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		for i := 0; i < 5; i++ {
			mtx.Lock(h, &reqID)
			for count == 0 {
				cv.Wait(h, mtx, &reqID)
			}
			count--
			mtx.Unlock(h, &reqID)
			completed++
			h.Relinquish()
		}
	}, nil); err != nil {
		t.Fatalf("Spawn(consumer) failed: %v", err)
	}

	sched.Run()

	if completed != 5 {
		t.Errorf("completed = %d, want 5", completed)
	}
	if cv.HasWaiters() {
		t.Error("expected no waiters left on the condvar after Run")
	}
}

func TestSpawnTooManyThreads(t *testing.T) {
	sched := New(nil)
	body := func(h ThreadHandle, _ any) {}

	for i := 0; i < constants.MaxThreads; i++ {
		if _, err := sched.Spawn(0, body, nil); err != nil {
			t.Fatalf("Spawn #%d failed: %v", i, err)
		}
	}

	if _, err := sched.Spawn(0, body, nil); err != ErrTooManyThreads {
		t.Errorf("Spawn past MaxThreads: got err=%v, want ErrTooManyThreads", err)
	}
}

func TestSpawnFromThreadBody(t *testing.T) {
	var childRan bool

	sched := New(nil)
	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		if _, err := h.Spawn(0, func(h ThreadHandle, _ any) {
			childRan = true
		}, nil); err != nil {
			t.Errorf("nested Spawn failed: %v", err)
		}
	}, nil); err != nil {
		t.Fatalf("Spawn(parent) failed: %v", err)
	}

	sched.Run()

	if !childRan {
		t.Error("expected child thread spawned from a thread body to run")
	}
}

func TestIRQThreadDispatchedFirst(t *testing.T) {
	var order []string

	sched := New(nil)
	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		order = append(order, "irq")
	}, nil); err != nil {
		t.Fatalf("Spawn(irq) failed: %v", err)
	}
	if constants.IRQThreadID != 1 {
		t.Fatalf("IRQThreadID = %d, want 1", constants.IRQThreadID)
	}

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		order = append(order, "other")
	}, nil); err != nil {
		t.Fatalf("Spawn(other) failed: %v", err)
	}

	sched.State().SetIRQPending()
	sched.Run()

	want := []string{"irq", "other"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("dispatch order = %v, want %v", order, want)
	}
}

func TestPinToCPURunsDispatchLoop(t *testing.T) {
	var ran bool

	sched := New(nil)
	sched.PinToCPU(0)

	if _, err := sched.Spawn(0, func(h ThreadHandle, _ any) {
		ran = true
	}, nil); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}

	sched.Run()

	if !ran {
		t.Error("expected thread to run when scheduler is pinned to a CPU")
	}
}
