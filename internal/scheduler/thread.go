package scheduler

import "time"

// Thread is the scheduler's record for one spawned user thread: its
// identity, the goroutine standing in for its owned execution stack, its
// saved TLS contents, and the resume value to deliver the next time it is
// dispatched. It is mutated only by the dispatch loop, and only while the
// thread is not currently dispatched.
type Thread struct {
	ID ThreadId

	resumeCh chan ResumeValue
	yieldCh  chan yieldRequest

	tls         any
	nextResume  ResumeValue
	sawFirstRun bool
}

// newThread starts the thread's goroutine (blocked on its resume channel
// until the dispatcher sends its first ResumeValue) and returns its record.
func newThread(id ThreadId, body func(ThreadHandle, any), arg any) *Thread {
	t := &Thread{
		ID:       id,
		resumeCh: make(chan ResumeValue),
		yieldCh:  make(chan yieldRequest),
	}
	h := &threadHandle{thread: t}
	go func() {
		<-t.resumeCh
		body(h, arg)
		t.yieldCh <- yieldRequest{kind: yieldTerminated}
	}()
	return t
}

// threadHandle implements ThreadHandle for exactly one Thread.
type threadHandle struct {
	thread *Thread
}

func (h *threadHandle) ID() ThreadId { return h.thread.ID }

func (h *threadHandle) yieldAndWait(req yieldRequest) ResumeValue {
	h.thread.yieldCh <- req
	return <-h.thread.resumeCh
}

func (h *threadHandle) Relinquish() {
	h.yieldAndWait(yieldRequest{kind: yieldNone})
}

func (h *threadHandle) Block() {
	h.yieldAndWait(yieldRequest{kind: yieldUnrunnable, target: h.thread.ID})
}

func (h *threadHandle) MakeRunnable(tid ThreadId) {
	h.yieldAndWait(yieldRequest{kind: yieldRunnable, target: tid})
}

func (h *threadHandle) MakeRunnableList(tids []ThreadId) {
	h.yieldAndWait(yieldRequest{kind: yieldRunnableList, targets: tids})
}

func (h *threadHandle) Sleep(d time.Duration) {
	h.yieldAndWait(yieldRequest{kind: yieldTimeout, until: time.Now().Add(d)})
}

func (h *threadHandle) Spawn(stackSize int, body func(ThreadHandle, any), arg any) (ThreadId, error) {
	rv := h.yieldAndWait(yieldRequest{kind: yieldSpawn, stackSize: stackSize, body: body, arg: arg})
	if err := rv.Err(); err != nil {
		return 0, err
	}
	id, _ := rv.Spawned()
	return id, nil
}

func (h *threadHandle) SpawnWithStack(stack Stack, body func(ThreadHandle, any), arg any) (ThreadId, error) {
	rv := h.yieldAndWait(yieldRequest{kind: yieldSpawnWithStack, stack: &stack, body: body, arg: arg})
	if err := rv.Err(); err != nil {
		return 0, err
	}
	id, _ := rv.Spawned()
	return id, nil
}

func (h *threadHandle) TLS() any { return Environment.TLS }

func (h *threadHandle) SetTLS(v any) { Environment.TLS = v }
