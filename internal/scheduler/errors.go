package scheduler

import "errors"

// ErrTooManyThreads is returned by Spawn/SpawnWithStack when the scheduler's
// thread table already holds constants.MaxThreads entries.
var ErrTooManyThreads = errors.New("scheduler: too many threads")

// ErrContractViolation marks fatal misuse of the scheduler's yield contract
// (marking an unknown thread runnable, double-unrunnable, calling
// CondVar.TimedWait). The dispatch loop panics with this error; callers are
// not expected to recover from it.
var ErrContractViolation = errors.New("scheduler: contract violation")
