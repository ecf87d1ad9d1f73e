// Package constants holds shared sizing and protocol constants for the
// scheduler and RPC subsystems.
package constants

import "time"

// Scheduler constants.
const (
	// MaxThreads is the maximum number of live threads a Scheduler may hold.
	MaxThreads = 64

	// IRQThreadID is the conventional thread id reserved for the IRQ handler
	// thread; the dispatch loop pushes it to the front of the ready queue
	// whenever SchedulerState.IRQPending is latched.
	IRQThreadID = 1

	// DefaultStackSize is the default backing-stack size handed to Spawn
	// when the caller does not provide one explicitly.
	DefaultStackSize = 64 * 4096
)

// RPC/transport constants.
const (
	// ControllerPort is the fixed TCP port the controller-node RPC server
	// listens on.
	ControllerPort = 6970

	// HeaderSize is the fixed wire size, in bytes, of an encoded Header:
	// client_id(8) + req_id(8) + msg_type(1) + msg_len(8). The per-call
	// pid travels inside each typed file-I/O request body instead of the
	// frame header, matching the wire original this core is grounded on.
	HeaderSize = 8 + 8 + 1 + 8
)

// DialRetryInterval is how long JoinCluster waits between connection
// attempts while the controller node is not yet reachable.
const DialRetryInterval = 20 * time.Millisecond
