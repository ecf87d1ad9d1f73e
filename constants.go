package kernel

import "github.com/nrkernel/corekernel/internal/constants"

// Re-exported constants for the public API.
const (
	MaxThreads       = constants.MaxThreads
	IRQThreadID      = constants.IRQThreadID
	DefaultStackSize = constants.DefaultStackSize
	ControllerPort   = constants.ControllerPort
	HeaderSize       = constants.HeaderSize
)
