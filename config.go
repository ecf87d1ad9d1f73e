package kernel

import "fmt"

// ControllerNodeConfig configures BootControllerNode, mirroring the
// teacher's DeviceParams option struct.
type ControllerNodeConfig struct {
	// ListenAddress is the TCP address the controller node's RPC server
	// binds to. Empty uses ":<ControllerPort>".
	ListenAddress string
	// Logger is used for all controller-node logging; nil uses
	// logging.Default().
	Logger *Logger
	// Metrics receives RPC call and dispatch counters; nil creates a
	// fresh *Metrics.
	Metrics *Metrics
}

// DefaultControllerNodeConfig returns a ControllerNodeConfig listening on
// the fixed controller port on all interfaces.
func DefaultControllerNodeConfig() *ControllerNodeConfig {
	return &ControllerNodeConfig{
		ListenAddress: fmt.Sprintf(":%d", ControllerPort),
	}
}

// ComputeNodeConfig configures BootComputeNode.
type ComputeNodeConfig struct {
	// ControllerAddress is the controller node's RPC listen address.
	ControllerAddress string
	// Logger is used for all compute-node logging; nil uses
	// logging.Default().
	Logger *Logger
	// Metrics receives RPC call and scheduler counters; nil creates a
	// fresh *Metrics.
	Metrics *Metrics
}

// DefaultComputeNodeConfig returns a ComputeNodeConfig that joins the
// given controller address.
func DefaultComputeNodeConfig(controllerAddress string) *ComputeNodeConfig {
	return &ComputeNodeConfig{ControllerAddress: controllerAddress}
}
