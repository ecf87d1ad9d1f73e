package kernel

import (
	"context"
	"net"

	"github.com/nrkernel/corekernel/internal/fileio"
	"github.com/nrkernel/corekernel/internal/logging"
	"github.com/nrkernel/corekernel/internal/rpc"
	"github.com/nrkernel/corekernel/internal/scheduler"
)

// Logger re-exports internal/logging's Logger so callers configuring a
// ControllerNodeConfig/ComputeNodeConfig never need to import the
// internal package directly.
type Logger = logging.Logger

// NewLogger re-exports logging.NewLogger.
func NewLogger(config *logging.Config) *Logger { return logging.NewLogger(config) }

// ControllerNode is a booted controller-node runtime: an RPC server
// fronting a file-I/O backend.
type ControllerNode struct {
	server  *rpc.Server
	backend fileio.Backend
	metrics *Metrics
	log     *Logger
}

// BootControllerNode creates the file-I/O backend, wires it to an RPC
// server, and binds the listening socket. The caller must still call
// Serve to run the accept loop.
func BootControllerNode(cfg *ControllerNodeConfig) (*ControllerNode, error) {
	if cfg == nil {
		cfg = DefaultControllerNodeConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = NewMetrics()
	}

	backend := fileio.NewMemoryBackend()
	handler := fileio.NewHandler(backend)
	srv := rpc.NewServer(handler, ControllerPort, log)
	srv.SetObserver(NewMetricsObserver(m))

	listenAddr := cfg.ListenAddress
	if listenAddr == "" {
		listenAddr = DefaultControllerNodeConfig().ListenAddress
	}
	if err := srv.Init(listenAddr); err != nil {
		return nil, WrapError("BootControllerNode", CodeConnectionFailed, err)
	}

	return &ControllerNode{server: srv, backend: backend, metrics: m, log: log}, nil
}

// Serve runs the accept loop; it blocks until the listener is closed.
func (n *ControllerNode) Serve() error {
	return n.server.RunServer()
}

// Addr returns the bound listening address.
func (n *ControllerNode) Addr() net.Addr { return n.server.Addr() }

// Metrics returns the node's metrics instance.
func (n *ControllerNode) Metrics() *Metrics { return n.metrics }

// Shutdown closes the listening socket, causing Serve to return.
func (n *ControllerNode) Shutdown() error { return n.server.Close() }

// ComputeNode is a booted compute-node runtime: a cooperative scheduler
// paired with an RPC client joined to a controller node.
type ComputeNode struct {
	Scheduler *scheduler.Scheduler
	Client    *rpc.Client
	metrics   *Metrics
	log       *Logger
}

// BootComputeNode joins the controller node named by cfg.ControllerAddress
// and constructs a fresh Scheduler wired to the same metrics instance.
func BootComputeNode(ctx context.Context, cfg *ComputeNodeConfig) (*ComputeNode, error) {
	if cfg == nil {
		return nil, NewError("BootComputeNode", CodeConnectionFailed, "nil config")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Default()
	}
	m := cfg.Metrics
	if m == nil {
		m = NewMetrics()
	}

	client := rpc.NewClient(log)
	client.SetObserver(NewMetricsObserver(m))
	if err := client.JoinCluster(ctx, cfg.ControllerAddress); err != nil {
		return nil, WrapError("BootComputeNode", CodeConnectionFailed, err)
	}

	sched := scheduler.New(scheduler.NewSchedulerState())
	sched.SetObserver(NewMetricsObserver(m))

	return &ComputeNode{Scheduler: sched, Client: client, metrics: m, log: log}, nil
}

// Metrics returns the node's metrics instance.
func (n *ComputeNode) Metrics() *Metrics { return n.metrics }

// Shutdown closes the RPC connection to the controller node.
func (n *ComputeNode) Shutdown() error { return n.Client.Close() }
