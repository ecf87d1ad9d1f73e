package kernel

import (
	"context"
	"errors"
	"net"

	"github.com/nrkernel/corekernel/internal/fileio"
	"github.com/nrkernel/corekernel/internal/logging"
	"github.com/nrkernel/corekernel/internal/rpc"
	"github.com/nrkernel/corekernel/internal/scheduler"
)

// errPipeListenerClosed is returned by pipeListener.Accept/dial once
// Close has been called.
var errPipeListenerClosed = errors.New("kernel: pipe listener closed")

// pipeListener is an in-memory net.Listener backed by net.Pipe, letting
// tests exercise the real RPC server and client without opening a TCP
// socket — the same "stub ring" role the teacher's NewStubRunner/
// stubLoop play for queue tests run without real hardware.
type pipeListener struct {
	conns  chan net.Conn
	closed chan struct{}
}

func newPipeListener() *pipeListener {
	return &pipeListener{conns: make(chan net.Conn), closed: make(chan struct{})}
}

func (l *pipeListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, errPipeListenerClosed
	}
}

func (l *pipeListener) Close() error {
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

func (l *pipeListener) Addr() net.Addr { return pipeAddr{} }

func (l *pipeListener) dial() (net.Conn, error) {
	client, server := net.Pipe()
	select {
	case l.conns <- server:
		return client, nil
	case <-l.closed:
		return nil, errPipeListenerClosed
	}
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }

// TestNodePair is a controller node and compute node connected over an
// in-memory pipe, for deterministic tests that exercise real RPC framing
// and dispatch without a TCP socket.
type TestNodePair struct {
	Controller *ControllerNode
	Compute    *ComputeNode
}

// NewTestNodePair boots a ControllerNode backed by a fresh in-memory
// fileio.Backend and a ComputeNode attached to it over a net.Pipe,
// running the controller's accept loop on a background goroutine. Callers
// should call Close when done.
func NewTestNodePair(ctx context.Context) (*TestNodePair, error) {
	m := NewMetrics()
	log := logging.Default()

	backend := fileio.NewMemoryBackend()
	handler := fileio.NewHandler(backend)
	srv := rpc.NewServer(handler, ControllerPort, log)
	srv.SetObserver(NewMetricsObserver(m))

	listener := newPipeListener()
	srv.InitWithListener(listener)
	go func() { _ = srv.RunServer() }()

	client := rpc.NewClient(log)
	client.SetObserver(NewMetricsObserver(m))

	conn, err := listener.dial()
	if err != nil {
		return nil, WrapError("NewTestNodePair", CodeConnectionFailed, err)
	}
	if err := client.Attach(conn); err != nil {
		return nil, err
	}

	sched := scheduler.New(scheduler.NewSchedulerState())
	sched.SetObserver(NewMetricsObserver(m))

	controller := &ControllerNode{server: srv, backend: backend, metrics: m, log: log}
	compute := &ComputeNode{Scheduler: sched, Client: client, metrics: m, log: log}

	return &TestNodePair{Controller: controller, Compute: compute}, nil
}

// Close tears down both the controller's listener and the client
// connection.
func (p *TestNodePair) Close() error {
	err1 := p.Compute.Shutdown()
	err2 := p.Controller.Shutdown()
	if err1 != nil {
		return err1
	}
	return err2
}
