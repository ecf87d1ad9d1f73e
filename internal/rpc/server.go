package rpc

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/nrkernel/corekernel/internal/fileio"
	"github.com/nrkernel/corekernel/internal/logging"
	"github.com/nrkernel/corekernel/internal/wire"
)

// Server is the controller-node side of the transport: it listens on a
// fixed TCP port and serves each accepted connection (session) on its own
// goroutine — the one place this port is more concurrent than the
// original, which served one client kernel at a time. Within a session,
// requests remain strictly sequential.
type Server struct {
	listener   net.Listener
	handler    *fileio.Handler
	log        *logging.Logger
	obs        Observer
	assignedID uint64
}

// NewServer creates a Server bound to handler. log may be nil.
// assignedClientID is the id every session is told it has been assigned
// once Registration completes (the spec fixes this to the listening
// port).
func NewServer(handler *fileio.Handler, assignedClientID uint64, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	return &Server{handler: handler, assignedID: assignedClientID, log: log, obs: noOpObserver{}}
}

// SetObserver installs a metrics observer; pass nil to disable.
func (s *Server) SetObserver(obs Observer) {
	if obs == nil {
		obs = noOpObserver{}
	}
	s.obs = obs
}

// Init binds the listening socket. net.Listen already blocks the caller
// until the socket is bound and ready.
func (s *Server) Init(address string) error {
	l, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("rpc: listen %s: %w", address, err)
	}
	s.listener = l
	return nil
}

// InitWithListener binds the Server to an already-constructed listener,
// for callers (tests, in-process transports) that want an in-memory
// stand-in instead of a real TCP socket.
func (s *Server) InitWithListener(l net.Listener) {
	s.listener = l
}

// Addr returns the bound listening address (useful for tests that bind to
// port 0).
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// RunServer accepts connections forever, handling each on its own
// goroutine. Listener.Accept already blocks until a client completes its
// TCP handshake — the Go equivalent of the original's
// poll-until-a-client-is-connected loop.
func (s *Server) RunServer() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.serveSession(conn)
	}
}

// Close closes the listening socket, causing RunServer to return.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *Server) serveSession(conn net.Conn) {
	defer conn.Close()
	log := s.log
	for {
		if err := s.handleOneRPC(conn, &log); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Error("session ended", "error", err.Error())
			}
			return
		}
	}
}

func (s *Server) handleOneRPC(conn net.Conn, log **logging.Logger) error {
	headerBuf := make([]byte, wire.EncodedSize)
	if _, err := io.ReadFull(conn, headerBuf); err != nil {
		return err
	}
	req, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		return s.writeFrame(conn, wire.Header{MsgType: wire.Unknown}, nil)
	}

	payload := make([]byte, req.MsgLen)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return err
	}

	if req.MsgType == wire.Registration {
		return s.handleRegistration(conn, req, log)
	}
	if !req.MsgType.Valid() {
		return s.writeFrame(conn, wire.Header{MsgType: wire.Unknown}, nil)
	}

	start := req.MsgType
	respHeader, body := s.handler.Handle(req, payload)
	status, decodeErr := wire.DecodeStatusResponse(body)
	success := decodeErr == nil && status.Ok()
	s.obs.ObserveCall(uint8(start), 0, success)
	*log = (*log).WithRequest(req.ReqID, req.MsgType.String())
	return s.writeFrame(conn, respHeader, body)
}

func (s *Server) handleRegistration(conn net.Conn, req wire.Header, log **logging.Logger) error {
	if req.ClientID != 0 || req.ReqID != 0 || req.MsgLen != 0 {
		return s.writeFrame(conn, wire.Header{MsgType: wire.Unknown}, nil)
	}
	*log = (*log).WithSession(s.assignedID)
	resp := wire.Header{ClientID: s.assignedID, MsgType: wire.Registration}
	return s.writeFrame(conn, resp, nil)
}

func (s *Server) writeFrame(conn net.Conn, h wire.Header, body []byte) error {
	h.MsgLen = uint64(len(body))
	frame := append(h.Encode(), body...)
	_, err := conn.Write(frame)
	return err
}
