// Package rpc implements the synchronous request/response transport
// between a compute node and a controller node: a framed Header plus
// payload over a reliable byte stream, exactly one Call in flight per
// session.
package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/nrkernel/corekernel/internal/constants"
	"github.com/nrkernel/corekernel/internal/logging"
	"github.com/nrkernel/corekernel/internal/wire"
)

// Observer receives RPC call outcomes; kernel.MetricsObserver satisfies
// this structurally, letting a Client/Server be wired straight to the
// root package's metrics without this package importing it.
type Observer interface {
	ObserveCall(msgType uint8, latencyNs uint64, success bool)
}

type noOpObserver struct{}

func (noOpObserver) ObserveCall(uint8, uint64, bool) {}

// session is the client-visible connection state: the assigned client id
// (zero until Registration completes) and the next request id to send.
type session struct {
	clientID  uint64
	nextReqID uint64
}

// Client is the compute-node side of the transport: one TCP connection to
// a controller node, strictly one in-flight Call at a time.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	sess session
	log  *logging.Logger
	obs  Observer
}

// NewClient creates a disconnected Client. log may be nil, in which case
// logging.Default() is used.
func NewClient(log *logging.Logger) *Client {
	if log == nil {
		log = logging.Default()
	}
	return &Client{log: log, obs: noOpObserver{}}
}

// SetObserver installs a metrics observer; pass nil to disable.
func (c *Client) SetObserver(obs Observer) {
	if obs == nil {
		obs = noOpObserver{}
	}
	c.obs = obs
}

// ClientID returns the session's assigned client id (0 before JoinCluster
// completes).
func (c *Client) ClientID() uint64 { return c.sess.clientID }

// Attach binds an already-established connection and performs the
// Registration handshake, for callers (tests, in-process transports) that
// set up the connection themselves instead of going through JoinCluster's
// dial-and-retry loop.
func (c *Client) Attach(conn net.Conn) error {
	c.conn = conn
	resp, _, err := c.call(wire.Registration, nil)
	if err != nil {
		return err
	}
	c.sess.clientID = resp.ClientID
	c.log.Info("joined cluster", "client_id", c.sess.clientID)
	return nil
}

// JoinCluster dials address, retrying every constants.DialRetryInterval
// until it succeeds or ctx is canceled, then performs the Registration
// handshake. Go's blocking net.Dial already performs and fully completes
// the three-way handshake before returning, the exact semantic equivalent
// of the original's poll-until-sendable-or-receivable loop around a
// software TCP/IP stack — no custom poll loop sits on top of it here.
func (c *Client) JoinCluster(ctx context.Context, address string) error {
	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err == nil {
			c.conn = conn
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-time.After(constants.DialRetryInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	resp, _, err := c.call(wire.Registration, nil)
	if err != nil {
		return err
	}
	c.sess.clientID = resp.ClientID
	c.log.Info("joined cluster", "client_id", c.sess.clientID)
	return nil
}

// Call sends a request of the given type and returns the decoded response
// payload.
func (c *Client) Call(msgType wire.RPCType, payload []byte) ([]byte, error) {
	_, body, err := c.call(msgType, payload)
	return body, err
}

func (c *Client) call(msgType wire.RPCType, payload []byte) (wire.Header, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	reqID := c.sess.nextReqID
	req := wire.Header{
		ClientID: c.sess.clientID,
		ReqID:    reqID,
		MsgType:  msgType,
		MsgLen:   uint64(len(payload)),
	}

	frame := append(req.Encode(), payload...)
	if _, err := c.conn.Write(frame); err != nil {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, connectionFailed("Call", err)
	}

	headerBuf := make([]byte, wire.EncodedSize)
	if _, err := io.ReadFull(c.conn, headerBuf); err != nil {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, connectionFailed("Call", err)
	}
	resp, err := wire.DecodeHeader(headerBuf)
	if err != nil {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, malformedResponse(err)
	}

	respBody := make([]byte, resp.MsgLen)
	if _, err := io.ReadFull(c.conn, respBody); err != nil {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, malformedResponse(err)
	}

	if !resp.MsgType.Valid() {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, malformedResponse(fmt.Errorf("unknown msg_type %d", uint8(resp.MsgType)))
	}
	if resp.ReqID != reqID {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, malformedResponse(fmt.Errorf("req_id mismatch: got %d want %d", resp.ReqID, reqID))
	}
	if msgType != wire.Registration && resp.ClientID != c.sess.clientID {
		c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), false)
		return wire.Header{}, nil, malformedResponse(fmt.Errorf("client_id mismatch: got %d want %d", resp.ClientID, c.sess.clientID))
	}

	c.sess.nextReqID++
	c.obs.ObserveCall(uint8(msgType), uint64(time.Since(start)), true)
	return resp, respBody, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// --- typed file-I/O wrappers -----------------------------------------

func (c *Client) openLike(msgType wire.RPCType, pid uint64, path string, flags, mode uint64) (uint64, error) {
	req := wire.OpenRequest{Pid: pid, Flags: flags, Mode: mode, Path: []byte(path)}
	body, err := c.Call(msgType, req.Encode())
	if err != nil {
		return 0, err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return 0, malformedResponse(err)
	}
	if !status.Ok() {
		return 0, fmt.Errorf("rpc: %s failed: errno %d", msgType, status.Errno)
	}
	return status.Ret, nil
}

// Create opens path with O_CREAT semantics, returning a file descriptor.
func (c *Client) Create(pid uint64, path string, flags, mode uint64) (uint64, error) {
	return c.openLike(wire.Create, pid, path, flags, mode)
}

// Open opens an existing path, returning a file descriptor.
func (c *Client) Open(pid uint64, path string, flags, mode uint64) (uint64, error) {
	return c.openLike(wire.Open, pid, path, flags, mode)
}

// CloseFile closes fd on the controller node.
func (c *Client) CloseFile(pid uint64, fd uint64) error {
	req := wire.CloseRequest{Pid: pid, Fd: fd}
	body, err := c.Call(wire.Close, req.Encode())
	if err != nil {
		return err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return malformedResponse(err)
	}
	if !status.Ok() {
		return fmt.Errorf("rpc: close failed: errno %d", status.Errno)
	}
	return nil
}

// Delete removes path.
func (c *Client) Delete(pid uint64, path string) error {
	req := wire.DeleteRequest{Pid: pid, Path: []byte(path)}
	body, err := c.Call(wire.Delete, req.Encode())
	if err != nil {
		return err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return malformedResponse(err)
	}
	if !status.Ok() {
		return fmt.Errorf("rpc: delete failed: errno %d", status.Errno)
	}
	return nil
}

// MkDir creates a directory marker at path.
func (c *Client) MkDir(pid uint64, path string) error {
	req := wire.DeleteRequest{Pid: pid, Path: []byte(path)}
	body, err := c.Call(wire.MkDir, req.Encode())
	if err != nil {
		return err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return malformedResponse(err)
	}
	if !status.Ok() {
		return fmt.Errorf("rpc: mkdir failed: errno %d", status.Errno)
	}
	return nil
}

// Rename moves oldPath to newPath.
func (c *Client) Rename(pid uint64, oldPath, newPath string) error {
	req := wire.RenameRequest{Pid: pid, OldPath: []byte(oldPath), NewPath: []byte(newPath)}
	body, err := c.Call(wire.FileRename, req.Encode())
	if err != nil {
		return err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return malformedResponse(err)
	}
	if !status.Ok() {
		return fmt.Errorf("rpc: rename failed: errno %d", status.Errno)
	}
	return nil
}

// ReadAt reads length bytes from fd starting at offset.
func (c *Client) ReadAt(pid uint64, fd uint64, offset, length uint64) ([]byte, error) {
	req := wire.ReadRequest{Pid: pid, Fd: fd, Offset: offset, Length: length}
	body, err := c.Call(wire.ReadAt, req.Encode())
	if err != nil {
		return nil, err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return nil, malformedResponse(err)
	}
	if !status.Ok() {
		return nil, fmt.Errorf("rpc: read failed: errno %d", status.Errno)
	}
	return status.Payload, nil
}

// WriteAt writes data to fd starting at offset, returning the number of
// bytes written.
func (c *Client) WriteAt(pid uint64, fd uint64, offset uint64, data []byte) (uint64, error) {
	req := wire.WriteRequest{Pid: pid, Fd: fd, Offset: offset, Data: data}
	body, err := c.Call(wire.WriteAt, req.Encode())
	if err != nil {
		return 0, err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return 0, malformedResponse(err)
	}
	if !status.Ok() {
		return 0, fmt.Errorf("rpc: write failed: errno %d", status.Errno)
	}
	return status.Ret, nil
}

// GetInfo reports the current size of the file backing fd.
func (c *Client) GetInfo(pid uint64, fd uint64) (uint64, error) {
	req := wire.CloseRequest{Pid: pid, Fd: fd}
	body, err := c.Call(wire.GetInfo, req.Encode())
	if err != nil {
		return 0, err
	}
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		return 0, malformedResponse(err)
	}
	if !status.Ok() {
		return 0, fmt.Errorf("rpc: getinfo failed: errno %d", status.Errno)
	}
	return status.Ret, nil
}
