package fileio

import (
	"github.com/nrkernel/corekernel/internal/wire"
)

// Handler dispatches decoded file-I/O frames to a Backend and produces the
// response frame (Header + body) the server writes back. It is the
// server-side counterpart to the Client's typed wrappers in internal/rpc.
type Handler struct {
	Backend Backend
}

// NewHandler creates a Handler bound to backend.
func NewHandler(backend Backend) *Handler {
	return &Handler{Backend: backend}
}

// Handle consumes a decoded request Header plus its payload and returns the
// response Header and body to write back. req.MsgType is assumed to be a
// valid file-I/O opcode (Registration is handled by the server directly,
// never reaching Handle).
func (h *Handler) Handle(req wire.Header, payload []byte) (wire.Header, []byte) {
	status := h.dispatch(req.MsgType, payload)
	body := status.Encode()
	resp := wire.Header{
		ClientID: req.ClientID,
		ReqID:    req.ReqID,
		MsgType:  req.MsgType,
		MsgLen:   uint64(len(body)),
	}
	return resp, body
}

func (h *Handler) dispatch(msgType wire.RPCType, payload []byte) wire.StatusResponse {
	switch msgType {
	case wire.Create:
		return h.handleOpen(payload, h.Backend.Create)
	case wire.Open:
		return h.handleOpen(payload, h.Backend.Open)
	case wire.Close:
		return h.handleClose(payload)
	case wire.Delete:
		return h.handleDelete(payload)
	case wire.FileRename:
		return h.handleRename(payload)
	case wire.MkDir:
		return h.handleMkDir(payload)
	case wire.Read, wire.ReadAt:
		return h.handleRead(payload)
	case wire.Write, wire.WriteAt, wire.WriteDirect:
		return h.handleWrite(payload)
	case wire.GetInfo:
		return h.handleGetInfo(payload)
	default:
		return wire.StatusResponse{Errno: Errno(ErrNotRegistered)}
	}
}

func (h *Handler) handleOpen(payload []byte, op func(pid uint64, path string, flags, mode uint64) (uint64, error)) wire.StatusResponse {
	req, err := wire.DecodeOpenRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	// The Registration handshake carries no pid, so the pid in the
	// request body is registered here; RegisterPid is idempotent, so
	// repeating it on every request is harmless.
	_ = h.Backend.RegisterPid(req.Pid)
	fd, err := op(req.Pid, string(req.Path), req.Flags, req.Mode)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{Ret: fd}
}

func (h *Handler) handleClose(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeCloseRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	if err := h.Backend.Close(req.Pid, req.Fd); err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{}
}

func (h *Handler) handleDelete(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeDeleteRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	_ = h.Backend.RegisterPid(req.Pid)
	if err := h.Backend.Delete(req.Pid, string(req.Path)); err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{}
}

func (h *Handler) handleMkDir(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeDeleteRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	_ = h.Backend.RegisterPid(req.Pid)
	if err := h.Backend.MkDir(req.Pid, string(req.Path)); err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{}
}

func (h *Handler) handleRename(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeRenameRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	_ = h.Backend.RegisterPid(req.Pid)
	if err := h.Backend.Rename(req.Pid, string(req.OldPath), string(req.NewPath)); err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{}
}

func (h *Handler) handleRead(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeReadRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	data, err := h.Backend.ReadAt(req.Pid, req.Fd, req.Offset, req.Length)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{Ret: uint64(len(data)), Payload: data}
}

func (h *Handler) handleWrite(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeWriteRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	written, err := h.Backend.WriteAt(req.Pid, req.Fd, req.Offset, req.Data)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{Ret: written}
}

func (h *Handler) handleGetInfo(payload []byte) wire.StatusResponse {
	req, err := wire.DecodeCloseRequest(payload)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	size, err := h.Backend.GetInfo(req.Pid, req.Fd)
	if err != nil {
		return wire.StatusResponse{Errno: Errno(err)}
	}
	return wire.StatusResponse{Ret: size}
}
