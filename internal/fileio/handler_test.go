package fileio

import (
	"bytes"
	"testing"

	"github.com/nrkernel/corekernel/internal/wire"
)

func TestHandlerReadAfterWrite(t *testing.T) {
	backend := NewMemoryBackend()
	if err := backend.RegisterPid(1); err != nil {
		t.Fatalf("RegisterPid failed: %v", err)
	}
	h := NewHandler(backend)

	openReq := wire.OpenRequest{Pid: 1, Flags: 0, Mode: 0o644, Path: []byte("/x")}
	_, body := h.Handle(wire.Header{MsgType: wire.Create}, openReq.Encode())
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		t.Fatalf("DecodeStatusResponse(create) failed: %v", err)
	}
	if !status.Ok() {
		t.Fatalf("create response not Ok(): errno=%d", status.Errno)
	}
	fd := status.Ret

	writeReq := wire.WriteRequest{Pid: 1, Fd: fd, Offset: 0, Data: []byte("hello")}
	_, body = h.Handle(wire.Header{MsgType: wire.WriteAt}, writeReq.Encode())
	status, err = wire.DecodeStatusResponse(body)
	if err != nil {
		t.Fatalf("DecodeStatusResponse(write) failed: %v", err)
	}
	if !status.Ok() {
		t.Fatalf("write response not Ok(): errno=%d", status.Errno)
	}
	if status.Ret != 5 {
		t.Errorf("write Ret = %d, want 5", status.Ret)
	}

	readReq := wire.ReadRequest{Pid: 1, Fd: fd, Offset: 0, Length: 5}
	respHeader, body := h.Handle(wire.Header{ClientID: 7, ReqID: 3, MsgType: wire.ReadAt}, readReq.Encode())
	status, err = wire.DecodeStatusResponse(body)
	if err != nil {
		t.Fatalf("DecodeStatusResponse(read) failed: %v", err)
	}
	if !status.Ok() {
		t.Fatalf("read response not Ok(): errno=%d", status.Errno)
	}
	if !bytes.Equal(status.Payload, []byte("hello")) {
		t.Errorf("read Payload = %q, want %q", status.Payload, "hello")
	}
	if respHeader.ClientID != 7 {
		t.Errorf("response ClientID = %d, want 7", respHeader.ClientID)
	}
	if respHeader.ReqID != 3 {
		t.Errorf("response ReqID = %d, want 3", respHeader.ReqID)
	}
}

func TestHandlerCloseUnknownFdReturnsErrno(t *testing.T) {
	backend := NewMemoryBackend()
	h := NewHandler(backend)

	closeReq := wire.CloseRequest{Pid: 1, Fd: 999}
	_, body := h.Handle(wire.Header{MsgType: wire.Close}, closeReq.Encode())
	status, err := wire.DecodeStatusResponse(body)
	if err != nil {
		t.Fatalf("DecodeStatusResponse failed: %v", err)
	}
	if status.Ok() {
		t.Error("expected close on an unknown fd to fail")
	}
	if status.Errno != Errno(ErrBadFd) {
		t.Errorf("Errno = %d, want %d", status.Errno, Errno(ErrBadFd))
	}
}
