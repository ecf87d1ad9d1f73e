package wire

import (
	"encoding/binary"
	"fmt"
)

// errShort reports a typed body that is too small to hold its fixed
// scalar portion.
func errShort(what string, got, want int) error {
	return fmt.Errorf("wire: %s body is %d bytes, want at least %d", what, got, want)
}

func le64(b []byte) uint64  { return binary.LittleEndian.Uint64(b) }
func putLE64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }

// OpenRequest is the body of an Open or Create call: scalar fields in
// declaration order, followed by the raw path bytes running to
// end-of-payload.
type OpenRequest struct {
	Pid   uint64
	Flags uint64
	Mode  uint64
	Path  []byte
}

func (r OpenRequest) Encode() []byte {
	buf := make([]byte, 24+len(r.Path))
	putLE64(buf[0:8], r.Pid)
	putLE64(buf[8:16], r.Flags)
	putLE64(buf[16:24], r.Mode)
	copy(buf[24:], r.Path)
	return buf
}

func DecodeOpenRequest(buf []byte) (OpenRequest, error) {
	if len(buf) < 24 {
		return OpenRequest{}, errShort("OpenRequest", len(buf), 24)
	}
	return OpenRequest{
		Pid:   le64(buf[0:8]),
		Flags: le64(buf[8:16]),
		Mode:  le64(buf[16:24]),
		Path:  append([]byte(nil), buf[24:]...),
	}, nil
}

// CloseRequest is the body of a Close call.
type CloseRequest struct {
	Pid uint64
	Fd  uint64
}

func (r CloseRequest) Encode() []byte {
	buf := make([]byte, 16)
	putLE64(buf[0:8], r.Pid)
	putLE64(buf[8:16], r.Fd)
	return buf
}

func DecodeCloseRequest(buf []byte) (CloseRequest, error) {
	if len(buf) != 16 {
		return CloseRequest{}, fmt.Errorf("wire: CloseRequest body is %d bytes, want exactly 16", len(buf))
	}
	return CloseRequest{Pid: le64(buf[0:8]), Fd: le64(buf[8:16])}, nil
}

// DeleteRequest is the body of a Delete or MkDir call: pid, then the raw
// path running to end-of-payload.
type DeleteRequest struct {
	Pid  uint64
	Path []byte
}

func (r DeleteRequest) Encode() []byte {
	buf := make([]byte, 8+len(r.Path))
	putLE64(buf[0:8], r.Pid)
	copy(buf[8:], r.Path)
	return buf
}

func DecodeDeleteRequest(buf []byte) (DeleteRequest, error) {
	if len(buf) < 8 {
		return DeleteRequest{}, errShort("DeleteRequest", len(buf), 8)
	}
	return DeleteRequest{Pid: le64(buf[0:8]), Path: append([]byte(nil), buf[8:]...)}, nil
}

// RenameRequest is the body of a FileRename call: pid, the length of the
// old path, then the old path bytes followed by the new path bytes
// running to end-of-payload.
type RenameRequest struct {
	Pid     uint64
	OldPath []byte
	NewPath []byte
}

func (r RenameRequest) Encode() []byte {
	buf := make([]byte, 16+len(r.OldPath)+len(r.NewPath))
	putLE64(buf[0:8], r.Pid)
	putLE64(buf[8:16], uint64(len(r.OldPath)))
	copy(buf[16:16+len(r.OldPath)], r.OldPath)
	copy(buf[16+len(r.OldPath):], r.NewPath)
	return buf
}

func DecodeRenameRequest(buf []byte) (RenameRequest, error) {
	if len(buf) < 16 {
		return RenameRequest{}, errShort("RenameRequest", len(buf), 16)
	}
	oldLen := le64(buf[8:16])
	if uint64(len(buf)-16) < oldLen {
		return RenameRequest{}, fmt.Errorf("wire: RenameRequest old-path length %d exceeds payload", oldLen)
	}
	old := buf[16 : 16+oldLen]
	newPath := buf[16+oldLen:]
	return RenameRequest{
		Pid:     le64(buf[0:8]),
		OldPath: append([]byte(nil), old...),
		NewPath: append([]byte(nil), newPath...),
	}, nil
}

// ReadRequest is the body of a Read or ReadAt call.
type ReadRequest struct {
	Pid    uint64
	Fd     uint64
	Offset uint64
	Length uint64
}

func (r ReadRequest) Encode() []byte {
	buf := make([]byte, 32)
	putLE64(buf[0:8], r.Pid)
	putLE64(buf[8:16], r.Fd)
	putLE64(buf[16:24], r.Offset)
	putLE64(buf[24:32], r.Length)
	return buf
}

func DecodeReadRequest(buf []byte) (ReadRequest, error) {
	if len(buf) != 32 {
		return ReadRequest{}, fmt.Errorf("wire: ReadRequest body is %d bytes, want exactly 32", len(buf))
	}
	return ReadRequest{
		Pid:    le64(buf[0:8]),
		Fd:     le64(buf[8:16]),
		Offset: le64(buf[16:24]),
		Length: le64(buf[24:32]),
	}, nil
}

// WriteRequest is the body of a Write, WriteAt, or WriteDirect call:
// scalar fields in declaration order, followed by the raw write payload
// running to end-of-payload.
type WriteRequest struct {
	Pid    uint64
	Fd     uint64
	Offset uint64
	Data   []byte
}

func (r WriteRequest) Encode() []byte {
	buf := make([]byte, 24+len(r.Data))
	putLE64(buf[0:8], r.Pid)
	putLE64(buf[8:16], r.Fd)
	putLE64(buf[16:24], r.Offset)
	copy(buf[24:], r.Data)
	return buf
}

func DecodeWriteRequest(buf []byte) (WriteRequest, error) {
	if len(buf) < 24 {
		return WriteRequest{}, errShort("WriteRequest", len(buf), 24)
	}
	return WriteRequest{
		Pid:    le64(buf[0:8]),
		Fd:     le64(buf[8:16]),
		Offset: le64(buf[16:24]),
		Data:   append([]byte(nil), buf[24:]...),
	}, nil
}

// StatusResponse is the common response body shape: a (return value,
// errno) status tuple, optionally followed by a read payload running to
// end-of-payload.
type StatusResponse struct {
	Ret     uint64
	Errno   uint64
	Payload []byte
}

func (r StatusResponse) Encode() []byte {
	buf := make([]byte, 16+len(r.Payload))
	putLE64(buf[0:8], r.Ret)
	putLE64(buf[8:16], r.Errno)
	copy(buf[16:], r.Payload)
	return buf
}

func DecodeStatusResponse(buf []byte) (StatusResponse, error) {
	if len(buf) < 16 {
		return StatusResponse{}, errShort("StatusResponse", len(buf), 16)
	}
	return StatusResponse{
		Ret:     le64(buf[0:8]),
		Errno:   le64(buf[8:16]),
		Payload: append([]byte(nil), buf[16:]...),
	}, nil
}

// Ok reports whether the response carries a zero errno.
func (r StatusResponse) Ok() bool { return r.Errno == 0 }
