// Package fileio implements the controller node's file-I/O subsystem: the
// Backend a registered pid's Open/Read/Write/... calls are dispatched
// against, and the Handler that turns a decoded RPC frame into a Backend
// call and a response frame.
package fileio

import "errors"

// Sentinel errors a Backend implementation returns; Handler maps them to
// the wire StatusResponse errno convention.
var (
	ErrNotFound    = errors.New("fileio: not found")
	ErrExists      = errors.New("fileio: already exists")
	ErrBadFd       = errors.New("fileio: bad file descriptor")
	ErrPermission  = errors.New("fileio: permission denied")
	ErrNotRegistered = errors.New("fileio: pid not registered")
)

// Backend is the file-I/O surface a controller node serves over RPC. It
// mirrors the teacher's storage Backend interface, generalized from
// block-device read/write to a path-and-fd filesystem surface.
type Backend interface {
	RegisterPid(pid uint64) error

	Open(pid uint64, path string, flags, mode uint64) (fd uint64, err error)
	Create(pid uint64, path string, flags, mode uint64) (fd uint64, err error)
	Close(pid uint64, fd uint64) error
	Delete(pid uint64, path string) error
	Rename(pid uint64, oldPath, newPath string) error
	MkDir(pid uint64, path string) error

	ReadAt(pid uint64, fd uint64, offset, length uint64) ([]byte, error)
	WriteAt(pid uint64, fd uint64, offset uint64, data []byte) (written uint64, err error)

	// GetInfo reports the current size of the file backing fd.
	GetInfo(pid uint64, fd uint64) (size uint64, err error)
}

// Errno maps a Backend error to the POSIX-style errno value the wire
// StatusResponse carries; unrecognized errors map to EIO.
func Errno(err error) uint64 {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return 2 // ENOENT
	case errors.Is(err, ErrBadFd):
		return 9 // EBADF
	case errors.Is(err, ErrPermission):
		return 13 // EACCES
	case errors.Is(err, ErrExists):
		return 17 // EEXIST
	case errors.Is(err, ErrNotRegistered):
		return 22 // EINVAL
	default:
		return 5 // EIO
	}
}
