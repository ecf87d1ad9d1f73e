package fileio

import (
	"hash/fnv"
	"sync"
	"sync/atomic"
)

const numShards = 16

type fileData struct {
	mu   sync.RWMutex
	data []byte
}

type shard struct {
	mu    sync.RWMutex
	files map[string]*fileData
}

func shardIndex(path string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(path))
	return int(h.Sum32()) % numShards
}

type openFile struct {
	path string
}

// MemoryBackend is an in-memory Backend implementation, sharded by path
// hash the way the teacher's mem.go shards its block store, so concurrent
// sessions touching different files don't contend on one global lock.
type MemoryBackend struct {
	shards [numShards]*shard

	pidsMu sync.Mutex
	pids   map[uint64]struct{}

	fdsMu  sync.Mutex
	fds    map[uint64]*openFile
	nextFd atomic.Uint64
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	b := &MemoryBackend{
		pids: make(map[uint64]struct{}),
		fds:  make(map[uint64]*openFile),
	}
	for i := range b.shards {
		b.shards[i] = &shard{files: make(map[string]*fileData)}
	}
	return b
}

func (b *MemoryBackend) shardFor(path string) *shard {
	return b.shards[shardIndex(path)]
}

func (b *MemoryBackend) RegisterPid(pid uint64) error {
	b.pidsMu.Lock()
	defer b.pidsMu.Unlock()
	b.pids[pid] = struct{}{}
	return nil
}

func (b *MemoryBackend) requirePid(pid uint64) error {
	b.pidsMu.Lock()
	defer b.pidsMu.Unlock()
	if _, ok := b.pids[pid]; !ok {
		return ErrNotRegistered
	}
	return nil
}

func (b *MemoryBackend) Create(pid uint64, path string, flags, mode uint64) (uint64, error) {
	if err := b.requirePid(pid); err != nil {
		return 0, err
	}
	sh := b.shardFor(path)
	sh.mu.Lock()
	if _, exists := sh.files[path]; !exists {
		sh.files[path] = &fileData{}
	}
	sh.mu.Unlock()
	return b.openFd(path), nil
}

func (b *MemoryBackend) Open(pid uint64, path string, flags, mode uint64) (uint64, error) {
	if err := b.requirePid(pid); err != nil {
		return 0, err
	}
	sh := b.shardFor(path)
	sh.mu.RLock()
	_, exists := sh.files[path]
	sh.mu.RUnlock()
	if !exists {
		return 0, ErrNotFound
	}
	return b.openFd(path), nil
}

func (b *MemoryBackend) openFd(path string) uint64 {
	fd := b.nextFd.Add(1)
	b.fdsMu.Lock()
	b.fds[fd] = &openFile{path: path}
	b.fdsMu.Unlock()
	return fd
}

func (b *MemoryBackend) lookupFd(fd uint64) (*openFile, error) {
	b.fdsMu.Lock()
	defer b.fdsMu.Unlock()
	of, ok := b.fds[fd]
	if !ok {
		return nil, ErrBadFd
	}
	return of, nil
}

func (b *MemoryBackend) Close(pid uint64, fd uint64) error {
	b.fdsMu.Lock()
	defer b.fdsMu.Unlock()
	if _, ok := b.fds[fd]; !ok {
		return ErrBadFd
	}
	delete(b.fds, fd)
	return nil
}

func (b *MemoryBackend) Delete(pid uint64, path string) error {
	if err := b.requirePid(pid); err != nil {
		return err
	}
	sh := b.shardFor(path)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.files[path]; !exists {
		return ErrNotFound
	}
	delete(sh.files, path)
	return nil
}

func (b *MemoryBackend) Rename(pid uint64, oldPath, newPath string) error {
	if err := b.requirePid(pid); err != nil {
		return err
	}
	oldShard := b.shardFor(oldPath)
	oldShard.mu.Lock()
	fd, exists := oldShard.files[oldPath]
	if exists {
		delete(oldShard.files, oldPath)
	}
	oldShard.mu.Unlock()
	if !exists {
		return ErrNotFound
	}

	newShard := b.shardFor(newPath)
	newShard.mu.Lock()
	newShard.files[newPath] = fd
	newShard.mu.Unlock()
	return nil
}

func (b *MemoryBackend) MkDir(pid uint64, path string) error {
	// The in-memory backend has no real directory hierarchy; MkDir is
	// satisfied by creating a zero-length marker file at path.
	if err := b.requirePid(pid); err != nil {
		return err
	}
	sh := b.shardFor(path)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, exists := sh.files[path]; exists {
		return ErrExists
	}
	sh.files[path] = &fileData{}
	return nil
}

func (b *MemoryBackend) ReadAt(pid uint64, fd uint64, offset, length uint64) ([]byte, error) {
	of, err := b.lookupFd(fd)
	if err != nil {
		return nil, err
	}
	sh := b.shardFor(of.path)
	sh.mu.RLock()
	fdat, exists := sh.files[of.path]
	sh.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}

	fdat.mu.RLock()
	defer fdat.mu.RUnlock()
	if offset >= uint64(len(fdat.data)) {
		return nil, nil
	}
	end := offset + length
	if end > uint64(len(fdat.data)) {
		end = uint64(len(fdat.data))
	}
	out := make([]byte, end-offset)
	copy(out, fdat.data[offset:end])
	return out, nil
}

func (b *MemoryBackend) WriteAt(pid uint64, fd uint64, offset uint64, data []byte) (uint64, error) {
	of, err := b.lookupFd(fd)
	if err != nil {
		return 0, err
	}
	sh := b.shardFor(of.path)
	sh.mu.RLock()
	fdat, exists := sh.files[of.path]
	sh.mu.RUnlock()
	if !exists {
		return 0, ErrNotFound
	}

	fdat.mu.Lock()
	defer fdat.mu.Unlock()
	end := offset + uint64(len(data))
	if end > uint64(len(fdat.data)) {
		grown := make([]byte, end)
		copy(grown, fdat.data)
		fdat.data = grown
	}
	copy(fdat.data[offset:end], data)
	return uint64(len(data)), nil
}

func (b *MemoryBackend) GetInfo(pid uint64, fd uint64) (uint64, error) {
	of, err := b.lookupFd(fd)
	if err != nil {
		return 0, err
	}
	sh := b.shardFor(of.path)
	sh.mu.RLock()
	fdat, exists := sh.files[of.path]
	sh.mu.RUnlock()
	if !exists {
		return 0, ErrNotFound
	}
	fdat.mu.RLock()
	defer fdat.mu.RUnlock()
	return uint64(len(fdat.data)), nil
}

var _ Backend = (*MemoryBackend)(nil)
