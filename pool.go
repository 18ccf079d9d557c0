package vgpu

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Region describes one backing-store mapping owned by a pool. Fast-tier
// regions have no backing file (the []byte comes from make, not mmap).
type Region struct {
	Bytes []byte
	file  *os.File
	path  string
}

// pool is a file-backed arena for Medium/Slow tier regions: each
// allocation gets its own file, truncated to size and mmap'd MAP_SHARED,
// so a region can be handed to the spill executor or read back after a
// process restart inspecting the directory by hand.
type pool struct {
	dir    string
	prefix string
	limit  int64 // 0 means "bounded by filesystem free space only"
	mu     sync.Mutex
	used   int64
	nextID int64
}

func newPool(dir, prefix string, limit int64) (*pool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pool dir %s: %w", dir, err)
	}
	return &pool{dir: dir, prefix: prefix, limit: limit}, nil
}

func (p *pool) allocate(size int) (*Region, error) {
	if size <= 0 {
		return nil, NewInvalidArgument("pool.allocate", "size must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ceiling := p.limit
	if ceiling <= 0 {
		ceiling = p.availableBytes() + p.used
	}
	if p.used+int64(size) > ceiling {
		return nil, NewOutOfMemory("pool.allocate", fmt.Sprintf("pool %s exhausted: used=%d requested=%d limit=%d", p.dir, p.used, size, ceiling))
	}

	id := p.nextID
	p.nextID++
	path := fmt.Sprintf("%s/%s_%s", p.dir, p.prefix, strconv.FormatInt(id, 10))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, NewSpillFailed("pool.allocate", "create backing file", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, NewSpillFailed("pool.allocate", "truncate backing file", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, NewSpillFailed("pool.allocate", "mmap backing file", err)
	}

	p.used += int64(size)
	return &Region{Bytes: data, file: f, path: path}, nil
}

func (p *pool) deallocate(r *Region) {
	if r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	size := len(r.Bytes)
	if err := unix.Munmap(r.Bytes); err == nil {
		p.used -= int64(size)
	}
	if r.file != nil {
		r.file.Close()
	}
	if r.path != "" {
		os.Remove(r.path)
	}
}

func (p *pool) usedBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.used
}

func (p *pool) totalBytes() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.limit > 0 {
		return p.limit
	}
	return p.availableBytes() + p.used
}

func (p *pool) freeBytes() int64 {
	return p.totalBytes() - p.usedBytes()
}

// availableBytes reports free space on the pool's filesystem via statfs.
// Called with p.mu held.
func (p *pool) availableBytes() int64 {
	var st syscall.Statfs_t
	if err := syscall.Statfs(p.dir, &st); err != nil {
		return 0
	}
	return int64(st.Bavail) * int64(st.Bsize)
}
