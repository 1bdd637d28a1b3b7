package wayland

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ShmBuffer is an anonymous shared-memory region suitable for wl_shm pools.
// The region stays mapped until Close.
type ShmBuffer struct {
	fd   int
	size int
	data []byte
}

// NewShmBuffer creates a memfd of the given size and maps it read/write.
func NewShmBuffer(size int) (*ShmBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm buffer size must be positive, got %d", size)
	}
	fd, err := unix.MemfdCreate("wl_shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("ftruncate shm buffer to %d bytes: %w", size, err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("mmap shm buffer: %w", err)
	}
	return &ShmBuffer{fd: fd, size: size, data: data}, nil
}

// Fd returns the file descriptor backing the region, for wl_shm.create_pool.
func (b *ShmBuffer) Fd() uintptr { return uintptr(b.fd) }

// Size returns the region size in bytes.
func (b *ShmBuffer) Size() int { return b.size }

// Data returns the mapped bytes.
func (b *ShmBuffer) Data() []byte { return b.data }

// Close unmaps the region and closes the descriptor. Safe to call once.
func (b *ShmBuffer) Close() error {
	var firstErr error
	if b.data != nil {
		if err := unix.Munmap(b.data); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("munmap shm buffer: %w", err)
		}
		b.data = nil
	}
	if b.fd >= 0 {
		if err := unix.Close(b.fd); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close shm fd: %w", err)
		}
		b.fd = -1
	}
	return firstErr
}
