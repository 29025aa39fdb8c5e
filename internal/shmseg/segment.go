// Package shmseg implements the shared-segment backend: out-of-process
// workers operating on two named memory segments that ping-pong between the
// read and write roles each iteration, so no grid data is serialized between
// processes after the initial seed.
//
// Segments are plain files under /dev/shm mapped with MAP_SHARED, which is
// what POSIX shm_open amounts to on Linux. Workers attach by segment NAME
// from the job descriptor; nothing relies on inherited descriptors.
package shmseg

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// shmDir returns the directory backing segments: /dev/shm where available
// (mappings there never touch a disk), the default temp dir otherwise.
func shmDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// NewSegmentName returns a process-unique segment name.
func NewSegmentName() string {
	var b [6]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("shmseg: reading random bytes: %v", err))
	}
	return fmt.Sprintf("heatgrid-%d-%s", os.Getpid(), hex.EncodeToString(b[:]))
}

// Segment is one named shared-memory region.
type Segment struct {
	Name string
	data []byte
}

// Create makes a new segment of size bytes and maps it. It fails if the name
// is already in use.
func Create(name string, size int) (*Segment, error) {
	path := filepath.Join(shmDir(), name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating segment %s: %w", name, err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("sizing segment %s: %w", name, err)
	}
	return mapSegment(name, f, size)
}

// Attach maps an existing segment by name.
func Attach(name string, size int) (*Segment, error) {
	path := filepath.Join(shmDir(), name)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("attaching segment %s: %w", name, err)
	}
	defer f.Close()
	return mapSegment(name, f, size)
}

func mapSegment(name string, f *os.File, size int) (*Segment, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mapping segment %s: %w", name, err)
	}
	return &Segment{Name: name, data: data}, nil
}

// Float64s views the segment as a row-major float64 buffer. The view is only
// valid until Close.
func (s *Segment) Float64s() []float64 {
	return unsafe.Slice((*float64)(unsafe.Pointer(&s.data[0])), len(s.data)/8)
}

// Close unmaps the segment. The named region stays alive for other attachers
// until someone unlinks it.
func (s *Segment) Close() error {
	if s.data == nil {
		return nil
	}
	data := s.data
	s.data = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("unmapping segment %s: %w", s.Name, err)
	}
	return nil
}

// Unlink removes the segment's name. Existing mappings keep working until
// they are closed.
func (s *Segment) Unlink() error {
	if err := os.Remove(filepath.Join(shmDir(), s.Name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unlinking segment %s: %w", s.Name, err)
	}
	return nil
}
