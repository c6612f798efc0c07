package blockio

import (
	"context"

	"github.com/dualmirror/ssr/internal/layout"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MemDevice is a backing device entirely held in memory, used by tests
// across the module in place of a real block device. It additionally
// exposes Flip, which simulates bit-rot by corrupting a single byte,
// and FailNext, which simulates a backing-device I/O failure on the next
// operation.
type MemDevice struct {
	bytes       []byte
	failNextErr error
}

// NewMemDevice allocates a zero-filled in-memory device of the given
// sector count.
func NewMemDevice(sectorCount int64) *MemDevice {
	return &MemDevice{bytes: make([]byte, sectorCount*layout.SectorSize)}
}

func (m *MemDevice) ReadAt(ctx context.Context, p []byte, sectorOffset int64) error {
	if m.failNextErr != nil {
		err := m.failNextErr
		m.failNextErr = nil
		return err
	}
	off := sectorOffset * layout.SectorSize
	if off < 0 || off+int64(len(p)) > int64(len(m.bytes)) {
		return status.Errorf(codes.OutOfRange, "read at sector %d out of range", sectorOffset)
	}
	copy(p, m.bytes[off:off+int64(len(p))])
	return nil
}

func (m *MemDevice) WriteAt(ctx context.Context, p []byte, sectorOffset int64) error {
	if m.failNextErr != nil {
		err := m.failNextErr
		m.failNextErr = nil
		return err
	}
	off := sectorOffset * layout.SectorSize
	if off < 0 || off+int64(len(p)) > int64(len(m.bytes)) {
		return status.Errorf(codes.OutOfRange, "write at sector %d out of range", sectorOffset)
	}
	copy(m.bytes[off:off+int64(len(p))], p)
	return nil
}

// Flip corrupts a single byte at the given absolute byte offset,
// simulating bit-rot. It returns the original byte value.
func (m *MemDevice) Flip(byteOffset int64) byte {
	orig := m.bytes[byteOffset]
	m.bytes[byteOffset] ^= 0xff
	return orig
}

// SectorByteOffset returns the absolute byte offset of the start of
// the given sector, for tests that want to address a byte within it.
func (m *MemDevice) SectorByteOffset(sector int64) int64 {
	return sector * layout.SectorSize
}

// FailNext arranges for the next ReadAt or WriteAt call to fail with
// err instead of touching the underlying storage.
func (m *MemDevice) FailNext(err error) {
	m.failNextErr = err
}

// RawBytes returns the device's underlying storage for direct
// inspection in tests. Callers must not mutate the returned slice
// through any path other than Flip/WriteAt.
func (m *MemDevice) RawBytes() []byte {
	return m.bytes
}
