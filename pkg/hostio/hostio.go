// Package hostio implements the External Interfaces (§6): the
// collaborators the engine needs from the host to register a logical
// device and to open its two backing devices. cmd/ssrd wires
// OSFileOpener and NoopRegistrar; this package has no registrar that
// talks to a host block subsystem. Tests substitute fakes.
package hostio

import (
	"context"
	"os"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/blockio"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LogicalDeviceIdentity describes the host-block-subsystem
// registration for the mirrored logical device (§6).
type LogicalDeviceIdentity struct {
	Major           int
	FirstMinor      int
	NumMinors       int
	Name            string
	SectorSize      int
	CapacitySectors int64
}

// DefaultIdentity is the identity carried over from the reference
// driver (ssr.h: SSR_MAJOR, SSR_FIRST_MINOR, LOGICAL_DISK_NAME).
var DefaultIdentity = LogicalDeviceIdentity{
	Major:           240,
	FirstMinor:      0,
	NumMinors:       1,
	Name:            "ssr",
	SectorSize:      layout.SectorSize,
	CapacitySectors: layout.LogicalSectors,
}

// LogicalDeviceRegistrar reserves and publishes the logical device's
// identity in the host (§4.8: "reserve the logical device identity" /
// "publish the logical device"). A real implementation talks to the
// host block subsystem; it has no portable Go equivalent and is
// intentionally left an interface at the engine's boundary, the same
// way the request engine treats backing-device opening as a
// replaceable collaborator rather than inlining it.
type LogicalDeviceRegistrar interface {
	// Reserve claims identity's major/minor range, before the device's
	// queue or gendisk exist.
	Reserve(ctx context.Context, identity LogicalDeviceIdentity) error
	// Publish makes the logical device visible to the host once it is
	// fully constructed (ssr.c's add_disk).
	Publish(ctx context.Context, identity LogicalDeviceIdentity) error
	// Unpublish and Release undo Publish and Reserve respectively, in
	// that order, as part of reverse-order teardown.
	Unpublish(ctx context.Context, identity LogicalDeviceIdentity) error
	Release(ctx context.Context, identity LogicalDeviceIdentity) error
}

// BackingDeviceOpener opens a backing device for read+write exclusive
// access (§6) and returns it as a blockio.Device.
type BackingDeviceOpener interface {
	Open(ctx context.Context, path string) (Closeable, error)
}

// Closeable is a blockio.Device that owns an underlying OS resource and
// must be closed when the engine tears down.
type Closeable interface {
	blockio.Device
	Close() error
}

// OSFileOpener opens backing devices as ordinary files via os.OpenFile,
// the portable stand-in for opening a raw block device node
// read+write, exclusive (O_EXCL has no meaningful effect on an
// already-existing device node and is omitted; exclusivity is enforced
// by the host, not by this opener).
type OSFileOpener struct{}

func (OSFileOpener) Open(ctx context.Context, path string) (Closeable, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "open backing device %q: %v", path, err)
	}
	return &osFileDevice{f: f}, nil
}

type osFileDevice struct {
	f *os.File
}

func (d *osFileDevice) ReadAt(ctx context.Context, p []byte, sectorOffset int64) error {
	_, err := d.f.ReadAt(p, sectorOffset*layout.SectorSize)
	if err != nil {
		return status.Errorf(codes.Unavailable, "read at sector %d: %v", sectorOffset, err)
	}
	return nil
}

func (d *osFileDevice) WriteAt(ctx context.Context, p []byte, sectorOffset int64) error {
	_, err := d.f.WriteAt(p, sectorOffset*layout.SectorSize)
	if err != nil {
		return status.Errorf(codes.Unavailable, "write at sector %d: %v", sectorOffset, err)
	}
	return nil
}

func (d *osFileDevice) Close() error {
	return d.f.Close()
}
