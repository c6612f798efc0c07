// Package blockio implements the Page I/O Primitive: synchronous,
// sector-aligned reads and writes against a backing device, blocking
// the calling worker until the device acknowledges completion.
//
// It is the Go-idiomatic replacement for the teacher's
// blockDeviceBackedBlockReader/blockDeviceBackedBlockWriter pair
// (pkg/blobstore/local/block_device_backed_block_allocator.go): the
// same sector-aligned idiom, narrowed from "read/write one blob at an
// arbitrary byte offset" to "read/write one page at a sector-aligned
// offset". Lengths that are not a whole number of sectors are rejected,
// not buffered.
package blockio

import (
	"context"
	"fmt"

	"github.com/dualmirror/ssr/internal/layout"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Device is the synchronous, sector-addressed interface the request
// engine needs from a backing device. Real backing devices (§6: two
// paths, opened read+write exclusive) are expected to implement this
// over an *os.File; package hostio provides that implementation. The
// engine never mutates a Device's identity, only the bytes it stores.
type Device interface {
	// ReadAt fills p with len(p) bytes read starting at sector
	// sectorOffset. len(p) must be a multiple of layout.SectorSize.
	// ReadAt blocks the calling goroutine until the device completes
	// the operation or fails.
	ReadAt(ctx context.Context, p []byte, sectorOffset int64) error

	// WriteAt writes len(p) bytes of p to sector sectorOffset. len(p)
	// must be a multiple of layout.SectorSize. WriteAt blocks the
	// calling goroutine until the device completes the operation or
	// fails.
	WriteAt(ctx context.Context, p []byte, sectorOffset int64) error
}

func validateLength(n int) error {
	if n <= 0 || n%layout.SectorSize != 0 {
		return status.Errorf(codes.InvalidArgument, "length %d is not a positive multiple of %d bytes", n, layout.SectorSize)
	}
	return nil
}

// ReadPage fills bytes [offset, offset+length) of page with length
// bytes read from device d, starting at sector S. It suspends the
// caller until d acknowledges completion.
func ReadPage(ctx context.Context, d Device, sector int64, page []byte, offset, length int) error {
	if err := validateLength(length); err != nil {
		return err
	}
	if offset < 0 || offset+length > len(page) {
		return status.Errorf(codes.InvalidArgument, "segment [%d, %d) does not fit in a page of %d bytes", offset, offset+length, len(page))
	}
	if err := d.ReadAt(ctx, page[offset:offset+length], sector); err != nil {
		return status.Errorf(codes.Unavailable, "read %d bytes from sector %d failed: %v", length, sector, err)
	}
	return nil
}

// WritePage writes bytes [offset, offset+length) of page to device d,
// starting at sector S. It suspends the caller until d acknowledges
// completion.
func WritePage(ctx context.Context, d Device, sector int64, page []byte, offset, length int) error {
	if err := validateLength(length); err != nil {
		return err
	}
	if offset < 0 || offset+length > len(page) {
		return status.Errorf(codes.InvalidArgument, "segment [%d, %d) does not fit in a page of %d bytes", offset, offset+length, len(page))
	}
	if err := d.WriteAt(ctx, page[offset:offset+length], sector); err != nil {
		return status.Errorf(codes.Unavailable, "write %d bytes to sector %d failed: %v", length, sector, err)
	}
	return nil
}

// NewPage allocates a transient page of the given length. Pages
// allocated this way are engine-owned buffers: per §4.5/§4.6 they are
// never the caller's own segment page, and are released (here: simply
// become unreferenced and garbage collected, since Go has no manual
// page-pool lifetime to free explicitly) before the request's
// completion callback fires.
func NewPage(length int) ([]byte, error) {
	if err := validateLength(length); err != nil {
		return nil, err
	}
	return make([]byte, length), nil
}

// ReadPayload is a convenience form of ReadPage that decouples the
// caller from page allocation: it reads length bytes from device d at
// sector S into a transient page and copies them into dst.
func ReadPayload(ctx context.Context, d Device, sector int64, dst []byte) error {
	page, err := NewPage(len(dst))
	if err != nil {
		return err
	}
	if err := ReadPage(ctx, d, sector, page, 0, len(page)); err != nil {
		return err
	}
	copy(dst, page)
	return nil
}

// WritePayload is a convenience form of WritePage that decouples the
// caller from page allocation: it copies src into a transient page and
// writes it to device d at sector S.
func WritePayload(ctx context.Context, d Device, sector int64, src []byte) error {
	page, err := NewPage(len(src))
	if err != nil {
		return err
	}
	copy(page, src)
	return WritePage(ctx, d, sector, page, 0, len(page))
}

// SectorCount returns the number of whole sectors spanned by length
// bytes. It panics if length is not a multiple of the sector size,
// since every caller is expected to have validated this already.
func SectorCount(length int) int64 {
	if length%layout.SectorSize != 0 {
		panic(fmt.Sprintf("length %d is not a multiple of the sector size", length))
	}
	return int64(length / layout.SectorSize)
}
