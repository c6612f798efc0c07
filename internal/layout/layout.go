// Package layout computes the mapping between logical sectors of the
// mirrored device and the CRC sectors that hold their checksums.
//
// The calculator is pure and deterministic: it performs no I/O and holds
// no state. Every backing device is partitioned identically into a data
// region followed by a CRC region, as described by the on-disk layout
// table.
package layout

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// SectorSize is the fixed size, in bytes, of every logical and
	// physical sector.
	SectorSize = 512

	// LogicalSectors is the capacity of the exposed mirrored device,
	// in 512-byte sectors (95 MiB).
	LogicalSectors = 95 * 1024 * 1024 / SectorSize

	// CRCPerSector is the number of 32-bit CRC slots held by one CRC
	// sector.
	CRCPerSector = SectorSize / 4
)

// CRCSectors is the number of sectors in the CRC region, immediately
// following the data region on each backing device.
var CRCSectors = ceilDiv(LogicalSectors, CRCPerSector)

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// CRCSectorOf returns the CRC sector that holds the CRC slot for
// logical sector l.
func CRCSectorOf(l int64) int64 {
	return LogicalSectors + l/CRCPerSector
}

// CRCSlotOf returns the slot index, within the CRC sector returned by
// CRCSectorOf, that holds logical sector l's CRC.
func CRCSlotOf(l int64) int64 {
	return l % CRCPerSector
}

// CRCSlotByteOffset returns the byte offset, within the CRC sector
// returned by CRCSectorOf, of the 4-byte little-endian CRC slot for
// logical sector l.
func CRCSlotByteOffset(l int64) int64 {
	return CRCSlotOf(l) * 4
}

// CRCSpan returns, in ascending order, the one or two distinct CRC
// sectors that cover the CRC slots of the data-sector range [l, l+n).
func CRCSpan(l, n int64) []int64 {
	first := CRCSectorOf(l)
	last := CRCSectorOf(l + n - 1)
	if first == last {
		return []int64{first}
	}
	return []int64{first, last}
}

// Validate reports a programming-error status if [l, l+n) is not a
// well-formed, in-range logical sector range. Per §4.1, out-of-range
// inputs are a programming error of the caller; the dispatcher and
// request handler call this defensively even though the host block
// subsystem is expected to reject such requests first.
func Validate(l, n int64) error {
	if n <= 0 {
		return status.Errorf(codes.InvalidArgument, "sector count %d is not positive", n)
	}
	if l < 0 || l >= LogicalSectors {
		return status.Errorf(codes.InvalidArgument, "starting sector %d is out of range [0, %d)", l, LogicalSectors)
	}
	if l+n > LogicalSectors {
		return status.Errorf(codes.InvalidArgument, "sector range [%d, %d) exceeds capacity %d", l, l+n, LogicalSectors)
	}
	return nil
}

// Range is the half-open logical sector range [Start, Start+Count).
type Range struct {
	Start, Count int64
}

// String implements fmt.Stringer, primarily for log messages.
func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.Start+r.Count)
}
