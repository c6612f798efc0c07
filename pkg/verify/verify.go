// Package verify implements the Verify-and-Repair Engine (§4.4): given
// the data bytes and stored CRCs for a contiguous logical range on both
// backing devices, it classifies every sector and repairs single-device
// corruption by copying from the surviving copy.
//
// It generalizes, from three mirrors down to exactly two, the
// classify-then-heal shape of the teacher pack's
// tri_mirrored_ac_blob_access.go: there, a quorum of N buffers is
// compared and the minority is overwritten from the majority; here,
// with exactly two copies, there is no majority vote, only "exactly one
// of the two disagrees with its own stored CRC" or "both do" (checked
// independently, not against each other, because a sector's content
// might legitimately be written however the writer chose — only its
// *own* CRC is authoritative for it).
package verify

import (
	"hash/crc32"

	"github.com/dualmirror/ssr/internal/layout"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Classification is the per-sector outcome of comparing a sector's
// content against its stored CRC on each device.
type Classification int

const (
	// BothGood: both devices' stored CRC matches their own content.
	// No repair needed.
	BothGood Classification = iota
	// Device1Bad: device 0 is good, device 1's content does not match
	// its stored CRC. Device 1 is repaired from device 0.
	Device1Bad
	// Device0Bad: device 1 is good, device 0's content does not match
	// its stored CRC. Device 0 is repaired from device 1.
	Device0Bad
	// BothBad: neither device's content matches its own stored CRC.
	// Unrepairable; the whole request aborts.
	BothBad
)

// Result describes the outcome of verifying (and, where possible,
// repairing) one contiguous range of sectors.
type Result struct {
	// Classifications holds one entry per sector in the range, in
	// order.
	Classifications []Classification
	// Dirty0 and Dirty1 report whether data0/data1 were modified by a
	// repair and must be flushed back to their owning device.
	Dirty0, Dirty1 bool
	// RepairedCRC0 and RepairedCRC1 hold, for sectors that were
	// repaired, the logical sector number and corrected CRC value that
	// must be written into the corresponding device's CRC slab. A
	// sector never appears in both: repair always fixes one device
	// using the other's already-good content and CRC.
	RepairedCRC0, RepairedCRC1 []SectorCRC
}

// SectorCRC pairs a logical sector with a CRC value to be stored for
// it.
type SectorCRC struct {
	Sector int64
	CRC    uint32
}

// BothBadError is returned when VerifyAndRepair finds at least one
// sector corrupt on both devices. Per §4.4's tie-break rule, a single
// both-bad sector fails the entire request; no partial completion is
// offered.
func BothBadError(start int64, count int) error {
	return status.Errorf(codes.DataLoss, "sector(s) in range %s corrupt on both devices", layout.Range{Start: start, Count: int64(count)})
}

// VerifyAndRepair checks every 512-byte sector of data0/data1 (which
// must be the same length, a positive multiple of layout.SectorSize)
// against the CRC stored for it on each device (crc0[i]/crc1[i] for
// logical sector start+i), repairing data0 or data1 in place wherever
// exactly one device disagrees with its own stored CRC.
//
// It returns BothBadError (wrapping codes.DataLoss) if any sector is
// corrupt on both devices; in that case data0/data1 may have been
// partially repaired for sectors preceding the bad one, and the caller
// must not flush anything (see mirror.Handler.HandleRead, which
// discards the whole attempt on error without writing any page back).
func VerifyAndRepair(start int64, data0, data1 []byte, crc0, crc1 []uint32) (*Result, error) {
	n := len(data0)
	if n == 0 || n%layout.SectorSize != 0 {
		return nil, status.Errorf(codes.InvalidArgument, "data length %d is not a positive multiple of %d", n, layout.SectorSize)
	}
	if len(data1) != n {
		return nil, status.Errorf(codes.InvalidArgument, "data0 and data1 length mismatch: %d vs %d", n, len(data1))
	}
	sectorCount := n / layout.SectorSize
	if len(crc0) != sectorCount || len(crc1) != sectorCount {
		return nil, status.Errorf(codes.InvalidArgument, "expected %d CRC entries per device, got %d and %d", sectorCount, len(crc0), len(crc1))
	}

	res := &Result{Classifications: make([]Classification, sectorCount)}
	for i := 0; i < sectorCount; i++ {
		sector0 := data0[i*layout.SectorSize : (i+1)*layout.SectorSize]
		sector1 := data1[i*layout.SectorSize : (i+1)*layout.SectorSize]
		real0 := crc32.ChecksumIEEE(sector0)
		real1 := crc32.ChecksumIEEE(sector1)
		good0 := crc0[i] == real0
		good1 := crc1[i] == real1
		logicalSector := start + int64(i)

		switch {
		case good0 && good1:
			res.Classifications[i] = BothGood
		case good0 && !good1:
			res.Classifications[i] = Device1Bad
			copy(sector1, sector0)
			res.Dirty1 = true
			res.RepairedCRC1 = append(res.RepairedCRC1, SectorCRC{Sector: logicalSector, CRC: real0})
		case !good0 && good1:
			res.Classifications[i] = Device0Bad
			copy(sector0, sector1)
			res.Dirty0 = true
			res.RepairedCRC0 = append(res.RepairedCRC0, SectorCRC{Sector: logicalSector, CRC: real1})
		default:
			res.Classifications[i] = BothBad
			return res, BothBadError(start, sectorCount)
		}
	}
	return res, nil
}

// ComputeCRC returns the CRC that should be stored for a single 512-
// byte sector, using the standard Ethernet CRC-32 polynomial with an
// initial value of 0, as mandated by §3 and §6.
func ComputeCRC(sector []byte) uint32 {
	return crc32.ChecksumIEEE(sector)
}
