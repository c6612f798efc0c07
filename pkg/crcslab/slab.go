// Package crcslab implements the CRC Slab: an in-memory buffer holding
// one or two adjacent CRC sectors, with slot-level get/set addressed by
// logical sector number.
package crcslab

import (
	"context"
	"encoding/binary"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/blockio"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Slab holds one or two adjacent CRC sectors loaded from a device, and
// tracks which of them have been modified since loading.
type Slab struct {
	sectors []int64
	data    [][]byte // one []byte of layout.SectorSize per entry in sectors
	dirty   []bool
}

// Load reads a single CRC sector from device d.
func Load(ctx context.Context, d blockio.Device, crcSector int64) (*Slab, error) {
	page, err := blockio.NewPage(layout.SectorSize)
	if err != nil {
		return nil, err
	}
	if err := blockio.ReadPage(ctx, d, crcSector, page, 0, len(page)); err != nil {
		return nil, err
	}
	return &Slab{
		sectors: []int64{crcSector},
		data:    [][]byte{page},
		dirty:   []bool{false},
	}, nil
}

// LoadSpan reads the one or two adjacent CRC sectors that cover the
// data-sector range [l, l+n) from device d.
func LoadSpan(ctx context.Context, d blockio.Device, l, n int64) (*Slab, error) {
	sectors := layout.CRCSpan(l, n)
	s := &Slab{
		sectors: sectors,
		data:    make([][]byte, len(sectors)),
		dirty:   make([]bool, len(sectors)),
	}
	for i, crcSector := range sectors {
		page, err := blockio.NewPage(layout.SectorSize)
		if err != nil {
			return nil, err
		}
		if err := blockio.ReadPage(ctx, d, crcSector, page, 0, len(page)); err != nil {
			return nil, err
		}
		s.data[i] = page
	}
	return s, nil
}

func (s *Slab) indexOf(l int64) (int, error) {
	crcSector := layout.CRCSectorOf(l)
	for i, sec := range s.sectors {
		if sec == crcSector {
			return i, nil
		}
	}
	return 0, status.Errorf(codes.Internal, "logical sector %d's CRC sector %d is not covered by this slab", l, crcSector)
}

// Get returns the CRC stored for logical sector l.
func (s *Slab) Get(l int64) (uint32, error) {
	i, err := s.indexOf(l)
	if err != nil {
		return 0, err
	}
	off := layout.CRCSlotByteOffset(l)
	return binary.LittleEndian.Uint32(s.data[i][off : off+4]), nil
}

// Set stores v as the CRC for logical sector l and marks the owning
// CRC sector dirty.
func (s *Slab) Set(l int64, v uint32) error {
	i, err := s.indexOf(l)
	if err != nil {
		return err
	}
	off := layout.CRCSlotByteOffset(l)
	binary.LittleEndian.PutUint32(s.data[i][off:off+4], v)
	s.dirty[i] = true
	return nil
}

// Dirty reports whether any CRC sector in the slab has been modified
// since it was loaded.
func (s *Slab) Dirty() bool {
	for _, d := range s.dirty {
		if d {
			return true
		}
	}
	return false
}

// Store writes every CRC sector that has been modified since loading
// back to device d. It does not clear the dirty flags, so the same
// slab may be stored to more than one device (the write path, per
// §4.6 step 4, stores the recomputed slab to both backing devices).
func Store(ctx context.Context, d blockio.Device, s *Slab) error {
	for i, sec := range s.sectors {
		if !s.dirty[i] {
			continue
		}
		if err := blockio.WritePage(ctx, d, sec, s.data[i], 0, len(s.data[i])); err != nil {
			return err
		}
	}
	return nil
}
