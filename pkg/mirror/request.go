// Package mirror implements the Request Handler (§4.5 read path, §4.6
// write path): it drives the layout calculator, page I/O primitive, CRC
// slab, and verify-and-repair engine to turn one incoming request into
// the correct sequence of mirrored, CRC-checked device operations.
package mirror

import (
	"github.com/dualmirror/ssr/internal/layout"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Direction distinguishes a read request from a write request.
type Direction int

const (
	Read Direction = iota
	Write
)

// Segment is one contiguous piece of a request: a caller-owned page and
// the portion of it this segment occupies. Length must be a positive
// multiple of layout.SectorSize.
type Segment struct {
	Page   []byte
	Offset int
	Length int
}

func (s Segment) bytes() []byte {
	return s.Page[s.Offset : s.Offset+s.Length]
}

func (s Segment) sectorCount() int64 {
	return int64(s.Length / layout.SectorSize)
}

// Request is one submitted block I/O operation: a direction, a starting
// logical sector, and one or more segments. Segments are contiguous in
// logical-sector space: the first segment starts at StartSector, and
// each subsequent segment starts immediately after the sectors covered
// by the previous one.
type Request struct {
	Direction   Direction
	StartSector int64
	Segments    []Segment
}

// TotalSectors returns the number of logical sectors this request
// touches, across all segments.
func (r *Request) TotalSectors() int64 {
	var n int64
	for _, seg := range r.Segments {
		n += seg.sectorCount()
	}
	return n
}

// Validate checks the structural preconditions §3/§4.1 place on a
// request: a positive, sector-aligned length per segment, at least one
// segment, and an in-range overall sector span. Per §4.1, an
// out-of-range request is a programming error of the submitter; this
// check exists as defense in depth, not as the primary enforcement
// point (the host block subsystem is expected to reject it first).
func (r *Request) Validate() error {
	if len(r.Segments) == 0 {
		return status.Error(codes.InvalidArgument, "request has no segments")
	}
	for i, seg := range r.Segments {
		if seg.Length <= 0 || seg.Length%layout.SectorSize != 0 {
			return status.Errorf(codes.InvalidArgument, "segment %d length %d is not a positive multiple of %d", i, seg.Length, layout.SectorSize)
		}
		if seg.Offset < 0 || seg.Offset+seg.Length > len(seg.Page) {
			return status.Errorf(codes.InvalidArgument, "segment %d [%d, %d) does not fit in its page of %d bytes", i, seg.Offset, seg.Offset+seg.Length, len(seg.Page))
		}
	}
	return layout.Validate(r.StartSector, r.TotalSectors())
}
