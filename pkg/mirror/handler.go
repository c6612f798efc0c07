package mirror

import (
	"context"
	"log"
	"sync"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/blockio"
	"github.com/dualmirror/ssr/pkg/crcslab"
	"github.com/dualmirror/ssr/pkg/verify"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	mirrorPrometheusMetrics sync.Once

	repairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ssr",
			Subsystem: "mirror",
			Name:      "repairs_total",
			Help:      "Number of sectors repaired by copying from the surviving mirror, by repaired device.",
		},
		[]string{"device"})
	bothBadAbortsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ssr",
			Subsystem: "mirror",
			Name:      "both_bad_aborts_total",
			Help:      "Number of read requests aborted because a sector was corrupt on both devices.",
		})
)

func registerMetrics() {
	mirrorPrometheusMetrics.Do(func() {
		prometheus.MustRegister(repairsTotal)
		prometheus.MustRegister(bothBadAbortsTotal)
	})
}

// Handler is the Request Handler (§4.5/§4.6): it implements the read
// and write paths over exactly two backing devices.
type Handler struct {
	dev0, dev1 blockio.Device
}

// NewHandler constructs a Handler over the two backing devices. Both
// devices must already satisfy I1 (§3) except where bit-rot has
// affected exactly one of them.
func NewHandler(dev0, dev1 blockio.Device) *Handler {
	registerMetrics()
	return &Handler{dev0: dev0, dev1: dev1}
}

// HandleRead implements the read path (§4.5). It iterates the
// request's segments in logical-sector order, for each one reading
// both mirrors plus their CRCs, verifying and repairing, and copying
// the verified-good content into the caller's segment page.
func (h *Handler) HandleRead(ctx context.Context, req *Request) error {
	if req.Direction != Read {
		panic("HandleRead called with a non-read request")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	sector := req.StartSector
	for _, seg := range req.Segments {
		n := seg.Length
		sectorCount := seg.sectorCount()

		page0, err := blockio.NewPage(n)
		if err != nil {
			return err
		}
		page1, err := blockio.NewPage(n)
		if err != nil {
			return err
		}

		var slab0, slab1 *crcslab.Slab
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return blockio.ReadPage(gctx, h.dev0, sector, page0, 0, n) })
		g.Go(func() error { return blockio.ReadPage(gctx, h.dev1, sector, page1, 0, n) })
		g.Go(func() error {
			var err error
			slab0, err = crcslab.LoadSpan(gctx, h.dev0, sector, sectorCount)
			return err
		})
		g.Go(func() error {
			var err error
			slab1, err = crcslab.LoadSpan(gctx, h.dev1, sector, sectorCount)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		crc0 := make([]uint32, sectorCount)
		crc1 := make([]uint32, sectorCount)
		for i := int64(0); i < sectorCount; i++ {
			v0, err := slab0.Get(sector + i)
			if err != nil {
				return err
			}
			v1, err := slab1.Get(sector + i)
			if err != nil {
				return err
			}
			crc0[i] = v0
			crc1[i] = v1
		}

		res, err := verify.VerifyAndRepair(sector, page0, page1, crc0, crc1)
		if err != nil {
			bothBadAbortsTotal.Inc()
			log.Printf("ssr: read of sectors %s aborted: %v", layout.Range{Start: sector, Count: sectorCount}, err)
			return err
		}

		if res.Dirty0 {
			log.Printf("ssr: repairing device 0 sectors %s from device 1", layout.Range{Start: sector, Count: sectorCount})
			for _, rc := range res.RepairedCRC0 {
				if err := slab0.Set(rc.Sector, rc.CRC); err != nil {
					return err
				}
			}
			if err := blockio.WritePage(ctx, h.dev0, sector, page0, 0, n); err != nil {
				return err
			}
			if err := crcslab.Store(ctx, h.dev0, slab0); err != nil {
				return err
			}
			repairsTotal.WithLabelValues("0").Add(float64(len(res.RepairedCRC0)))
		}
		if res.Dirty1 {
			log.Printf("ssr: repairing device 1 sectors %s from device 0", layout.Range{Start: sector, Count: sectorCount})
			for _, rc := range res.RepairedCRC1 {
				if err := slab1.Set(rc.Sector, rc.CRC); err != nil {
					return err
				}
			}
			if err := blockio.WritePage(ctx, h.dev1, sector, page1, 0, n); err != nil {
				return err
			}
			if err := crcslab.Store(ctx, h.dev1, slab1); err != nil {
				return err
			}
			repairsTotal.WithLabelValues("1").Add(float64(len(res.RepairedCRC1)))
		}

		// page0 is the canonical good copy regardless of whether a
		// repair happened: every surviving sector in it either was
		// already good, or was just overwritten from device 1.
		copy(seg.bytes(), page0)

		sector += sectorCount
	}
	return nil
}

// HandleWrite implements the write path (§4.6). It iterates the
// request's segments in logical-sector order, writing each segment's
// source page directly to both devices (no intermediate buffering: the
// write path trusts its caller), then recomputes and stores the CRC
// for every written sector on both devices.
//
// Open Question 1 (§9) is resolved here by loading the CRC slab from
// device 0 only, as the spec's own description of the write path does;
// loading from both and merging slot-by-slot was left open by the spec
// and is not implemented.
func (h *Handler) HandleWrite(ctx context.Context, req *Request) error {
	if req.Direction != Write {
		panic("HandleWrite called with a non-write request")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	sector := req.StartSector
	for _, seg := range req.Segments {
		n := seg.Length
		sectorCount := seg.sectorCount()
		src := seg.bytes()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return blockio.WritePage(gctx, h.dev0, sector, src, 0, n) })
		g.Go(func() error { return blockio.WritePage(gctx, h.dev1, sector, src, 0, n) })
		if err := g.Wait(); err != nil {
			return err
		}

		slab, err := crcslab.LoadSpan(ctx, h.dev0, sector, sectorCount)
		if err != nil {
			return err
		}
		for i := int64(0); i < sectorCount; i++ {
			sectorBytes := src[i*layout.SectorSize : (i+1)*layout.SectorSize]
			if err := slab.Set(sector+i, verify.ComputeCRC(sectorBytes)); err != nil {
				return err
			}
		}
		if err := crcslab.Store(ctx, h.dev0, slab); err != nil {
			return err
		}
		if err := crcslab.Store(ctx, h.dev1, slab); err != nil {
			return err
		}

		sector += sectorCount
	}
	return nil
}
