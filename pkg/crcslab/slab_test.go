package crcslab_test

import (
	"context"
	"testing"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/blockio"
	"github.com/dualmirror/ssr/pkg/crcslab"
	"github.com/stretchr/testify/require"
)

func newCRCDevice(t *testing.T) *blockio.MemDevice {
	t.Helper()
	return blockio.NewMemDevice(layout.LogicalSectors + layout.CRCSectors)
}

func TestLoadGetSetStoreSingleSector(t *testing.T) {
	ctx := context.Background()
	dev := newCRCDevice(t)

	slab, err := crcslab.Load(ctx, dev, layout.CRCSectorOf(5))
	require.NoError(t, err)
	require.False(t, slab.Dirty())

	v, err := slab.Get(5)
	require.NoError(t, err)
	require.Equal(t, uint32(0), v)

	require.NoError(t, slab.Set(5, 0xDEADBEEF))
	require.True(t, slab.Dirty())

	require.NoError(t, crcslab.Store(ctx, dev, slab))

	reread, err := crcslab.Load(ctx, dev, layout.CRCSectorOf(5))
	require.NoError(t, err)
	v, err = reread.Get(5)
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v)
}

func TestLoadSpanStraddlesBoundary(t *testing.T) {
	ctx := context.Background()
	dev := newCRCDevice(t)

	slab, err := crcslab.LoadSpan(ctx, dev, 127, 2)
	require.NoError(t, err)

	require.NoError(t, slab.Set(127, 111))
	require.NoError(t, slab.Set(128, 222))
	require.NoError(t, crcslab.Store(ctx, dev, slab))

	reread, err := crcslab.LoadSpan(ctx, dev, 127, 2)
	require.NoError(t, err)
	v127, err := reread.Get(127)
	require.NoError(t, err)
	v128, err := reread.Get(128)
	require.NoError(t, err)
	require.Equal(t, uint32(111), v127)
	require.Equal(t, uint32(222), v128)
}

func TestLoadSpanWithinOneSectorIsSingleEntry(t *testing.T) {
	ctx := context.Background()
	dev := newCRCDevice(t)

	slab, err := crcslab.LoadSpan(ctx, dev, 1024, 50)
	require.NoError(t, err)
	require.NoError(t, slab.Set(1024, 1))
	require.NoError(t, slab.Set(1073, 2))
	require.NoError(t, crcslab.Store(ctx, dev, slab))

	reread, err := crcslab.LoadSpan(ctx, dev, 1024, 50)
	require.NoError(t, err)
	v1, err := reread.Get(1024)
	require.NoError(t, err)
	v2, err := reread.Get(1073)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v1)
	require.Equal(t, uint32(2), v2)
}

func TestGetSetOutOfSpanIsRejected(t *testing.T) {
	ctx := context.Background()
	dev := newCRCDevice(t)

	slab, err := crcslab.Load(ctx, dev, layout.CRCSectorOf(5))
	require.NoError(t, err)

	_, err = slab.Get(1000)
	require.Error(t, err)
	require.Error(t, slab.Set(1000, 1))
}

func TestStoreOnlyWritesDirtySectorsAndCanTargetAnotherDevice(t *testing.T) {
	ctx := context.Background()
	dev0 := newCRCDevice(t)
	dev1 := newCRCDevice(t)

	// Seed device 1's second CRC sector, which the slab below covers
	// but never modifies, so that storing it would be visible.
	seed, err := crcslab.Load(ctx, dev1, layout.CRCSectorOf(128))
	require.NoError(t, err)
	require.NoError(t, seed.Set(128, 9))
	require.NoError(t, crcslab.Store(ctx, dev1, seed))

	slab, err := crcslab.LoadSpan(ctx, dev0, 127, 2)
	require.NoError(t, err)
	require.NoError(t, slab.Set(127, 7))

	// Store the same slab to both devices without reloading, as the
	// write path does.
	require.NoError(t, crcslab.Store(ctx, dev0, slab))
	require.NoError(t, crcslab.Store(ctx, dev1, slab))

	for _, dev := range []*blockio.MemDevice{dev0, dev1} {
		reread, err := crcslab.LoadSpan(ctx, dev, 127, 2)
		require.NoError(t, err)
		v, err := reread.Get(127)
		require.NoError(t, err)
		require.Equal(t, uint32(7), v)
	}

	reread, err := crcslab.Load(ctx, dev1, layout.CRCSectorOf(128))
	require.NoError(t, err)
	v, err := reread.Get(128)
	require.NoError(t, err)
	require.Equal(t, uint32(9), v)
}
