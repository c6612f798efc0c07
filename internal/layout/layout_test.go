package layout_test

import (
	"testing"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	require.Equal(t, int64(194560), int64(layout.LogicalSectors))
	require.Equal(t, int64(1520), layout.CRCSectors)
}

func TestCRCSectorAndSlot(t *testing.T) {
	require.Equal(t, int64(layout.LogicalSectors), layout.CRCSectorOf(0))
	require.Equal(t, int64(0), layout.CRCSlotOf(0))

	require.Equal(t, int64(layout.LogicalSectors), layout.CRCSectorOf(127))
	require.Equal(t, int64(127), layout.CRCSlotOf(127))

	require.Equal(t, int64(layout.LogicalSectors)+1, layout.CRCSectorOf(128))
	require.Equal(t, int64(0), layout.CRCSlotOf(128))

	last := int64(layout.LogicalSectors - 1)
	require.Equal(t, int64(layout.LogicalSectors)+1519, layout.CRCSectorOf(last))
}

func TestCRCSpan(t *testing.T) {
	require.Equal(t, []int64{layout.CRCSectorOf(0)}, layout.CRCSpan(0, 8))

	// A request covering sectors 127 and 128 straddles two CRC
	// sectors.
	span := layout.CRCSpan(127, 2)
	require.Equal(t, []int64{layout.CRCSectorOf(127), layout.CRCSectorOf(128)}, span)
	require.Len(t, span, 2)

	// A request entirely within one CRC sector's coverage collapses to
	// a single entry.
	require.Equal(t, []int64{layout.CRCSectorOf(1024)}, layout.CRCSpan(1024, 100))
}

func TestValidate(t *testing.T) {
	require.NoError(t, layout.Validate(0, 1))
	require.NoError(t, layout.Validate(layout.LogicalSectors-1, 1))
	require.Error(t, layout.Validate(-1, 1))
	require.Error(t, layout.Validate(0, 0))
	require.Error(t, layout.Validate(layout.LogicalSectors-1, 2))
	require.Error(t, layout.Validate(layout.LogicalSectors, 1))
}
