package dispatch_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/blockio"
	"github.com/dualmirror/ssr/pkg/dispatch"
	"github.com/dualmirror/ssr/pkg/mirror"
	"github.com/stretchr/testify/require"
)

func newHandler() *mirror.Handler {
	n := layout.LogicalSectors + layout.CRCSectors
	return mirror.NewHandler(blockio.NewMemDevice(n), blockio.NewMemDevice(n))
}

func writeReq(sector int64, b byte) *mirror.Request {
	page := make([]byte, layout.SectorSize)
	for i := range page {
		page[i] = b
	}
	return &mirror.Request{Direction: mirror.Write, StartSector: sector,
		Segments: []mirror.Segment{{Page: page, Offset: 0, Length: layout.SectorSize}}}
}

// P6: given concurrent submissions R1, R2, R3, completions are
// delivered in the order R1, R2, R3.
func TestSubmitCompletesInSubmissionOrder(t *testing.T) {
	d := dispatch.New(newHandler(), 32)
	d.Start(context.Background())
	defer d.Stop()

	const n = 20
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		i := i
		require.NoError(t, d.Submit(writeReq(int64(i), byte(i)), func(err error) {
			require.NoError(t, err)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			wg.Done()
		}))
	}
	wg.Wait()

	want := make([]int, n)
	for i := range want {
		want[i] = i
	}
	require.Equal(t, want, order)
}

// Submitting past the queue's capacity fails closed with
// codes.ResourceExhausted rather than blocking the submitter.
func TestSubmitFailsClosedWhenQueueIsFull(t *testing.T) {
	d := dispatch.New(newHandler(), 1)

	// No Start call: nothing drains the queue, so the first Submit
	// fills it and the second must be rejected immediately.
	require.NoError(t, d.Submit(writeReq(0, 1), func(error) {}))
	err := d.Submit(writeReq(1, 2), func(error) {})
	require.Error(t, err)
}

// An invalid request is rejected by Submit itself and never reaches
// the worker.
func TestSubmitRejectsInvalidRequest(t *testing.T) {
	d := dispatch.New(newHandler(), 4)
	req := &mirror.Request{Direction: mirror.Write, StartSector: -1}
	err := d.Submit(req, func(error) {})
	require.Error(t, err)
}
