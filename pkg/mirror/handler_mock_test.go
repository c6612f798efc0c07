package mirror_test

import (
	"context"
	"testing"

	"github.com/dualmirror/ssr/internal/layout"
	blockiomock "github.com/dualmirror/ssr/pkg/blockio/mock"
	"github.com/dualmirror/ssr/pkg/mirror"
	"go.uber.org/mock/gomock"
)

// TestHandleWriteIssuesToBothDevices exercises the write path against
// mocked devices to pin down exactly what the handler asks of its two
// collaborators, in the same gomock.Controller/EXPECT() style the
// teacher pack uses for its BlobAccess mocks.
func TestHandleWriteIssuesToBothDevices(t *testing.T) {
	ctrl := gomock.NewController(t)

	dev0 := blockiomock.NewMockDevice(ctrl)
	dev1 := blockiomock.NewMockDevice(ctrl)

	payload := make([]byte, layout.SectorSize)
	for i := range payload {
		payload[i] = 0x5A
	}

	dev0.EXPECT().WriteAt(gomock.Any(), payload, int64(7)).Return(nil)
	dev1.EXPECT().WriteAt(gomock.Any(), payload, int64(7)).Return(nil)
	// The CRC slab for the written sector is loaded from device 0 only
	// (Open Question 1), then stored back to both devices.
	dev0.EXPECT().ReadAt(gomock.Any(), gomock.Any(), layout.CRCSectorOf(7)).DoAndReturn(
		func(ctx context.Context, p []byte, sector int64) error { return nil })
	dev0.EXPECT().WriteAt(gomock.Any(), gomock.Any(), layout.CRCSectorOf(7)).Return(nil)
	dev1.EXPECT().WriteAt(gomock.Any(), gomock.Any(), layout.CRCSectorOf(7)).Return(nil)

	h := mirror.NewHandler(dev0, dev1)
	req := &mirror.Request{
		Direction:   mirror.Write,
		StartSector: 7,
		Segments:    []mirror.Segment{{Page: payload, Offset: 0, Length: len(payload)}},
	}
	if err := h.HandleWrite(context.Background(), req); err != nil {
		t.Fatalf("HandleWrite failed: %v", err)
	}
}
