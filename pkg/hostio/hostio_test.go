package hostio_test

import (
	"context"
	"os"
	"testing"

	"github.com/dualmirror/ssr/internal/layout"
	"github.com/dualmirror/ssr/pkg/hostio"
	"github.com/stretchr/testify/require"
)

func TestOSFileOpenerRoundTrip(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "ssr-backing-*")
	require.NoError(t, err)
	require.NoError(t, f.Truncate(layout.SectorSize*4))
	require.NoError(t, f.Close())

	var opener hostio.OSFileOpener
	dev, err := opener.Open(context.Background(), f.Name())
	require.NoError(t, err)
	defer dev.Close()

	payload := []byte("0123456789abcdef")
	page := make([]byte, layout.SectorSize)
	copy(page, payload)

	require.NoError(t, dev.WriteAt(context.Background(), page, 1))
	got := make([]byte, layout.SectorSize)
	require.NoError(t, dev.ReadAt(context.Background(), got, 1))
	require.Equal(t, page, got)
}

func TestOSFileOpenerRejectsMissingFile(t *testing.T) {
	var opener hostio.OSFileOpener
	_, err := opener.Open(context.Background(), "/nonexistent/path/does-not-exist")
	require.Error(t, err)
}

func TestNoopRegistrarNeverErrors(t *testing.T) {
	var r hostio.NoopRegistrar
	ctx := context.Background()
	require.NoError(t, r.Reserve(ctx, hostio.DefaultIdentity))
	require.NoError(t, r.Publish(ctx, hostio.DefaultIdentity))
	require.NoError(t, r.Unpublish(ctx, hostio.DefaultIdentity))
	require.NoError(t, r.Release(ctx, hostio.DefaultIdentity))
}
