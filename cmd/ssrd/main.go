// Command ssrd is the composition root for the mirrored block storage
// engine: it parses the two backing device paths and the metrics
// listen address, brings the engine up per §4.8, serves Prometheus
// metrics, and waits for a termination signal to tear it back down.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dualmirror/ssr/pkg/engine"
	"github.com/dualmirror/ssr/pkg/hostio"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	var (
		backingPath0  = flag.String("backing_device0", "/dev/vdb", "Path of the first backing device")
		backingPath1  = flag.String("backing_device1", "/dev/vdc", "Path of the second backing device")
		metricsAddr   = flag.String("metrics_listen_address", ":9394", "Address to serve Prometheus metrics on")
		dispatchQueue = flag.Int("dispatch_queue_capacity", 64, "Maximum number of work items the dispatcher may hold before rejecting submissions")
	)
	flag.Parse()

	cfg := engine.Config{
		Identity:      hostio.DefaultIdentity,
		BackingPaths:  [2]string{*backingPath0, *backingPath1},
		Registrar:     hostio.NoopRegistrar{},
		Opener:        hostio.OSFileOpener{},
		DispatchQueue: *dispatchQueue,
	}
	e := engine.New(cfg)

	ctx := context.Background()
	if err := e.Start(ctx); err != nil {
		log.Fatalf("ssr: failed to start logical device %q: %v", cfg.Identity.Name, err)
	}
	log.Printf("ssr: logical device %q started over %q and %q", cfg.Identity.Name, *backingPath0, *backingPath1)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: *metricsAddr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("ssr: metrics server stopped: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("ssr: shutting down")
	if err := server.Close(); err != nil {
		log.Printf("ssr: error closing metrics server: %v", err)
	}
	if err := e.Stop(ctx); err != nil {
		log.Fatalf("ssr: failed to stop logical device cleanly: %v", err)
	}
}
