// Package engine implements the Device Lifecycle (§4.8): bringing up
// the logical device identity, the two backing devices, and the
// dispatcher in a fixed order, with reverse-order rollback on any
// step's failure, and reverse-order, drain-before-close teardown.
//
// The ordering and all-or-nothing rollback are carried over from the
// reference driver's create_block_device/delete_block_device pair
// (original_source/ssr.c), reworked from C's goto-label unwind into a
// stack of undo closures, which is the idiomatic Go shape for the same
// discipline.
package engine

import (
	"context"

	"github.com/dualmirror/ssr/pkg/dispatch"
	"github.com/dualmirror/ssr/pkg/hostio"
	"github.com/dualmirror/ssr/pkg/mirror"
)

// Config names everything the engine needs to start: the logical
// device identity to register, the paths of the two backing devices
// (§6: reference values /dev/vdb and /dev/vdc), and the collaborators
// that perform host registration and device opening.
type Config struct {
	Identity      hostio.LogicalDeviceIdentity
	BackingPaths  [2]string
	Registrar     hostio.LogicalDeviceRegistrar
	Opener        hostio.BackingDeviceOpener
	DispatchQueue int
}

// Engine owns the fully constructed logical device: the two open
// backing devices and the running dispatcher. It is the unit Start
// brings up and Stop tears down.
type Engine struct {
	cfg        Config
	backing    [2]hostio.Closeable
	dispatcher *dispatch.Dispatcher
}

// New constructs an Engine. It performs no I/O; call Start to bring the
// device up.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Start brings the logical device up in the order §4.8 specifies:
// reserve the logical device identity, open both backing devices,
// create the single-worker executor, publish the logical device. If
// any step fails, every step that already succeeded is undone in
// reverse order before Start returns the triggering error.
func (e *Engine) Start(ctx context.Context) error {
	var undo []func()
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	if err := e.cfg.Registrar.Reserve(ctx, e.cfg.Identity); err != nil {
		return err
	}
	undo = append(undo, func() { e.cfg.Registrar.Release(ctx, e.cfg.Identity) })

	for i, path := range e.cfg.BackingPaths {
		dev, err := e.cfg.Opener.Open(ctx, path)
		if err != nil {
			rollback()
			return err
		}
		e.backing[i] = dev
		i := i
		undo = append(undo, func() { e.backing[i].Close() })
	}

	handler := mirror.NewHandler(e.backing[0], e.backing[1])
	e.dispatcher = dispatch.New(handler, e.cfg.DispatchQueue)
	e.dispatcher.Start(ctx)
	undo = append(undo, func() { e.dispatcher.Stop() })

	if err := e.cfg.Registrar.Publish(ctx, e.cfg.Identity); err != nil {
		rollback()
		return err
	}

	return nil
}

// Dispatcher returns the engine's running dispatcher, the single entry
// point for submitting requests once Start has succeeded.
func (e *Engine) Dispatcher() *dispatch.Dispatcher {
	return e.dispatcher
}

// Stop tears the logical device down in the reverse of Start's order.
// Per §4.8/§5 the executor drains its pending work before the backing
// devices are closed; Dispatcher.Stop already blocks until drained, so
// simply stopping it first and closing devices after satisfies that
// ordering.
func (e *Engine) Stop(ctx context.Context) error {
	if err := e.cfg.Registrar.Unpublish(ctx, e.cfg.Identity); err != nil {
		return err
	}
	if e.dispatcher != nil {
		e.dispatcher.Stop()
	}
	for i := len(e.backing) - 1; i >= 0; i-- {
		if e.backing[i] != nil {
			if err := e.backing[i].Close(); err != nil {
				return err
			}
		}
	}
	return e.cfg.Registrar.Release(ctx, e.cfg.Identity)
}
