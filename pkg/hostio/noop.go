package hostio

import "context"

// NoopRegistrar is a LogicalDeviceRegistrar that performs no host
// interaction, for environments (tests, and any host without the
// reference block subsystem) that only need the engine's lifecycle to
// run without a real registration side effect.
type NoopRegistrar struct{}

func (NoopRegistrar) Reserve(ctx context.Context, identity LogicalDeviceIdentity) error   { return nil }
func (NoopRegistrar) Publish(ctx context.Context, identity LogicalDeviceIdentity) error   { return nil }
func (NoopRegistrar) Unpublish(ctx context.Context, identity LogicalDeviceIdentity) error { return nil }
func (NoopRegistrar) Release(ctx context.Context, identity LogicalDeviceIdentity) error   { return nil }
