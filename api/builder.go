package api

import "github.com/sarchlab/digitaljs/engine"

// DriverBuilder creates a new Driver, the chainable value-receiver
// `WithX(...) T` pattern the teacher uses throughout (this file's own
// prior form, and config.DeviceBuilder/cgra-new.FUBuilder).
type DriverBuilder struct {
	host engine.Host
}

// WithHost sets the callback receiver the built driver's engine will
// report every asynchronous result to.
func (b DriverBuilder) WithHost(host engine.Host) DriverBuilder {
	b.host = host
	return b
}

// Build creates a driver backed by a fresh engine.Engine, ignoring name
// (kept for API-shape parity with the teacher's Build(name string); this
// driver has no akita sim.Component identity to name).
func (b DriverBuilder) Build(name string) Driver {
	return &driverImpl{
		eng: engine.New(b.host),
	}
}
