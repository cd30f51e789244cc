package power

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/nodepower/internal/events"
)

// AttributeWriter replaces the contents of a sysfs attribute.
type AttributeWriter interface {
	Write(path, value string) error
}

// Operation names reported to a Recorder.
const (
	OpSetPower  = "set_power"
	OpReset     = "reset"
	OpPowerLED  = "power_led"
	OpStatusLED = "status_led"
)

// Recorder observes controller activity, typically for metrics.
type Recorder interface {
	ObserveOperation(op string, elapsed time.Duration, err error)
	ObserveNode(node NodeID, on bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, time.Duration, error) {}
func (nopRecorder) ObserveNode(NodeID, bool) {}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the clock used for settle and reset delays.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithAttributeWriter replaces the sysfs writer for node state attributes.
func WithAttributeWriter(w AttributeWriter) Option {
	return func(c *Controller) {
		c.attrs = w
	}
}

// WithEventBus publishes node, LED and error events on bus.
func WithEventBus(bus *events.Bus) Option {
	return func(c *Controller) {
		c.bus = bus
	}
}

// WithLogger replaces the "power" module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithRecorder reports every operation and node change to r.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}
