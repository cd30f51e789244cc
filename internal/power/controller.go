package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/nodepower/internal/events"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/smazurov/nodepower/internal/sysfs"
)

const (
	// SettleDelay separates the state announcement from the line change.
	SettleDelay = 100 * time.Millisecond
	// ResetDelay is how long a node stays off during ResetNode.
	ResetDelay = time.Second

	stateEnabled  = "enabled"
	stateDisabled = "disabled"
)

// StatePath returns the state attribute of the node at index (0-3).
func StatePath(index int) string {
	return fmt.Sprintf("/sys/bus/platform/devices/node%d-power/state", index+1)
}

// Controller drives node power and the front panel indicators.
type Controller struct {
	lines    [NodeCount]Line
	leds     led.Controller
	attrs    AttributeWriter
	clock    clockwork.Clock
	bus      *events.Bus
	recorder Recorder
	logger   *slog.Logger
}

// New builds a Controller over already requested lines, index-aligned with
// nodes 1-4. The controller owns the lines from here on.
func New(lines [NodeCount]Line, leds led.Controller, opts ...Option) *Controller {
	c := &Controller{
		lines:    lines,
		leds:     leds,
		attrs:    sysfs.OS(),
		clock:    clockwork.NewRealClock(),
		recorder: nopRecorder{},
		logger:   logging.GetLogger("power"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LEDs returns the indicator controller.
func (c *Controller) LEDs() led.Controller {
	return c.leds
}

// SetPowerNode applies state to every node selected by mask. Bit n of
// either argument refers to node n+1; bits above node 4 are ignored.
//
// On error, nodes before the failing one have already changed and the
// failing node's line was not driven. If ctx ends during a settle wait the
// in-flight node's line is left alone and ctx.Err() is returned.
func (c *Controller) SetPowerNode(ctx context.Context, state, mask uint8) (err error) {
	start := c.clock.Now()
	defer func() { c.finish(OpSetPower, start, err) }()

	return c.setPower(ctx, state, mask)
}

func (c *Controller) setPower(ctx context.Context, state, mask uint8) error {
	if extra := mask &^ AllNodes; extra != 0 {
		c.logger.Warn("Ignoring mask bits beyond node 4", "mask", fmt.Sprintf("%#02x", mask))
	}

	for index, on := range Bits(state, mask&AllNodes) {
		if err := c.applyNode(ctx, index, on); err != nil {
			return err
		}
	}
	return nil
}

// applyNode announces, settles, then drives one node.
func (c *Controller) applyNode(ctx context.Context, index int, on bool) error {
	node := NodeAt(index)
	path := StatePath(index)

	token, level := stateDisabled, 0
	if on {
		token, level = stateEnabled, 1
	}

	if err := c.attrs.Write(path, token); err != nil {
		return &Error{Code: ErrAttributeWrite, Message: "cannot announce " + node.String() + " state", Target: path, Cause: err}
	}

	if err := c.sleep(ctx, SettleDelay); err != nil {
		c.logger.Warn("Node change interrupted after announcement", "node", int(node), "state", token)
		return err
	}

	if err := c.lines[index].SetValue(level); err != nil {
		return &Error{Code: ErrLineSet, Message: "cannot drive " + node.String() + " enable line", Target: LineNames[index], Cause: err}
	}

	c.logger.Info("Node power set", "node", int(node), "on", on)
	c.recorder.ObserveNode(node, on)
	c.publish(events.NodePowerChangedEvent{Node: int(node), On: on, Timestamp: c.timestamp()})
	return nil
}

// ResetNode powers node off, waits ResetDelay and powers it on again. If
// switching off fails the node is not switched back on.
func (c *Controller) ResetNode(ctx context.Context, node NodeID) (err error) {
	start := c.clock.Now()
	defer func() { c.finish(OpReset, start, err) }()

	if !node.Valid() {
		return &Error{Code: ErrInvalidNode, Message: fmt.Sprintf("node must be 1-%d", NodeCount), Target: node.String()}
	}

	bit := node.Bitfield()
	c.logger.Info("Resetting node", "node", int(node))

	if err := c.setPower(ctx, 0, bit); err != nil {
		return err
	}
	if err := c.sleep(ctx, ResetDelay); err != nil {
		c.logger.Warn("Reset interrupted while node is off", "node", int(node))
		return err
	}
	if err := c.setPower(ctx, bit, bit); err != nil {
		return err
	}

	c.publish(events.NodeResetEvent{Node: int(node), Timestamp: c.timestamp()})
	return nil
}

// PowerLED switches the power indicator.
func (c *Controller) PowerLED(ctx context.Context, on bool) (err error) {
	start := c.clock.Now()
	defer func() { c.finish(OpPowerLED, start, err) }()
	return c.setLED(ctx, led.Power, on)
}

// StatusLED switches the status indicator.
func (c *Controller) StatusLED(ctx context.Context, on bool) (err error) {
	start := c.clock.Now()
	defer func() { c.finish(OpStatusLED, start, err) }()
	return c.setLED(ctx, led.Status, on)
}

// SetLED switches the named indicator. Unknown names yield an error
// wrapping led.ErrUnknownLED.
func (c *Controller) SetLED(ctx context.Context, name string, on bool) error {
	switch name {
	case led.Power:
		return c.PowerLED(ctx, on)
	case led.Status:
		return c.StatusLED(ctx, on)
	default:
		return fmt.Errorf("%w %q", led.ErrUnknownLED, name)
	}
}

func (c *Controller) setLED(ctx context.Context, name string, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := c.leds.Set(name, on); err != nil {
		target := c.leds.Path(name)
		if target == "" {
			target = name
		}
		return &Error{Code: ErrAttributeWrite, Message: "cannot set " + name + " led", Target: target, Cause: err}
	}

	c.logger.Debug("LED set", "led", name, "on", on)
	c.publish(events.LEDChangedEvent{LED: name, On: on, Timestamp: c.timestamp()})
	return nil
}

// Close releases the enable lines. Their levels stay as they are.
func (c *Controller) Close() error {
	var errs []error
	for i, l := range c.lines {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", LineNames[i], err))
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) sleep(ctx context.Context, d time.Duration) error {
	timer := c.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) finish(op string, start time.Time, err error) {
	c.recorder.ObserveOperation(op, c.clock.Since(start), err)
	if err == nil {
		return
	}

	c.logger.Error("Power operation failed", "operation", op, "error", err)

	var pe *Error
	if errors.As(err, &pe) {
		c.publish(events.PowerErrorEvent{
			Operation: op,
			Code:      string(pe.Code),
			Target:    pe.Target,
			Error:     err.Error(),
			Timestamp: c.timestamp(),
		})
	}
}

func (c *Controller) publish(e events.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

func (c *Controller) timestamp() string {
	return c.clock.Now().UTC().Format(time.RFC3339)
}
