package led

import (
	"fmt"
	"log/slog"
)

// noop accepts the usual indicator names and does nothing with them.
type noop struct {
	logger *slog.Logger
}

// NewNoop returns a controller for boards without front panel LEDs.
func NewNoop(logger *slog.Logger) Controller {
	return &noop{logger: logger}
}

func (n *noop) Set(name string, on bool) error {
	if name != Power && name != Status {
		return fmt.Errorf("%w %q", ErrUnknownLED, name)
	}
	n.logger.Debug("LED control not available (no-op)", "led", name, "on", on)
	return nil
}

func (n *noop) Available() []string {
	return []string{Power, Status}
}

func (n *noop) Path(string) string {
	return ""
}
