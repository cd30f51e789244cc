package power

import (
	"github.com/smazurov/nodepower/internal/led"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/smazurov/nodepower/internal/sysfs"
	"github.com/spf13/afero"
)

// Config selects the hardware a Controller is opened on.
type Config struct {
	// Latching selects the GPIO chip of latching board revisions.
	Latching bool
	// Simulate uses in-memory lines and attributes instead of hardware.
	Simulate bool
	// Consumer labels the requested lines; DefaultConsumer if empty.
	Consumer string
	// NoLEDs is for boards without front panel indicators. LED requests
	// succeed without touching sysfs.
	NoLEDs bool
}

// Open requests the enable lines, resolves the indicator paths and returns
// a ready Controller. Nothing is held if it fails.
func Open(cfg Config, opts ...Option) (*Controller, error) {
	logger := logging.GetLogger("gpio")

	consumer := cfg.Consumer
	if consumer == "" {
		consumer = DefaultConsumer
	}

	var (
		lines [NodeCount]Line
		fs    afero.Fs
	)
	if cfg.Simulate {
		logger.Warn("Simulating enable lines and sysfs attributes")
		lines = SimulatedLines()
		fs = NewSimulatedFS()
	} else {
		chip := ChipPath(cfg.Latching)
		var err error
		if lines, err = OpenEnableLines(chip, consumer); err != nil {
			return nil, err
		}
		logger.Info("Enable lines requested", "chip", chip, "consumer", consumer)
		fs = afero.NewOsFs()
	}

	var leds led.Controller
	if cfg.NoLEDs {
		logger.Info("Front panel indicators disabled")
		leds = led.NewNoop(logging.GetLogger("led"))
	} else {
		leds = led.New(fs, logging.GetLogger("led"))
	}
	opts = append([]Option{WithAttributeWriter(sysfs.New(fs))}, opts...)
	return New(lines, leds, opts...), nil
}
