// Package cmd holds the one-shot subcommands of nodepower. Each opens the
// hardware, performs one operation and exits.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/nodepower/internal/config"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/smazurov/nodepower/internal/power"
	"github.com/spf13/cobra"
)

// Hardware is what the subcommands drive. *power.Controller implements it.
type Hardware interface {
	SetPowerNode(ctx context.Context, state, mask uint8) error
	ResetNode(ctx context.Context, node power.NodeID) error
	SetLED(ctx context.Context, name string, on bool) error
	Close() error
}

// openHardware is replaced in tests.
var openHardware = func(cfg power.Config) (Hardware, error) {
	return power.Open(cfg)
}

// listLines is replaced in tests.
var listLines = power.ListLines

// boardOptions are shared by every subcommand. The config file and
// NODEPOWER_* variables fill in whatever is not given as a flag.
type boardOptions struct {
	Config     string
	Latching   bool   `toml:"board.latching" env:"BOARD_LATCHING"`
	Simulate   bool   `toml:"board.simulate" env:"BOARD_SIMULATE"`
	Consumer   string `toml:"board.consumer" env:"BOARD_CONSUMER"`
	Indicators bool   `toml:"board.indicators" env:"BOARD_INDICATORS"`
	Verbose    bool
}

func addBoardFlags(cmd *cobra.Command, opts *boardOptions) {
	cmd.Flags().BoolVar(&opts.Latching, "latching", false, "Board uses the latching GPIO chip ("+power.LatchingChip+")")
	cmd.Flags().BoolVar(&opts.Simulate, "simulate", false, "Use in-memory lines and attributes instead of hardware")
	cmd.Flags().StringVar(&opts.Consumer, "consumer", power.DefaultConsumer, "Consumer label for requested GPIO lines")
	cmd.Flags().BoolVar(&opts.Indicators, "indicators", true, "Board has front panel power and status LEDs")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every hardware step")
}

// prepare loads configuration and logging for a subcommand.
func prepare(cmd *cobra.Command, opts *boardOptions) error {
	if f := cmd.Flag("config"); f != nil {
		opts.Config = f.Value.String()
	}
	if err := config.LoadConfig(opts, cmd); err != nil {
		return err
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	logging.Initialize(logging.Config{Level: level, Format: "text"})
	return nil
}

func (o *boardOptions) power() power.Config {
	return power.Config{Latching: o.Latching, Simulate: o.Simulate, Consumer: o.Consumer, NoLEDs: !o.Indicators}
}

// withHardware opens the controller, runs fn and releases the lines.
// Ctrl-C cancels fn between hardware steps.
func withHardware(cmd *cobra.Command, opts *boardOptions, fn func(context.Context, Hardware) error) error {
	if err := prepare(cmd, opts); err != nil {
		return err
	}

	hw, err := openHardware(opts.power())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := hw.Close(); closeErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, hw)
}
