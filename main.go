package main

import (
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/nodepower/cmd"
	"github.com/smazurov/nodepower/internal/config"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/spf13/cobra"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Board settings
	BoardLatching   bool   `help:"Board uses the latching GPIO chip (gpiochip1)" default:"false" toml:"board.latching" env:"BOARD_LATCHING"`
	BoardSimulate   bool   `help:"Use in-memory lines and attributes instead of hardware" default:"false" toml:"board.simulate" env:"BOARD_SIMULATE"`
	BoardConsumer   string `help:"Consumer label for requested GPIO lines" default:"nodepower" toml:"board.consumer" env:"BOARD_CONSUMER"`
	BoardIndicators bool   `help:"Board has front panel power and status LEDs" default:"true" toml:"board.indicators" env:"BOARD_INDICATORS"`

	// Auth settings. Auth is off while the username is empty.
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Metrics settings
	MetricsPrometheusEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.prometheus_enabled" env:"METRICS_PROMETHEUS_ENABLED"`

	// Features settings
	FeaturesStatusLEDFollowsNodes bool `help:"Light the status LED while any node is on; overrides manual status LED changes on the next node power change" default:"false" toml:"features.status_led_follows_nodes" env:"FEATURES_STATUS_LED_FOLLOWS_NODES"`
	FeaturesPowerLEDOnStart       bool `help:"Switch the power LED on at startup" default:"true" toml:"features.power_led_on_start" env:"FEATURES_POWER_LED_ON_START"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingMain    string `help:"Main logging level" default:"info" toml:"logging.main" env:"LOGGING_MAIN"`
	LoggingPower   string `help:"Power sequencer logging level" default:"info" toml:"logging.power" env:"LOGGING_POWER"`
	LoggingGPIO    string `help:"GPIO line registry logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingLED     string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP access logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
	LoggingSystemd string `help:"Systemd notify logging level" default:"info" toml:"logging.systemd" env:"LOGGING_SYSTEMD"`
}

func (o *Options) loggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"main":    o.LoggingMain,
			"power":   o.LoggingPower,
			"gpio":    o.LoggingGPIO,
			"led":     o.LoggingLED,
			"api":     o.LoggingAPI,
			"http":    o.LoggingHTTP,
			"config":  o.LoggingConfig,
			"systemd": o.LoggingSystemd,
		},
	}
}

// configure loads opts and sets up logging. A load error is logged only once
// logging has its configured format.
func configure(opts *Options, root *cobra.Command) {
	loadErr := config.LoadConfig(opts, root)
	logging.Initialize(opts.loggingConfig())
	if loadErr != nil {
		logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
	}
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Runs for subcommands too, so nothing here may touch the hardware.
		configure(opts, cli.Root())

		d := newDaemon(opts)
		hooks.OnStart(d.run)
		hooks.OnStop(d.stop)
	})

	cli.Root().Use = "nodepower"
	cli.Root().Short = "Power sequencing for Turing Pi style compute node slots"

	cli.Root().AddCommand(cmd.CreatePowerCmd())
	cli.Root().AddCommand(cmd.CreateResetCmd())
	cli.Root().AddCommand(cmd.CreateLEDCmd())
	cli.Root().AddCommand(cmd.CreateLinesCmd())

	cli.Run()
}
