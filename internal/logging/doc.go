// Package logging provides structured logging with per-module log levels.
//
// Output goes to stdout when a terminal, pipe, or file is attached and to the
// systemd journal when journald is reachable. Both are used when both exist.
//
// Call Initialize once at startup, before modules fetch their loggers; the
// output format is taken from that first call:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"gpio": "debug",
//		},
//	})
//
//	logger := logging.GetLogger("power")
//	logger.Info("Node enabled", "node", 2)
//
// Calling Initialize again (for example from the config watcher) changes
// levels of loggers already handed out.
//
// Modules used by nodepower: main, power, gpio, led, api, http, config,
// systemd, metrics.
//
// Journal entries carry SYSLOG_IDENTIFIER=nodepower and one field per
// attribute:
//
//	journalctl -t nodepower -f
//	journalctl -t nodepower MODULE=power NODE=3
//
// TOML:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	gpio = "debug"
//	http = "warn"
package logging
