// Package systemd reports service state to systemd through sd_notify.
// Every call is a no-op when the process is not started by systemd.
package systemd

import (
	"context"
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notify is replaced in tests.
var notify = daemon.SdNotify

// watchdogInterval is replaced in tests.
var watchdogInterval = func() (time.Duration, error) {
	return daemon.SdWatchdogEnabled(false)
}

// Ready tells systemd that startup finished (Type=notify units).
func Ready(logger *slog.Logger) {
	send(logger, daemon.SdNotifyReady)
}

// Stopping tells systemd that shutdown began.
func Stopping(logger *slog.Logger) {
	send(logger, daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func Status(logger *slog.Logger, status string) {
	send(logger, "STATUS="+status)
}

func send(logger *slog.Logger, state string) {
	sent, err := notify(false, state)
	switch {
	case err != nil:
		logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		logger.Debug("sd_notify sent", "state", state)
	}
}

// Watchdog pings the systemd watchdog at half of WatchdogSec until ctx is
// done. It returns immediately when the unit has no watchdog configured.
func Watchdog(ctx context.Context, logger *slog.Logger) {
	interval, err := watchdogInterval()
	if err != nil {
		logger.Warn("Cannot read watchdog settings", "error", err)
		return
	}
	if interval == 0 {
		return
	}

	period := interval / 2
	logger.Info("Systemd watchdog enabled", "interval", interval, "ping_every", period)

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			send(logger, daemon.SdNotifyWatchdog)
		}
	}
}
