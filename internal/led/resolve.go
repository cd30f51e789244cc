package led

import (
	"log/slog"

	"github.com/smazurov/nodepower/internal/sysfs"
)

// Brightness attributes of the front panel indicators. Older device trees
// expose the same LEDs under the fallback names.
const (
	PowerPath          = "/sys/class/leds/fp::power/brightness"
	PowerFallbackPath  = "/sys/class/leds/fp:sys/brightness"
	StatusPath         = "/sys/class/leds/fp::status/brightness"
	StatusFallbackPath = "/sys/class/leds/fp:reset/brightness"
)

// Resolve returns primary if it exists, otherwise fallback. The fallback is
// not checked; a missing one surfaces on the first write.
func Resolve(attrs *sysfs.FS, primary, fallback string, logger *slog.Logger) string {
	if attrs.Exists(primary) {
		return primary
	}
	logger.Info("LED attribute missing, falling back", "path", primary, "fallback", fallback)
	return fallback
}
