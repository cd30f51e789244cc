package led

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/smazurov/nodepower/internal/sysfs"
	"github.com/spf13/afero"
)

// sysfsLEDs writes "1"/"0" to brightness attributes resolved at construction.
type sysfsLEDs struct {
	attrs  *sysfs.FS
	paths  map[string]string
	logger *slog.Logger
}

// New resolves the power and status indicator paths on fs once and returns
// a controller bound to them.
func New(fs afero.Fs, logger *slog.Logger) Controller {
	attrs := sysfs.New(fs)
	paths := map[string]string{
		Power:  Resolve(attrs, PowerPath, PowerFallbackPath, logger),
		Status: Resolve(attrs, StatusPath, StatusFallbackPath, logger),
	}
	logger.Debug("LED paths resolved", "power", paths[Power], "status", paths[Status])
	return &sysfsLEDs{attrs: attrs, paths: paths, logger: logger}
}

func (s *sysfsLEDs) Set(name string, on bool) error {
	path, ok := s.paths[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownLED, name)
	}
	if err := s.attrs.Write(path, Brightness(on)); err != nil {
		return err
	}
	s.logger.Debug("LED set", "led", name, "on", on, "path", path)
	return nil
}

func (s *sysfsLEDs) Available() []string {
	names := make([]string, 0, len(s.paths))
	for name := range s.paths {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *sysfsLEDs) Path(name string) string {
	return s.paths[name]
}
