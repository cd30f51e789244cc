// Package led drives the front panel power and status indicators through
// their sysfs brightness attributes.
package led

import "errors"

// Indicator names.
const (
	Power  = "power"
	Status = "status"
)

// ErrUnknownLED is returned by Set for names the controller does not drive.
var ErrUnknownLED = errors.New("unknown led")

// Controller switches indicators on and off.
type Controller interface {
	// Set turns the named indicator on or off.
	Set(name string, on bool) error

	// Available lists the indicator names this controller drives.
	Available() []string

	// Path returns the attribute written for name, or "" if there is none.
	Path(name string) string
}

// Brightness returns the value written to a brightness attribute.
func Brightness(on bool) string {
	if on {
		return "1"
	}
	return "0"
}
