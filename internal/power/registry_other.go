//go:build !linux

package power

import "errors"

var errUnsupported = errors.New("gpio character device not supported on this platform")

// OpenEnableLines always fails off Linux.
func OpenEnableLines(chip, _ string) ([NodeCount]Line, error) {
	return [NodeCount]Line{}, &Error{Code: ErrDeviceOpen, Message: "cannot open gpio chip", Target: chip, Cause: errUnsupported}
}

// ListLines always fails off Linux.
func ListLines(chip string) ([]LineInfo, error) {
	return nil, &Error{Code: ErrDeviceOpen, Message: "cannot open gpio chip", Target: chip, Cause: errUnsupported}
}
