package power

import "errors"

// ErrorCode classifies power control failures.
type ErrorCode string

const (
	// ErrDeviceOpen means the GPIO chip could not be opened or enumerated.
	ErrDeviceOpen ErrorCode = "DEVICE_OPEN_FAILED"
	// ErrLineNotFound means a node enable line is missing from the chip.
	ErrLineNotFound ErrorCode = "LINE_NOT_FOUND"
	// ErrLineRequest means the kernel refused to hand out a line.
	ErrLineRequest ErrorCode = "LINE_REQUEST_FAILED"
	// ErrAttributeWrite means a sysfs state or brightness write failed.
	ErrAttributeWrite ErrorCode = "ATTRIBUTE_WRITE_FAILED"
	// ErrLineSet means driving an enable line failed.
	ErrLineSet ErrorCode = "LINE_SET_FAILED"
	// ErrInvalidNode means a node number outside 1-4.
	ErrInvalidNode ErrorCode = "INVALID_NODE"
)

// Error is a power control failure. Target names the path, line or node
// involved.
type Error struct {
	Code    ErrorCode
	Message string
	Target  string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Target != "" {
		msg += " (" + e.Target + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode reports whether err wraps an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Code == code
}

// CodeOf returns the code of the *Error wrapped by err, or "" if none.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// TargetOf returns the target of the *Error wrapped by err, or "" if none.
func TargetOf(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Target
	}
	return ""
}
