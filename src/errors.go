package ax25

import (
	"errors"
	"fmt"
)

var (
	ErrAddressLength        = errors.New("address must be 7 bytes")
	ErrCallsign             = errors.New("invalid callsign")
	ErrSSID                 = errors.New("invalid SSID")
	ErrFrameTooShort        = errors.New("frame too short")
	ErrAddressNotTerminated = errors.New("address field not terminated")
	ErrMissingDelimiter     = errors.New("missing delimiter")
	ErrKISSEscape           = errors.New("bad KISS escape sequence")
	ErrFlagInFrame          = errors.New("frame contains HDLC flag octet")
	ErrKISSTooLong          = errors.New("KISS message exceeded maximum length")
)

// FormatError reports input that cannot be a valid Address or Frame.
// Err is one of the sentinel errors above, so callers can use errors.Is.
type FormatError struct {
	Err    error
	Detail string
}

func (e *FormatError) Error() string {
	if e.Detail == "" {
		return "ax25: " + e.Err.Error()
	}

	return "ax25: " + e.Err.Error() + ": " + e.Detail
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatError(err error, format string, a ...any) *FormatError {
	return &FormatError{Err: err, Detail: fmt.Sprintf(format, a...)}
}

// ChecksumError is a complete frame whose FCS does not match its contents.
// Frame holds the raw span between the flags, FCS included.
type ChecksumError struct {
	Frame    []byte
	Computed uint16
	Received uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("ax25: FCS did not match for %x (computed 0x%04x, received 0x%04x)", e.Frame, e.Computed, e.Received)
}
