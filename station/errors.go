package station

import (
	"errors"
	"fmt"
)

// DeviceUnreachableError indicates that the console did not produce the
// expected reply or a verifiable frame within the configured number of
// attempts.
type DeviceUnreachableError struct {
	// Op is the operation that gave up, e.g. "wake", "loop" or a command verb
	Op string

	// Attempts is the number of tries made before giving up
	Attempts int

	// Err is the failure of the final attempt, when one exists
	Err error
}

func (e *DeviceUnreachableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("console unreachable: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("console unreachable: %s failed after %d attempts", e.Op, e.Attempts)
}

func (e *DeviceUnreachableError) Unwrap() error {
	return e.Err
}

// IsDeviceUnreachable reports whether err is a *DeviceUnreachableError.
func IsDeviceUnreachable(err error) bool {
	var e *DeviceUnreachableError
	return errors.As(err, &e)
}

// NoNewRecordsError indicates that repeated archive downloads produced no
// record newer than the session watermark.
type NoNewRecordsError struct {
	Attempts int
}

func (e *NoNewRecordsError) Error() string {
	return fmt.Sprintf("no new archive records after %d download attempts", e.Attempts)
}

// IsNoNewRecords reports whether err is a *NoNewRecordsError.
func IsNoNewRecords(err error) bool {
	var e *NoNewRecordsError
	return errors.As(err, &e)
}
