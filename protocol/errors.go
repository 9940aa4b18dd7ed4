package protocol

import "fmt"

// FrameError indicates a frame that cannot be decoded: too short for its
// layout or otherwise malformed. It is a local, recoverable condition and
// is treated like a CRC failure for retry purposes.
type FrameError struct {
	// Frame names the layout being decoded
	Frame string

	// Got is the number of bytes available
	Got int

	// Want is the number of bytes the layout requires
	Want int
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s frame too short: got %d bytes, want %d", e.Frame, e.Got, e.Want)
}

// IsFrameError returns true if the error is a FrameError.
func IsFrameError(err error) bool {
	_, ok := err.(*FrameError)
	return ok
}
