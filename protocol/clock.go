package protocol

import "time"

// DecodeClock decodes the GETTIME response frame into the console's wall
// clock. Field order is seconds, minutes, hours, day, month, year-1900,
// followed by the CRC. The caller is expected to have CRC-verified the
// frame already.
func DecodeClock(data []byte) (time.Time, error) {
	if len(data) < ClockFrameSize {
		return time.Time{}, &FrameError{Frame: "clock", Got: len(data), Want: ClockFrameSize}
	}
	return time.Date(
		int(data[5])+1900,
		time.Month(data[4]),
		int(data[3]),
		int(data[2]),
		int(data[1]),
		int(data[0]),
		0,
		time.Local,
	), nil
}

// EncodeClock packs t into the 6-byte clock payload used by SETTIME.
// The caller appends the CRC with AppendCRC.
func EncodeClock(t time.Time) []byte {
	return []byte{
		byte(t.Second()),
		byte(t.Minute()),
		byte(t.Hour()),
		byte(t.Day()),
		byte(t.Month()),
		byte(t.Year() - 1900),
	}
}
