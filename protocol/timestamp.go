package protocol

import "time"

// DateStamp is the console's packed calendar date:
// day in bits 0-4, month in bits 5-8, year-2000 in bits 9-15
// (day + month*32 + (year-2000)*512).
type DateStamp uint16

// TimeStamp is the console's packed time of day: hour*100 + minute.
type TimeStamp uint16

// Sentinel marks an unused archive record slot. A record whose date stamp
// and time stamp are both Sentinel carries no data.
const Sentinel = 0xFFFF

// MakeDateStamp packs the calendar date of t.
func MakeDateStamp(t time.Time) DateStamp {
	return DateStamp(t.Day() + int(t.Month())*32 + (t.Year()-2000)*512)
}

// MakeTimeStamp packs the time of day of t.
func MakeTimeStamp(t time.Time) TimeStamp {
	return TimeStamp(t.Hour()*100 + t.Minute())
}

// Date unpacks the stamp into calendar components.
func (d DateStamp) Date() (year, month, day int) {
	day = int(d) & 0x1F
	month = int(d) >> 5 & 0x0F
	year = (int(d) >> 9 & 0x7F) + 2000
	return year, month, day
}

// Clock unpacks the stamp into hour and minute.
func (t TimeStamp) Clock() (hour, minute int) {
	return int(t) / 100, int(t) % 100
}

// Cursor is the archive watermark: the packed date/time pair of the newest
// record already retrieved. Ordering is lexicographic on the packed integer
// forms, date stamp first, which matches the console's own ordering.
type Cursor struct {
	Date DateStamp
	Time TimeStamp
}

// CursorFor returns the cursor identifying records written at or before t.
func CursorFor(t time.Time) Cursor {
	return Cursor{Date: MakeDateStamp(t), Time: MakeTimeStamp(t)}
}

// After reports whether c is strictly later than other in packed order.
func (c Cursor) After(other Cursor) bool {
	if c.Date != other.Date {
		return c.Date > other.Date
	}
	return c.Time > other.Time
}

// IsSentinel reports whether both stamps carry the unused-slot marker.
func (c Cursor) IsSentinel() bool {
	return c.Date == Sentinel && c.Time == Sentinel
}
