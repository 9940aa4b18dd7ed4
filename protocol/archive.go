package protocol

import (
	"encoding/binary"
	"fmt"
)

// Revision identifies which archive record layout the console emits. It is
// unknown until the first record has been probed, then fixed for the
// lifetime of the session.
type Revision int

const (
	RevisionUnknown Revision = iota
	RevisionA
	RevisionB
)

func (r Revision) String() string {
	switch r {
	case RevisionA:
		return "rev. A"
	case RevisionB:
		return "rev. B"
	default:
		return "unknown"
	}
}

// recTypeOffset is the position of the revision discriminator byte within
// a revision-B record. 0x00 means rev. B; rev. A stores 0xFF there.
const recTypeOffset = 42

// DetectRevision probes a record slot by reading it under the revision-B
// layout and inspecting the discriminator byte.
func DetectRevision(slot []byte) (Revision, error) {
	if len(slot) < ArchiveRecordSize {
		return RevisionUnknown, &FrameError{Frame: "archive", Got: len(slot), Want: ArchiveRecordSize}
	}
	if slot[recTypeOffset] == 0 {
		return RevisionB, nil
	}
	return RevisionA, nil
}

// Record is a decoded archive record of either revision.
type Record interface {
	// Stamp returns the record's packed date/time pair
	Stamp() Cursor
}

// ArchiveCommon holds the fields shared by both archive layouts: the first
// 30 bytes of every record, scaled to device units, plus the expanded
// calendar date and time.
type ArchiveCommon struct {
	DateStamp DateStamp
	TimeStamp TimeStamp

	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int

	TempOut    float64
	TempOutHi  float64
	TempOutLow float64

	// RainClicks is the number of rain bucket tips over the archive period;
	// RainRateHi is the peak rate in clicks per hour.
	RainClicks uint16
	RainRateHi uint16

	Barometer float64
	SolarRad  uint16
	WindSamps uint16
	TempIn    float64
	HumIn     byte
	HumOut    byte

	WindAvg    byte
	WindHi     byte
	WindHiDir  byte
	WindAvgDir byte

	UV     float64
	ETHour float64
}

// Stamp returns the record's packed date/time pair.
func (c *ArchiveCommon) Stamp() Cursor {
	return Cursor{Date: c.DateStamp, Time: c.TimeStamp}
}

func (c *ArchiveCommon) String() string {
	return fmt.Sprintf("archive %04d-%02d-%02d %02d:%02d", c.Year, c.Month, c.Day, c.Hour, c.Minute)
}

// decodeArchiveCommon fills the shared prefix from a record slot. The slot
// length has been checked by the caller.
func decodeArchiveCommon(data []byte) ArchiveCommon {
	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(data[off : off+2]) }

	c := ArchiveCommon{
		DateStamp: DateStamp(u16(0)),
		TimeStamp: TimeStamp(u16(2)),

		TempOut:    float64(u16(4)) / 10,
		TempOutHi:  float64(u16(6)) / 10,
		TempOutLow: float64(u16(8)) / 10,

		RainClicks: u16(10),
		RainRateHi: u16(12),

		Barometer: float64(u16(14)) / 1000,
		SolarRad:  u16(16),
		WindSamps: u16(18),
		TempIn:    float64(u16(20)) / 10,
		HumIn:     data[22],
		HumOut:    data[23],

		WindAvg:    data[24],
		WindHi:     data[25],
		WindHiDir:  data[26],
		WindAvgDir: data[27],

		UV:     float64(data[28]) / 10,
		ETHour: float64(data[29]) / 1000,
	}

	c.Year, c.Month, c.Day = c.DateStamp.Date()
	c.Hour, c.Minute = c.TimeStamp.Clock()
	return c
}

// ArchiveA is a revision-A archive record. Revision A predates the solar
// and UV extremes and instead carries rain collector reed switch counters.
type ArchiveA struct {
	ArchiveCommon

	SoilMoist   [4]byte
	SoilTemps   [4]int
	LeafWetness [4]byte
	ExtraTemps  [2]int
	ExtraHum    [2]byte

	ReedClosed uint16
	ReedOpened uint16
}

// DecodeArchiveA decodes a record slot under the revision-A layout.
func DecodeArchiveA(data []byte) (*ArchiveA, error) {
	if len(data) < ArchiveRecordSize {
		return nil, &FrameError{Frame: "archive rev. A", Got: len(data), Want: ArchiveRecordSize}
	}

	r := &ArchiveA{ArchiveCommon: decodeArchiveCommon(data)}

	copy(r.SoilMoist[:], data[31:35])
	unpackOffsetTemps(r.SoilTemps[:], data[35:39])
	copy(r.LeafWetness[:], data[39:43])
	unpackOffsetTemps(r.ExtraTemps[:], data[43:45])
	copy(r.ExtraHum[:], data[45:47])
	r.ReedClosed = binary.LittleEndian.Uint16(data[47:49])
	r.ReedOpened = binary.LittleEndian.Uint16(data[49:51])

	return r, nil
}

// ArchiveB is a revision-B archive record. Revision B adds solar and UV
// extremes, leaf temperatures, a forecast rule and the RecType
// discriminator byte.
type ArchiveB struct {
	ArchiveCommon

	SolarRadHi     uint16
	UVHi           float64
	ForecastRuleNo byte

	LeafTemps   [2]int
	LeafWetness [2]byte
	SoilTemps   [4]int

	// RecType is the revision discriminator: 0x00 for rev. B
	RecType byte

	ExtraHum   [2]byte
	ExtraTemps [3]int
	SoilMoist  [4]byte
}

// DecodeArchiveB decodes a record slot under the revision-B layout.
func DecodeArchiveB(data []byte) (*ArchiveB, error) {
	if len(data) < ArchiveRecordSize {
		return nil, &FrameError{Frame: "archive rev. B", Got: len(data), Want: ArchiveRecordSize}
	}

	r := &ArchiveB{ArchiveCommon: decodeArchiveCommon(data)}

	r.SolarRadHi = binary.LittleEndian.Uint16(data[30:32])
	r.UVHi = float64(data[32]) / 10
	r.ForecastRuleNo = data[33]
	unpackOffsetTemps(r.LeafTemps[:], data[34:36])
	copy(r.LeafWetness[:], data[36:38])
	unpackOffsetTemps(r.SoilTemps[:], data[38:42])
	r.RecType = data[recTypeOffset]
	copy(r.ExtraHum[:], data[43:45])
	unpackOffsetTemps(r.ExtraTemps[:], data[45:48])
	copy(r.SoilMoist[:], data[48:52])

	return r, nil
}

// DecodeArchive decodes a record slot under the layout the revision
// indicates. The revision must be known.
func DecodeArchive(rev Revision, data []byte) (Record, error) {
	switch rev {
	case RevisionA:
		return DecodeArchiveA(data)
	case RevisionB:
		return DecodeArchiveB(data)
	default:
		return nil, fmt.Errorf("archive revision not detected")
	}
}

// unpackOffsetTemps expands offset-encoded temperature bytes (°F + 90)
// into signed degrees Fahrenheit.
func unpackOffsetTemps(dst []int, src []byte) {
	for i, b := range src {
		dst[i] = int(b) - 90
	}
}
