package protocol

import (
	"encoding/binary"
	"fmt"
)

// LoopRecord is one decoded real-time snapshot frame. Scaled fields carry
// device units: temperatures in °F, pressure in inHg, rain in inches,
// evapotranspiration in inches, wind in mph.
type LoopRecord struct {
	BarTrend   byte
	PacketType byte
	NextRecord uint16

	Pressure float64
	TempIn   float64
	HumIn    byte
	TempOut  float64
	HumOut   byte

	WindSpeed      byte
	WindSpeed10Min byte
	WindDir        uint16

	// Raw per-sensor bytes; a value of 0xFF means the sensor is absent.
	ExtraTemps [7]byte
	SoilTemps  [4]byte
	LeafTemps  [4]byte
	HumExtra   [7]byte

	RainRate       float64
	UV             byte
	SolarRad       uint16
	RainStorm      float64
	StormStartDate string
	RainDay        float64
	RainMonth      float64
	RainYear       float64

	ETDay   float64
	ETMonth float64
	ETYear  float64

	SoilMoist   [4]byte
	LeafWetness [4]byte

	AlarmIn        byte
	AlarmRain      byte
	AlarmOut       [2]byte
	AlarmExTempHum [8]byte
	AlarmSoilLeaf  [4]byte

	BatteryStatus byte
	BatteryVolts  float64

	ForecastIcon   byte
	ForecastRuleNo byte

	// Sunrise and Sunset are "HH:MM" strings
	Sunrise string
	Sunset  string
}

// DecodeLoop decodes a LOOP snapshot frame. The caller is expected to have
// CRC-verified the frame already; DecodeLoop only checks its size.
func DecodeLoop(data []byte) (*LoopRecord, error) {
	if len(data) < LoopFrameSize {
		return nil, &FrameError{Frame: "loop", Got: len(data), Want: LoopFrameSize}
	}

	u16 := func(off int) uint16 { return binary.LittleEndian.Uint16(data[off : off+2]) }

	r := &LoopRecord{
		BarTrend:   data[3],
		PacketType: data[4],
		NextRecord: u16(5),

		Pressure: float64(u16(7)) / 1000,
		TempIn:   float64(u16(9)) / 10,
		HumIn:    data[11],
		TempOut:  float64(u16(12)) / 10,

		WindSpeed:      data[14],
		WindSpeed10Min: data[15],
		WindDir:        u16(16),

		HumOut: data[33],

		RainRate:       float64(u16(41)) / 100,
		UV:             data[43],
		SolarRad:       u16(44),
		RainStorm:      float64(u16(46)) / 100,
		StormStartDate: unpackStormDate(u16(48)),
		RainDay:        float64(u16(50)) / 100,
		RainMonth:      float64(u16(52)) / 100,
		RainYear:       float64(u16(54)) / 100,

		ETDay:   float64(u16(56)) / 1000,
		ETMonth: float64(u16(58)) / 100,
		ETYear:  float64(u16(60)) / 100,

		AlarmIn:   data[70],
		AlarmRain: data[71],

		BatteryStatus: data[86],
		BatteryVolts:  float64(u16(87)) * 300 / 512 / 100,

		ForecastIcon:   data[89],
		ForecastRuleNo: data[90],

		Sunrise: unpackClock(u16(91)),
		Sunset:  unpackClock(u16(93)),
	}

	copy(r.ExtraTemps[:], data[18:25])
	copy(r.SoilTemps[:], data[25:29])
	copy(r.LeafTemps[:], data[29:33])
	copy(r.HumExtra[:], data[34:41])
	copy(r.SoilMoist[:], data[62:66])
	copy(r.LeafWetness[:], data[66:70])
	copy(r.AlarmOut[:], data[72:74])
	copy(r.AlarmExTempHum[:], data[74:82])
	copy(r.AlarmSoilLeaf[:], data[82:86])

	return r, nil
}

// unpackClock expands a packed hour*100+minute value into "HH:MM".
func unpackClock(val uint16) string {
	return fmt.Sprintf("%02d:%02d", val/100, val%100)
}

// unpackStormDate expands a packed storm start date into "YYYY-MM-DD".
// The storm packing puts the year offset in the low 7 bits, the day in the
// next 5 and the month in the top 4; this differs from the archive date
// stamp packing and the two must not be unified.
func unpackStormDate(date uint16) string {
	year := int(date&0x7F) + 2000
	day := int(date>>7) & 0x1F
	month := int(date>>12) & 0x0F
	return fmt.Sprintf("%d-%d-%d", year, month, day)
}
