package station

import (
	"context"
	"time"

	"github.com/openwx/go-vantage/protocol"
	"github.com/openwx/go-vantage/units"
)

// Observation is one complete poll result: the real-time snapshot, the
// apparent-temperature values derived from it, and any archive records
// logged since the previous poll.
type Observation struct {
	// Loop is the real-time snapshot
	Loop *protocol.LoopRecord

	// Archive holds the records logged since the last successful poll.
	// Empty when archive polling is disabled or nothing new was logged.
	Archive []protocol.Record

	// HeatIndex is the apparent temperature in °F from outside temperature
	// and humidity
	HeatIndex float64

	// WindChill is the apparent temperature in °F from outside temperature
	// and the 10-minute average wind speed
	WindChill float64

	// DewPoint is the dew point in °F from outside temperature and humidity
	DewPoint float64

	// Time is the local wall-clock time the snapshot was taken
	Time time.Time

	// UTCTime is Time in UTC
	UTCTime time.Time
}

// Reading is a flattened, unit-annotated view of an Observation carrying
// the fields a typical weather consumer wants.
type Reading struct {
	Timestamp time.Time

	TempOut   float64 // °F
	HeatIndex float64 // °F
	WindChill float64 // °F
	DewPoint  float64 // °F
	HumOut    byte    // %

	Pressure float64 // inHg

	WindSpeed      byte   // mph
	WindSpeed10Min byte   // mph
	WindDir        uint16 // degrees

	RainRate  float64 // in/hr
	RainDay   float64 // in
	RainStorm float64 // in

	UV       byte
	SolarRad uint16 // W/m²

	BatteryVolts float64
}

// Reading returns the flattened view of the observation.
func (o *Observation) Reading() Reading {
	return Reading{
		Timestamp:      o.Time,
		TempOut:        o.Loop.TempOut,
		HeatIndex:      o.HeatIndex,
		WindChill:      o.WindChill,
		DewPoint:       o.DewPoint,
		HumOut:         o.Loop.HumOut,
		Pressure:       o.Loop.Pressure,
		WindSpeed:      o.Loop.WindSpeed,
		WindSpeed10Min: o.Loop.WindSpeed10Min,
		WindDir:        o.Loop.WindDir,
		RainRate:       o.Loop.RainRate,
		RainDay:        o.Loop.RainDay,
		RainStorm:      o.Loop.RainStorm,
		UV:             o.Loop.UV,
		SolarRad:       o.Loop.SolarRad,
		BatteryVolts:   o.Loop.BatteryVolts,
	}
}

// Poll takes one complete observation: a LOOP snapshot plus, when archive
// polling is enabled, the records logged since the previous poll. An archive
// download that yields nothing new is not an error; the observation simply
// carries no archive records.
func (s *Station) Poll(ctx context.Context) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loop, err := s.loopPoll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	obs := &Observation{
		Loop:      loop,
		HeatIndex: units.HeatIndex(loop.TempOut, float64(loop.HumOut)),
		WindChill: units.WindChill(loop.TempOut, float64(loop.WindSpeed10Min)),
		DewPoint:  units.DewPoint(loop.TempOut, float64(loop.HumOut)),
		Time:      now,
		UTCTime:   now.UTC(),
	}

	if s.config.Archives {
		records, err := s.pollArchive(ctx)
		if err != nil && !IsNoNewRecords(err) {
			return nil, err
		}
		obs.Archive = records
	}

	s.last = obs
	return obs, nil
}

// LastObservation returns the most recent successful Poll result, or nil
// when the session has not polled yet.
func (s *Station) LastObservation() *Observation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
