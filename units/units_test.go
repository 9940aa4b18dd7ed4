package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemperatureConversions(t *testing.T) {
	assert.InDelta(t, 0.0, FToC(32), 1e-9)
	assert.InDelta(t, 100.0, FToC(212), 1e-9)
	assert.InDelta(t, 212.0, CToF(100), 1e-9)
	assert.InDelta(t, -40.0, CToF(-40), 1e-9)
}

func TestPressureAndLengthConversions(t *testing.T) {
	assert.InDelta(t, 1013.208, InHgToHPa(29.92), 1e-2)
	assert.InDelta(t, 25.4, InToMm(1), 1e-9)
}

func TestWindConversions(t *testing.T) {
	assert.InDelta(t, 8.68976, MphToKnots(10), 1e-5)
	assert.InDelta(t, 4.4704, MphToMps(10), 1e-5)
}

func TestHeatIndex(t *testing.T) {
	// Below the regression's range the air temperature passes through.
	assert.InDelta(t, 72.1, HeatIndex(72.1, 78), 1e-9)

	// 90 F at 70% RH sits at about 106 F on the NWS chart.
	assert.InDelta(t, 105.922, HeatIndex(90, 70), 1e-3)
}

func TestWindChill(t *testing.T) {
	assert.InDelta(t, 74.1758, WindChill(72.1, 5), 1e-3)

	// 30 F with a 20 mph wind feels like 17 F on the NWS chart.
	assert.InDelta(t, 17.362, WindChill(30, 20), 1e-2)

	// Calm air passes through.
	assert.InDelta(t, 30.0, WindChill(30, 0), 1e-9)
}

func TestDewPoint(t *testing.T) {
	assert.InDelta(t, 64.9734, DewPoint(72.1, 78), 1e-3)

	// Saturated air dews at the air temperature.
	assert.InDelta(t, 72.1, DewPoint(72.1, 100), 1e-6)
}
