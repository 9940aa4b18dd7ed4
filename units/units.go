// Package units holds the unit conversions and apparent-temperature
// formulas used when interpreting console readings. Temperatures are in
// degrees Fahrenheit and wind speeds in miles per hour unless noted.
package units

import "math"

// FToC converts degrees Fahrenheit to Celsius.
func FToC(f float64) float64 {
	return (f - 32) * 5 / 9
}

// CToF converts degrees Celsius to Fahrenheit.
func CToF(c float64) float64 {
	return c*9/5 + 32
}

// InHgToHPa converts inches of mercury to hectopascals.
func InHgToHPa(inhg float64) float64 {
	return inhg * 33.8639
}

// InToMm converts inches to millimetres.
func InToMm(in float64) float64 {
	return in * 25.4
}

// MphToKnots converts miles per hour to knots.
func MphToKnots(mph float64) float64 {
	return mph * 0.868976
}

// MphToMps converts miles per hour to metres per second.
func MphToMps(mph float64) float64 {
	return mph * 0.44704
}

// HeatIndex computes the apparent temperature from air temperature and
// relative humidity using the Rothfusz regression. The regression only
// holds in hot conditions; below 80 °F the air temperature is returned
// unchanged.
func HeatIndex(tempF, humidity float64) float64 {
	if tempF < 80 {
		return tempF
	}
	t, rh := tempF, humidity
	return -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		6.83783e-3*t*t -
		5.481717e-2*rh*rh +
		1.22874e-3*t*t*rh +
		8.5282e-4*t*rh*rh -
		1.99e-6*t*t*rh*rh
}

// WindChill computes the apparent temperature from air temperature and
// wind speed using the NWS wind chill formula.
func WindChill(tempF, windMph float64) float64 {
	if windMph <= 0 {
		return tempF
	}
	v := math.Pow(windMph, 0.16)
	return 35.74 + 0.6215*tempF - 35.75*v + 0.4275*tempF*v
}

// DewPoint computes the dew point from air temperature and relative
// humidity using the weatherwise.org polynomial approximation.
func DewPoint(tempF, humidity float64) float64 {
	c := FToC(tempF)
	x := 1 - 0.01*humidity
	dewC := c - ((14.55+0.114*c)*x +
		math.Pow((2.5+0.007*c)*x, 3) +
		(15.9+0.117*c)*math.Pow(x, 14))
	return CToF(dewC)
}
