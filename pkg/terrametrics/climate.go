package terrametrics

import "math"

// SaturationVaporPressure returns the saturation vapor pressure in hPa at a
// temperature in degrees Celsius (Bolton 1980).
func SaturationVaporPressure(tC float64) float64 {
	return 6.112 * math.Exp(17.67*tC/(tC+243.5))
}

// RelativeHumidity returns relative humidity in percent from air and dew
// point temperatures in degrees Celsius, clamped to [0, 100].
func RelativeHumidity(tC, dewC float64) float64 {
	if math.IsNaN(tC) || math.IsNaN(dewC) {
		return math.NaN()
	}
	rh := 100 * SaturationVaporPressure(dewC) / SaturationVaporPressure(tC)
	if math.IsNaN(rh) {
		// Both pressures overflowed or vanished.
		if dewC >= tC {
			return 100
		}
		return 0
	}
	return math.Max(0, math.Min(100, rh))
}

// VaporPressureDeficit returns es(t) - es(dew) in hPa.
func VaporPressureDeficit(tC, dewC float64) float64 {
	return SaturationVaporPressure(tC) - SaturationVaporPressure(dewC)
}

// WindVelocity returns the wind speed from its u and v components.
func WindVelocity(u, v float64) float64 {
	return math.Hypot(u, v)
}

// HotDryWindyIndex is vapor pressure deficit times wind speed.
func HotDryWindyIndex(vpd, wind float64) float64 {
	return vpd * wind
}

func combineNamed(a, b *Image, name string, fn func(x, y float64) float64) (*Image, error) {
	out, err := a.Combine(b, fn)
	if err != nil {
		return nil, err
	}
	if out.NumBands() != 1 {
		return out, nil
	}
	return out.Rename(name)
}

// RelativeHumidityImage applies RelativeHumidity per pixel.
func RelativeHumidityImage(t, dew *Image) (*Image, error) {
	return combineNamed(t, dew, "relative_humidity", RelativeHumidity)
}

// VaporPressureDeficitImage applies VaporPressureDeficit per pixel.
func VaporPressureDeficitImage(t, dew *Image) (*Image, error) {
	return combineNamed(t, dew, "vpd", VaporPressureDeficit)
}

// WindVelocityImage applies WindVelocity per pixel.
func WindVelocityImage(u, v *Image) (*Image, error) {
	return combineNamed(u, v, "wind_velocity", WindVelocity)
}

// HotDryWindyIndexImage applies HotDryWindyIndex per pixel.
func HotDryWindyIndexImage(vpd, wind *Image) (*Image, error) {
	return combineNamed(vpd, wind, "hdw", HotDryWindyIndex)
}
