package util

import "github.com/golang/geo/s1"

// Deg2Rad converts degrees to radians.
func Deg2Rad(deg float64) float64 {
	return (s1.Angle(deg) * s1.Degree).Radians()
}

// Rad2Deg converts radians to degrees.
func Rad2Deg(rad float64) float64 {
	return (s1.Angle(rad) * s1.Radian).Degrees()
}
