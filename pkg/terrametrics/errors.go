package terrametrics

import (
	"errors"

	"terrametrics/internal/util"
)

var (
	// ErrInvalidArgument marks caller errors detected before any computation.
	ErrInvalidArgument = util.ErrInvalidArgument
	// ErrBandMismatch is returned when two images cannot be combined band-wise.
	ErrBandMismatch = errors.New("band mismatch")
	// ErrGridMismatch is returned when images of one call do not share a grid.
	ErrGridMismatch = errors.New("grid mismatch")
	// ErrEmptyRegion is returned when a region reduction needed for a
	// threshold produced no value.
	ErrEmptyRegion = errors.New("region has no valid pixels")
	// ErrTooManyPixels is returned when a reduction would touch more pixels
	// than its MaxPixels cap.
	ErrTooManyPixels = errors.New("too many pixels")
)
