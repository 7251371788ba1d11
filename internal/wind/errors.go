package wind

import "errors"

var (
	// ErrInvalidRange is returned when a start year is after the end year.
	ErrInvalidRange = errors.New("start year is after end year")

	// ErrOutOfGridBounds is returned when a point lies outside the grid extent.
	ErrOutOfGridBounds = errors.New("point is outside the grid extent")

	// ErrInvalidHeight is returned when a height is not one of the reference
	// heights.
	ErrInvalidHeight = errors.New("height must be 10 or 100 m")

	// ErrInsufficientData is returned when no positive-speed sample pair is
	// available for shear estimation.
	ErrInsufficientData = errors.New("no valid samples for shear estimation")

	// ErrEmptySample is returned when a distribution fit has nothing to fit.
	ErrEmptySample = errors.New("cannot fit Weibull to empty sample")

	// ErrShapeMismatch is returned when a component grid does not match the
	// field axes.
	ErrShapeMismatch = errors.New("component grids do not share the field shape")

	// ErrInvalidPowerCurve is returned for unusable speed bins or power values.
	ErrInvalidPowerCurve = errors.New("invalid power curve")

	// ErrInvalidSectors is returned for a wind rose with no sectors.
	ErrInvalidSectors = errors.New("number of sectors must be positive")
)
