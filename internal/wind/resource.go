// Package wind derives wind resource statistics from a gridded wind field at
// arbitrary points: speed and direction, shear exponent, power-law
// extrapolation, Weibull fit and annual energy production.
package wind

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Location is a point in decimal degrees.
type Location struct {
	Lat float64
	Lon float64
}

// Period is a range of calendar years, both inclusive.
type Period struct {
	StartYear int
	EndYear   int
}

// Resource answers wind resource queries against a field. It never modifies
// the field, so it can be shared between goroutines.
type Resource struct {
	logger *slog.Logger
	field  *Field
}

// NewResource creates a new resource over field. A nil logger uses
// slog.Default().
func NewResource(logger *slog.Logger, field *Field) *Resource {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resource{logger: logger, field: field}
}

// Field returns the underlying field.
func (r *Resource) Field() *Field {
	return r.field
}

func (r *Resource) pointSeries(loc Location, period Period) (*PointSeries, error) {
	sub, err := r.field.SubsetYears(period.StartYear, period.EndYear)
	if err != nil {
		return nil, err
	}
	return sub.Interpolate(loc.Lat, loc.Lon)
}

// SpeedDirectionAtPoint returns the speed and direction series at loc for a
// reference height of exactly 10 or 100 m.
func (r *Resource) SpeedDirectionAtPoint(loc Location, height float64, period Period) (*SpeedDirection, error) {
	if height != LowHeight && height != HighHeight {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidHeight, height)
	}
	ps, err := r.pointSeries(loc, period)
	if err != nil {
		return nil, err
	}
	c, err := ps.Components(height)
	if err != nil {
		return nil, err
	}
	spd, dir := SpeedDirectionFromComponents(c.U, c.V)
	return &SpeedDirection{Times: ps.Times, Speed: spd, Direction: dir}, nil
}

// ShearExponent estimates the power-law exponent at loc as the median of the
// per-sample exponents between 10 and 100 m over period.
func (r *Resource) ShearExponent(loc Location, period Period) (float64, error) {
	ps, err := r.pointSeries(loc, period)
	if err != nil {
		return 0, err
	}
	low, _ := SpeedDirectionFromComponents(ps.Low.U, ps.Low.V)
	high, _ := SpeedDirectionFromComponents(ps.High.U, ps.High.V)

	alpha, n := nanMedian(ShearExponents(low, high))
	if n == 0 {
		return 0, fmt.Errorf("%w: %d samples at (%g, %g) in %d-%d", ErrInsufficientData, len(low), loc.Lat, loc.Lon, period.StartYear, period.EndYear)
	}
	r.logger.Debug("estimated shear exponent", "lat", loc.Lat, "lon", loc.Lon, "alpha", alpha, "valid", n, "total", len(low))
	return alpha, nil
}

// ExtrapolateSpeed projects the speed series at refHeight to targetHeight
// using a shear exponent estimated at the same point and period.
func (r *Resource) ExtrapolateSpeed(loc Location, targetHeight, refHeight float64, period Period) ([]float64, error) {
	if refHeight != LowHeight && refHeight != HighHeight {
		return nil, fmt.Errorf("%w: reference height %g", ErrInvalidHeight, refHeight)
	}
	alpha, err := r.ShearExponent(loc, period)
	if err != nil {
		return nil, err
	}
	return r.ExtrapolateSpeedWithAlpha(loc, targetHeight, refHeight, alpha, period)
}

// ExtrapolateSpeedWithAlpha projects the speed series at refHeight to
// targetHeight with the given shear exponent. Extreme exponents are not
// clamped.
func (r *Resource) ExtrapolateSpeedWithAlpha(loc Location, targetHeight, refHeight, alpha float64, period Period) ([]float64, error) {
	if refHeight != LowHeight && refHeight != HighHeight {
		return nil, fmt.Errorf("%w: reference height %g", ErrInvalidHeight, refHeight)
	}
	sd, err := r.SpeedDirectionAtPoint(loc, refHeight, period)
	if err != nil {
		return nil, err
	}
	return PowerLaw(sd.Speed, targetHeight, refHeight, alpha), nil
}

// FitWeibullAtPoint fits a Weibull distribution to the speeds at loc and
// height. Measured series are used at 10 and 100 m unless usePowerLaw is
// set; any other height is extrapolated from 100 m.
func (r *Resource) FitWeibullAtPoint(loc Location, height float64, period Period, usePowerLaw bool) (Weibull, error) {
	var speeds []float64
	if (height == LowHeight || height == HighHeight) && !usePowerLaw {
		sd, err := r.SpeedDirectionAtPoint(loc, height, period)
		if err != nil {
			return Weibull{}, err
		}
		speeds = sd.Speed
	} else {
		var err error
		speeds, err = r.ExtrapolateSpeed(loc, height, DefaultRefHeight, period)
		if err != nil {
			return Weibull{}, err
		}
	}
	w, err := FitWeibull(speeds)
	if err != nil {
		return Weibull{}, fmt.Errorf("%g m at (%g, %g): %w", height, loc.Lat, loc.Lon, err)
	}
	r.logger.Debug("fitted Weibull", "height", height, "k", w.K, "A", w.A, "samples", len(speeds))
	return w, nil
}

// AnnualEnergy returns the energy in MWh produced at loc during year by a
// turbine with the given hub height and power curve. Speeds are extrapolated
// from 100 m.
func (r *Resource) AnnualEnergy(loc Location, hubHeight float64, pc *PowerCurve, year int, availability float64) (float64, error) {
	period := Period{StartYear: year, EndYear: year}
	speeds, err := r.ExtrapolateSpeed(loc, hubHeight, DefaultRefHeight, period)
	if err != nil {
		return 0, err
	}
	mwh := Energy(speeds, pc, availability)
	r.logger.Debug("computed annual energy", "year", year, "hubHeight", hubHeight, "hours", len(speeds), "mwh", mwh)
	return mwh, nil
}

// Mean returns the mean of the finite values of xs, or NaN if there are none.
func Mean(xs []float64) float64 {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	return stat.Mean(finite, nil)
}
