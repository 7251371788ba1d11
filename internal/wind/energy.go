package wind

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// PowerCurve maps hub-height wind speed (m/s) to turbine power (kW).
type PowerCurve struct {
	speeds []float64
	power  []float64
	pl     interp.PiecewiseLinear
}

// NewPowerCurve creates a power curve from paired speed bins and power
// values. Speed bins must be finite and non-decreasing. A repeated bin is a
// step: at the repeated speed the curve takes the last of its power values.
// The slices are copied.
func NewPowerCurve(speeds, power []float64) (*PowerCurve, error) {
	if len(speeds) != len(power) {
		return nil, fmt.Errorf("%w: %d speed bins but %d power values", ErrInvalidPowerCurve, len(speeds), len(power))
	}
	if len(speeds) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidPowerCurve, len(speeds))
	}
	for i, s := range speeds {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: speed bin %g at %d", ErrInvalidPowerCurve, s, i)
		}
		if i > 0 && s < speeds[i-1] {
			return nil, fmt.Errorf("%w: speed bin %g at %d is below %g", ErrInvalidPowerCurve, s, i, speeds[i-1])
		}
	}
	for i, p := range power {
		if !(p >= 0) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: power value %g at bin %d", ErrInvalidPowerCurve, p, i)
		}
	}
	pc := &PowerCurve{
		speeds: append([]float64(nil), speeds...),
		power:  append([]float64(nil), power...),
	}
	if err := pc.pl.Fit(stepKnots(pc.speeds), pc.power); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPowerCurve, err)
	}
	return pc, nil
}

// stepKnots returns interpolation knots for non-decreasing speeds. Within a
// run of equal speeds every knot but the last is moved down by one ulp, so
// the knots are strictly increasing and a lookup at the repeated speed lands
// on the last knot of the run.
func stepKnots(speeds []float64) []float64 {
	xs := append([]float64(nil), speeds...)
	for i := len(xs) - 2; i >= 0; i-- {
		if xs[i] >= xs[i+1] {
			xs[i] = math.Nextafter(xs[i+1], math.Inf(-1))
		}
	}
	return xs
}

// Speeds returns a copy of the speed bins.
func (pc *PowerCurve) Speeds() []float64 {
	return append([]float64(nil), pc.speeds...)
}

// Power returns a copy of the power values.
func (pc *PowerCurve) Power() []float64 {
	return append([]float64(nil), pc.power...)
}

// At returns the power for speed, interpolated linearly between bins. Speeds
// below the first bin or above the last bin produce no power. A NaN speed
// yields NaN.
func (pc *PowerCurve) At(speed float64) float64 {
	if math.IsNaN(speed) {
		return math.NaN()
	}
	if speed < pc.speeds[0] || speed > pc.speeds[len(pc.speeds)-1] {
		return 0
	}
	return pc.pl.Predict(speed)
}

// Energy integrates hourly speed samples against the power curve and returns
// the energy in MWh. Each sample counts for one hour. Samples whose power is
// not finite are skipped. Availability scales every hour and is not checked.
func Energy(speeds []float64, pc *PowerCurve, availability float64) float64 {
	var kwh float64
	for _, s := range speeds {
		p := pc.At(s)
		if math.IsNaN(p) || math.IsInf(p, 0) {
			continue
		}
		kwh += p * availability
	}
	return kwh / 1000.0
}
