package wind

import (
	"math"
	"sort"
)

// DefaultRefHeight is the reference height used for power-law extrapolation
// when the caller has no reason to prefer the 10 m level.
const DefaultRefHeight = HighHeight

// ShearExponents returns the per-sample power-law exponent between the two
// reference heights. Samples where either speed is not positive are NaN.
func ShearExponents(speedLow, speedHigh []float64) []float64 {
	n := min(len(speedLow), len(speedHigh))
	logRatio := math.Log(HighHeight / LowHeight)
	alphas := make([]float64, n)
	for i := 0; i < n; i++ {
		if !(speedLow[i] > 0 && speedHigh[i] > 0) {
			alphas[i] = math.NaN()
			continue
		}
		alphas[i] = math.Log(speedHigh[i]/speedLow[i]) / logRatio
	}
	return alphas
}

// PowerLaw projects speeds measured at refHeight to targetHeight using
// u(z) = u(zr) * (z/zr)^alpha.
func PowerLaw(speed []float64, targetHeight, refHeight, alpha float64) []float64 {
	factor := math.Pow(targetHeight/refHeight, alpha)
	out := make([]float64, len(speed))
	for i, s := range speed {
		out[i] = s * factor
	}
	return out
}

// nanMedian returns the median of the finite values in xs and how many there
// were. The median of an even count is the mean of the two middle values.
func nanMedian(xs []float64) (float64, int) {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	n := len(finite)
	if n == 0 {
		return math.NaN(), 0
	}
	sort.Float64s(finite)
	if n%2 == 1 {
		return finite[n/2], n
	}
	return (finite[n/2-1] + finite[n/2]) / 2, n
}
