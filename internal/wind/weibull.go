package wind

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MaxWeibullShape bounds the shape parameter. A sample without spread has no
// finite maximum likelihood shape and is reported with this value.
const MaxWeibullShape = 1e4

const (
	weibullTol     = 1e-12
	weibullMaxIter = 200
)

// Weibull holds the parameters of a two-parameter Weibull distribution with
// location fixed at zero.
type Weibull struct {
	K float64 // shape
	A float64 // scale, m/s
}

// Distribution returns the gonum distribution with the fitted parameters.
func (w Weibull) Distribution() distuv.Weibull {
	return distuv.Weibull{K: w.K, Lambda: w.A}
}

// Mean returns the expected wind speed.
func (w Weibull) Mean() float64 {
	return w.Distribution().Mean()
}

// FitWeibull fits a Weibull distribution with zero location to samples by
// maximum likelihood. Non-finite and non-positive samples are ignored.
func FitWeibull(samples []float64) (Weibull, error) {
	xs := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s > 0 && !math.IsInf(s, 0) {
			xs = append(xs, s)
		}
	}
	if len(xs) == 0 {
		return Weibull{}, ErrEmptySample
	}

	// Samples are scaled by their maximum so that y^k stays in (0, 1]; the
	// shape estimate does not depend on the scaling.
	xmax := floats.Max(xs)
	ys := make([]float64, len(xs))
	logs := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x / xmax
		logs[i] = math.Log(ys[i])
	}
	meanLog := stat.Mean(logs, nil)

	k := solveWeibullShape(ys, logs, meanLog)
	return Weibull{K: k, A: xmax * weibullScale(ys, k)}, nil
}

// weibullScore evaluates the profile likelihood equation for the shape and
// its derivative:
//
//	g(k) = Σ y^k ln y / Σ y^k - 1/k - mean(ln y)
//
// g is strictly increasing in k.
func weibullScore(ys, logs []float64, meanLog, k float64) (g, dg float64) {
	var s0, s1, s2 float64
	for i, y := range ys {
		p := math.Pow(y, k)
		s0 += p
		s1 += p * logs[i]
		s2 += p * logs[i] * logs[i]
	}
	m1 := s1 / s0
	g = m1 - 1/k - meanLog
	dg = s2/s0 - m1*m1 + 1/(k*k)
	return g, dg
}

func solveWeibullShape(ys, logs []float64, meanLog float64) float64 {
	sd := stat.StdDev(logs, nil)
	if !(sd > 0) {
		return MaxWeibullShape
	}

	// Bracket the root: g -> -inf as k -> 0 and g > 0 for large k whenever
	// the sample has spread.
	lo, hi := 0.0, 1.0
	for {
		g, _ := weibullScore(ys, logs, meanLog, hi)
		if g > 0 {
			break
		}
		lo = hi
		hi *= 2
		if hi >= MaxWeibullShape {
			return MaxWeibullShape
		}
	}

	k := 1.2825 / sd // moment estimate from the spread of ln x
	if k <= lo || k >= hi {
		k = (lo + hi) / 2
	}
	for i := 0; i < weibullMaxIter; i++ {
		g, dg := weibullScore(ys, logs, meanLog, k)
		if g == 0 {
			return k
		}
		if g < 0 {
			lo = k
		} else {
			hi = k
		}
		next := k - g/dg
		if !(next > lo && next < hi) {
			next = (lo + hi) / 2
		}
		if math.Abs(next-k) <= weibullTol*k {
			return next
		}
		k = next
	}
	return k
}

// weibullScale returns the maximum likelihood scale for shape k on samples
// scaled to (0, 1].
func weibullScale(ys []float64, k float64) float64 {
	var s float64
	for _, y := range ys {
		s += math.Pow(y, k)
	}
	return math.Pow(s/float64(len(ys)), 1/k)
}
