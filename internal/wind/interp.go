package wind

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Components holds eastward and northward wind components over time.
type Components struct {
	U []float64
	V []float64
}

// PointSeries is a field interpolated to a single location.
type PointSeries struct {
	Times []time.Time
	Low   Components // 10 m
	High  Components // 100 m
}

// Components returns the components at one of the reference heights.
func (p *PointSeries) Components(height float64) (Components, error) {
	switch height {
	case LowHeight:
		return p.Low, nil
	case HighHeight:
		return p.High, nil
	}
	return Components{}, fmt.Errorf("%w: got %g", ErrInvalidHeight, height)
}

// Interpolate bilinearly interpolates every timestamp of the field to (lat,
// lon). Points outside the grid extent are rejected instead of extrapolated.
func (f *Field) Interpolate(lat, lon float64) (*PointSeries, error) {
	y, err := locate(f.Latitudes, lat)
	if err != nil {
		return nil, fmt.Errorf("latitude %g: %w", lat, err)
	}
	x, err := locate(f.Longitudes, lon)
	if err != nil {
		return nil, fmt.Errorf("longitude %g: %w", lon, err)
	}
	w := bilinear{y: y, x: x}

	n := len(f.Times)
	p := &PointSeries{
		Times: f.Times,
		Low:   Components{U: make([]float64, n), V: make([]float64, n)},
		High:  Components{U: make([]float64, n), V: make([]float64, n)},
	}
	for i := 0; i < n; i++ {
		p.Low.U[i] = w.at(f.U10[i])
		p.Low.V[i] = w.at(f.V10[i])
		p.High.U[i] = w.at(f.U100[i])
		p.High.V[i] = w.at(f.V100[i])
	}
	return p, nil
}

// span is the position of a coordinate between two neighbouring axis points.
type span struct {
	lo, hi int
	frac   float64 // weight of hi
}

type bilinear struct {
	y, x span
}

func (b bilinear) at(g *mat.Dense) float64 {
	v00 := g.At(b.y.lo, b.x.lo)
	v01 := g.At(b.y.lo, b.x.hi)
	v10 := g.At(b.y.hi, b.x.lo)
	v11 := g.At(b.y.hi, b.x.hi)
	return (1-b.y.frac)*((1-b.x.frac)*v00+b.x.frac*v01) +
		b.y.frac*((1-b.x.frac)*v10+b.x.frac*v11)
}

// locate finds the cell of a monotonic axis, ascending or descending, that
// contains v.
func locate(axis []float64, v float64) (span, error) {
	n := len(axis)
	if n == 0 || math.IsNaN(v) {
		return span{}, ErrOutOfGridBounds
	}
	if n == 1 {
		if v == axis[0] {
			return span{}, nil
		}
		return span{}, fmt.Errorf("%w: %g is not the single axis value %g", ErrOutOfGridBounds, v, axis[0])
	}
	lo, hi := axis[0], axis[n-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo || v > hi {
		return span{}, fmt.Errorf("%w: %g not in [%g, %g]", ErrOutOfGridBounds, v, lo, hi)
	}
	for i := 0; i < n-1; i++ {
		a, b := axis[i], axis[i+1]
		if (a <= v && v <= b) || (b <= v && v <= a) {
			if a == b {
				return span{lo: i, hi: i}, nil
			}
			return span{lo: i, hi: i + 1, frac: (v - a) / (b - a)}, nil
		}
	}
	return span{}, fmt.Errorf("%w: axis is not monotonic around %g", ErrOutOfGridBounds, v)
}
