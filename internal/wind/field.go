package wind

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Reference heights in meters at which vector components are available.
const (
	LowHeight  = 10.0
	HighHeight = 100.0
)

// Field is a gridded wind field indexed by time, latitude and longitude.
//
// Each component holds one latitude × longitude matrix per timestamp. A Field
// is never modified after construction.
type Field struct {
	Times      []time.Time
	Latitudes  []float64
	Longitudes []float64

	U10  []*mat.Dense // eastward, 10 m
	V10  []*mat.Dense // northward, 10 m
	U100 []*mat.Dense // eastward, 100 m
	V100 []*mat.Dense // northward, 100 m
}

// NewField creates a field and checks that all components share its shape.
func NewField(times []time.Time, lats, lons []float64, u10, v10, u100, v100 []*mat.Dense) (*Field, error) {
	f := &Field{
		Times:      times,
		Latitudes:  lats,
		Longitudes: lons,
		U10:        u10,
		V10:        v10,
		U100:       u100,
		V100:       v100,
	}
	if len(lats) == 0 || len(lons) == 0 {
		return nil, fmt.Errorf("%w: empty latitude or longitude axis", ErrShapeMismatch)
	}
	for _, c := range f.components() {
		name, grids := c.name, c.grids
		if len(grids) != len(times) {
			return nil, fmt.Errorf("%w: %s has %d timestamps, want %d", ErrShapeMismatch, name, len(grids), len(times))
		}
		for i, g := range grids {
			if g == nil {
				return nil, fmt.Errorf("%w: %s is missing timestamp %d", ErrShapeMismatch, name, i)
			}
			rows, cols := g.Dims()
			if rows != len(lats) || cols != len(lons) {
				return nil, fmt.Errorf("%w: %s[%d] is %dx%d, want %dx%d", ErrShapeMismatch, name, i, rows, cols, len(lats), len(lons))
			}
		}
	}
	return f, nil
}

type component struct {
	name  string
	grids []*mat.Dense
}

func (f *Field) components() []component {
	return []component{
		{"u10", f.U10},
		{"v10", f.V10},
		{"u100", f.U100},
		{"v100", f.V100},
	}
}

// Len returns the number of timestamps.
func (f *Field) Len() int {
	return len(f.Times)
}

// SubsetYears returns the part of the field between the first hour of start
// and the last hour (23:00 on Dec 31) of end, both inclusive.
//
// The returned field shares grids with f.
func (f *Field) SubsetYears(start, end int) (*Field, error) {
	if start > end {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, start, end)
	}
	from := time.Date(start, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(end, time.December, 31, 23, 0, 0, 0, time.UTC)

	sub := &Field{
		Latitudes:  f.Latitudes,
		Longitudes: f.Longitudes,
	}
	for i, t := range f.Times {
		if t.Before(from) || t.After(to) {
			continue
		}
		sub.Times = append(sub.Times, t)
		sub.U10 = append(sub.U10, f.U10[i])
		sub.V10 = append(sub.V10, f.V10[i])
		sub.U100 = append(sub.U100, f.U100[i])
		sub.V100 = append(sub.V100, f.V100[i])
	}
	return sub, nil
}
