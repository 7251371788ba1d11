package wind

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindRose counts directions into equal sectors over [0, 360). Sector i
// covers [i*w, (i+1)*w) with w = 360/sectors, so the first sector starts at
// north. Non-finite directions are ignored.
func WindRose(directions []float64, sectors int) ([]float64, error) {
	if sectors < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSectors, sectors)
	}
	xs := make([]float64, 0, len(directions))
	for _, d := range directions {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			continue
		}
		d = math.Mod(d, 360)
		if d < 0 {
			d += 360
		}
		xs = append(xs, d)
	}
	if len(xs) == 0 {
		return make([]float64, sectors), nil
	}
	sort.Float64s(xs)

	// The last divider is nudged past 360 so that the half-open bins cover
	// every value that math.Mod can return.
	dividers := floats.Span(make([]float64, sectors+1), 0, 360)
	dividers[sectors] = math.Nextafter(360, math.Inf(1))
	return stat.Histogram(nil, dividers, xs, nil), nil
}
