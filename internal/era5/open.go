package era5

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rtm0/era5wind/internal/wind"
)

// Open reads every file and merges them along the time axis into a single
// wind field. All files must share the same latitude and longitude axes.
// Timestamps are sorted; a timestamp present in more than one file is an
// error. A nil logger uses slog.Default().
func Open(logger *slog.Logger, paths ...string) (*wind.Field, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no ERA5 files given")
	}
	var (
		la, lo []float64
		grids  []*Grids
	)
	for i, path := range paths {
		s, err := NewScanner(path)
		if err != nil {
			return nil, err
		}
		logger.Info("ERA5 summary", s.Summary()...)
		if i == 0 {
			la, lo = s.Latitudes(), s.Longitudes()
		} else if !slices.Equal(la, s.Latitudes()) || !slices.Equal(lo, s.Longitudes()) {
			s.Close()
			return nil, fmt.Errorf("%s: %w", path, ErrAxisMismatch)
		}
		for s.Scan() {
			grids = append(grids, s.Grids())
		}
		err = s.Err()
		s.Close()
		if err != nil {
			return nil, err
		}
	}
	return merge(la, lo, grids)
}

func merge(la, lo []float64, grids []*Grids) (*wind.Field, error) {
	sort.SliceStable(grids, func(i, j int) bool {
		return grids[i].Time.Before(grids[j].Time)
	})
	n := len(grids)
	var (
		ts                   = make([]time.Time, n)
		u10, v10, u100, v100 = make([]*mat.Dense, n), make([]*mat.Dense, n), make([]*mat.Dense, n), make([]*mat.Dense, n)
	)
	for i, g := range grids {
		if i > 0 && g.Time.Equal(ts[i-1]) {
			return nil, fmt.Errorf("duplicate timestamp %v", g.Time)
		}
		ts[i] = g.Time
		u10[i], v10[i], u100[i], v100[i] = g.U10, g.V10, g.U100, g.V100
	}
	return wind.NewField(ts, la, lo, u10, v10, u100, v100)
}
