// Package era5 reads ERA5 single-level wind components from NetCDF files.
package era5

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"gonum.org/v1/gonum/mat"
)

// TZ=UTC date --date="1900-01-01 00:00:00" +%s
const unixSecs1900 = -2208988800

// Variable names of the wind components.
var windVars = [...]string{"u10", "v10", "u100", "v100"}

var (
	// ErrUnexpectedLayout is returned for variables that are not laid out as
	// (time, latitude, longitude) or have an unsupported type.
	ErrUnexpectedLayout = errors.New("unexpected variable layout")

	// ErrAxisMismatch is returned when merged files use different grids.
	ErrAxisMismatch = errors.New("latitude/longitude axes differ between files")
)

// Grids holds the wind components of a single timestamp, each a latitude ×
// longitude matrix in m/s.
type Grids struct {
	Time time.Time
	U10  *mat.Dense
	V10  *mat.Dense
	U100 *mat.Dense
	V100 *mat.Dense
}

// Scanner retrieves wind components from a file one timestamp at a time.
type Scanner struct {
	path  string
	nc    api.Group
	la    []float64
	lo    []float64
	ts    []time.Time
	vars  [len(windVars)]variable
	pos   int
	grids *Grids
	err   error
}

type variable struct {
	name string
	vg   api.VarGetter
	pk   packing
}

// NewScanner creates a new ERA5 file scanner.
func NewScanner(filePath string) (*Scanner, error) {
	nc, err := netcdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	s := &Scanner{path: filePath, nc: nc}
	if err := s.init(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return s, nil
}

func (s *Scanner) init() error {
	var err error
	s.la, err = axisValues(s.nc, "latitude")
	if err != nil {
		return err
	}
	s.lo, err = axisValues(s.nc, "longitude")
	if err != nil {
		return err
	}
	if len(s.la) == 0 || len(s.lo) == 0 {
		return fmt.Errorf("%w: empty latitude or longitude axis", ErrUnexpectedLayout)
	}
	timeName, tvg, err := timeVar(s.nc)
	if err != nil {
		return err
	}
	units, _ := stringAttr(tvg.Attributes(), "units")
	s.ts, err = decodeTimes(tvg, units)
	if err != nil {
		return fmt.Errorf("%s: %w", timeName, err)
	}
	for i, name := range windVars {
		vg, err := s.nc.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if dims := vg.Dimensions(); len(dims) != 3 || dims[0] != timeName || dims[1] != "latitude" || dims[2] != "longitude" {
			return fmt.Errorf("%w: %s has dimensions %v", ErrUnexpectedLayout, name, dims)
		}
		s.vars[i] = variable{name: name, vg: vg, pk: packingOf(vg.Attributes())}
	}
	return nil
}

func timeVar(nc api.Group) (string, api.VarGetter, error) {
	var firstErr error
	for _, name := range []string{"time", "valid_time"} {
		vg, err := nc.GetVarGetter(name)
		if err == nil {
			return name, vg, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", nil, fmt.Errorf("time axis: %w", firstErr)
}

func axisValues(nc api.Group, name string) ([]float64, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	xs, err := toFloat64s(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return xs, nil
}

func decodeTimes(vg api.VarGetter, units string) ([]time.Time, error) {
	v, err := vg.Values()
	if err != nil {
		return nil, err
	}
	offsets, err := toFloat64s(v)
	if err != nil {
		return nil, err
	}
	step, epoch := time.Hour, time.Unix(unixSecs1900, 0).UTC()
	if units != "" {
		step, epoch, err = parseTimeUnits(units)
		if err != nil {
			return nil, err
		}
	}
	ts := make([]time.Time, len(offsets))
	for i, off := range offsets {
		ts[i] = epoch.Add(time.Duration(math.Round(off * float64(step))))
	}
	return ts, nil
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (s *Scanner) Summary() []any {
	summary := []any{
		"file", s.path,
		"dims", []string{"ts", "la", "lo"},
		"metrics", windVars[:],
		"tsCnt", len(s.ts),
		"laCnt", len(s.la),
		"loCnt", len(s.lo),
	}
	if len(s.ts) > 0 {
		summary = append(summary, "first", s.ts[0], "last", s.ts[len(s.ts)-1])
	}
	return summary
}

// Latitudes returns the latitude axis.
func (s *Scanner) Latitudes() []float64 {
	return s.la
}

// Longitudes returns the longitude axis.
func (s *Scanner) Longitudes() []float64 {
	return s.lo
}

// Len returns the number of timestamps within the file.
func (s *Scanner) Len() int {
	return len(s.ts)
}

// Scan reads all components for the next timestamp.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.ts) {
		return false
	}
	var ms [len(windVars)]*mat.Dense
	for i := range s.vars {
		m, err := s.scan(&s.vars[i])
		if err != nil {
			s.err = fmt.Errorf("%s: %s at %v: %w", s.path, s.vars[i].name, s.ts[s.pos], err)
			return false
		}
		ms[i] = m
	}
	s.grids = &Grids{
		Time: s.ts[s.pos],
		U10:  ms[0],
		V10:  ms[1],
		U100: ms[2],
		V100: ms[3],
	}
	s.pos++
	return true
}

func (s *Scanner) scan(v *variable) (*mat.Dense, error) {
	begin := int64(s.pos)
	limit := begin + 1
	raw, err := v.vg.GetSlice(begin, limit)
	if err != nil {
		return nil, err
	}
	data, err := unpack(raw, v.pk, len(s.la), len(s.lo))
	if err != nil {
		return nil, err
	}
	return mat.NewDense(len(s.la), len(s.lo), data), nil
}

// Grids returns the components read by the last Scan() operation. The
// function transfers ownership to the caller and the subsequent calls to this
// function without prior invocation of Scan() will return nil.
func (s *Scanner) Grids() *Grids {
	g := s.grids
	s.grids = nil
	return g
}

// Err returns the first error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}
