// Package powercurve loads turbine power curves from CSV files.
package powercurve

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
)

// ErrColumnsNotFound is returned when the speed and power columns cannot be
// identified.
var ErrColumnsNotFound = errors.New("power curve columns not found")

// Columns configures how the speed and power columns are recognised.
type Columns struct {
	// SpeedHints are case-insensitive substrings of the speed column header.
	// A hint ending in '*' matches a header prefix instead.
	SpeedHints []string `yaml:"speed_hints"`
	// PowerHints are case-insensitive substrings of the power column header.
	PowerHints []string `yaml:"power_hints"`
	// FallbackToPositional uses the first two columns as speed and power when
	// the hints do not identify both.
	FallbackToPositional bool `yaml:"fallback_to_positional"`
}

// DefaultColumns matches the headers of the NREL reference turbine files.
func DefaultColumns() Columns {
	return Columns{
		SpeedHints:           []string{"wind speed", "windspeed", "v*"},
		PowerHints:           []string{"power"},
		FallbackToPositional: true,
	}
}

// Load reads a power curve from a CSV file.
func Load(path string, cols Columns) (speeds, power []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	speeds, power, err = Read(f, cols)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return speeds, power, nil
}

// point is one row of a power curve after column selection.
type point struct {
	Speed float64 `csv:"speed"`
	Power float64 `csv:"power"`
}

// Read reads a power curve from CSV data with a header row.
func Read(r io.Reader, cols Columns) (speeds, power []float64, err error) {
	in := gocsv.LazyCSVReader(r)
	header, err := in.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: empty file", ErrColumnsNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	si, pi, err := cols.locate(header)
	if err != nil {
		return nil, nil, err
	}
	var points []point
	if err := gocsv.UnmarshalCSV(&projection{in: in, speed: si, power: pi}, &points); err != nil {
		return nil, nil, err
	}
	speeds = make([]float64, len(points))
	power = make([]float64, len(points))
	for i, p := range points {
		speeds[i], power[i] = p.Speed, p.Power
	}
	return speeds, power, nil
}

// projection presents the speed and power columns of a CSV body as a
// two-column CSV with its own header. Blank rows are dropped.
type projection struct {
	in           gocsv.CSVReader
	speed, power int
	started      bool
	row          int
}

func (p *projection) Read() ([]string, error) {
	if !p.started {
		p.started = true
		return []string{"speed", "power"}, nil
	}
	for {
		rec, err := p.in.Read()
		if err != nil {
			return nil, err
		}
		p.row++
		if isBlank(rec) {
			continue
		}
		if len(rec) <= max(p.speed, p.power) {
			return nil, fmt.Errorf("row %d: got %d fields", p.row, len(rec))
		}
		return []string{strings.TrimSpace(rec[p.speed]), strings.TrimSpace(rec[p.power])}, nil
	}
}

func (p *projection) ReadAll() ([][]string, error) {
	var recs [][]string
	for {
		rec, err := p.Read()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// locate returns the indexes of the speed and power columns. When several
// headers match a hint the last one wins.
func (c Columns) locate(header []string) (speed, power int, err error) {
	speed, power = -1, -1
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if matchAny(h, c.SpeedHints) {
			speed = i
		}
		if matchAny(h, c.PowerHints) {
			power = i
		}
	}
	if speed >= 0 && power >= 0 && speed != power {
		return speed, power, nil
	}
	if !c.FallbackToPositional {
		return 0, 0, fmt.Errorf("%w: header %q", ErrColumnsNotFound, header)
	}
	if len(header) < 2 {
		return 0, 0, fmt.Errorf("%w: need 2 columns, got %d", ErrColumnsNotFound, len(header))
	}
	return 0, 1, nil
}

func matchAny(header string, hints []string) bool {
	for _, hint := range hints {
		hint = strings.ToLower(hint)
		if prefix, ok := strings.CutSuffix(hint, "*"); ok {
			if strings.HasPrefix(header, prefix) {
				return true
			}
			continue
		}
		if strings.Contains(header, hint) {
			return true
		}
	}
	return false
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
