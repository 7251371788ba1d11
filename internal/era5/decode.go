package era5

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// packing describes how stored values map to physical values:
// physical = stored*scale + offset. Stored values equal to a fill value are
// missing.
type packing struct {
	scale  float64
	offset float64
	fill   []float64
}

func packingOf(attrs api.AttributeMap) packing {
	pk := packing{scale: 1}
	if attrs == nil {
		return pk
	}
	if v, ok := floatAttr(attrs, "scale_factor"); ok {
		pk.scale = v
	}
	if v, ok := floatAttr(attrs, "add_offset"); ok {
		pk.offset = v
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		if v, ok := floatAttr(attrs, key); ok {
			pk.fill = append(pk.fill, v)
		}
	}
	return pk
}

func (pk packing) apply(stored float64) float64 {
	for _, f := range pk.fill {
		if stored == f {
			return math.NaN()
		}
	}
	return stored*pk.scale + pk.offset
}

// unpack converts a single-timestamp slice as returned by GetSlice into a
// row-major latitude × longitude grid of physical values.
func unpack(raw any, pk packing, nLat, nLon int) ([]float64, error) {
	switch v := raw.(type) {
	case [][][]int16:
		return unpackGrid(v, pk, nLat, nLon)
	case [][][]int32:
		return unpackGrid(v, pk, nLat, nLon)
	case [][][]float32:
		return unpackGrid(v, pk, nLat, nLon)
	case [][][]float64:
		return unpackGrid(v, pk, nLat, nLon)
	}
	return nil, fmt.Errorf("%w: unsupported slice type %T", ErrUnexpectedLayout, raw)
}

func unpackGrid[T int16 | int32 | float32 | float64](v [][][]T, pk packing, nLat, nLon int) ([]float64, error) {
	if len(v) != 1 || len(v[0]) != nLat {
		return nil, fmt.Errorf("%w: got %d timestamps of %d rows, want 1 of %d", ErrUnexpectedLayout, len(v), rowsOf(v), nLat)
	}
	out := make([]float64, 0, nLat*nLon)
	for i, row := range v[0] {
		if len(row) != nLon {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrUnexpectedLayout, i, len(row), nLon)
		}
		for _, x := range row {
			out = append(out, pk.apply(float64(x)))
		}
	}
	return out, nil
}

func rowsOf[T any](v [][][]T) int {
	if len(v) == 0 {
		return 0
	}
	return len(v[0])
}

func toFloat64s(v any) ([]float64, error) {
	switch xs := v.(type) {
	case []float64:
		return append([]float64(nil), xs...), nil
	case []float32:
		return convert(xs), nil
	case []int64:
		return convert(xs), nil
	case []int32:
		return convert(xs), nil
	case []int16:
		return convert(xs), nil
	case []int8:
		return convert(xs), nil
	}
	return nil, fmt.Errorf("%w: unsupported axis type %T", ErrUnexpectedLayout, v)
}

func convert[T int8 | int16 | int32 | int64 | float32](xs []T) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func floatAttr(attrs api.AttributeMap, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int16:
		return float64(x), true
	case int8:
		return float64(x), true
	}
	if xs, err := toFloat64s(v); err == nil && len(xs) > 0 {
		return xs[0], true
	}
	return 0, false
}

func stringAttr(attrs api.AttributeMap, key string) (string, bool) {
	if attrs == nil {
		return "", false
	}
	v, ok := attrs.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

var timeStepUnits = map[string]time.Duration{
	"seconds": time.Second,
	"second":  time.Second,
	"minutes": time.Minute,
	"minute":  time.Minute,
	"hours":   time.Hour,
	"hour":    time.Hour,
	"days":    24 * time.Hour,
	"day":     24 * time.Hour,
}

var epochLayouts = []string{
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits parses CF time units such as
// "hours since 1900-01-01 00:00:00.0".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, since, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: time units %q", ErrUnexpectedLayout, units)
	}
	step, ok := timeStepUnits[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: time step %q", ErrUnexpectedLayout, unit)
	}
	since = strings.TrimSuffix(strings.TrimSpace(since), " UTC")
	for _, layout := range epochLayouts {
		if epoch, err := time.ParseInLocation(layout, since, time.UTC); err == nil {
			return step, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("%w: time origin %q", ErrUnexpectedLayout, since)
}
