package wind

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	site   = Location{Lat: 55.6, Lon: 7.9}
	y2000  = Period{StartYear: 2000, EndYear: 2000}
	tLats  = []float64{55.75, 55.5}
	tLons  = []float64{7.75, 8}
	tStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
)

// westerly is a uniform field with 1 m/s at 10 m and 2 m/s at 100 m, both
// blowing from the west.
func westerly(t *testing.T, hours int) *Resource {
	t.Helper()
	f := testField(t, hourly(tStart, hours), tLats, tLons,
		constant(1), constant(0), constant(2), constant(0))
	return NewResource(nil, f)
}

func TestSpeedDirectionAtPoint(t *testing.T) {
	r := westerly(t, 2)

	sd, err := r.SpeedDirectionAtPoint(site, 10, y2000)
	require.NoError(t, err)
	require.Len(t, sd.Speed, 2)
	assert.Equal(t, hourly(tStart, 2), sd.Times)
	for i := range sd.Speed {
		assert.InDelta(t, 1, sd.Speed[i], 1e-6)
		assert.GreaterOrEqual(t, sd.Direction[i], 260.0)
		assert.LessOrEqual(t, sd.Direction[i], 280.0)
	}

	sd, err = r.SpeedDirectionAtPoint(site, 100, y2000)
	require.NoError(t, err)
	assert.InDelta(t, 2, sd.Speed[0], 1e-6)
	assert.InDelta(t, 270, sd.Direction[0], 1e-9)
}

func TestSpeedDirectionAtPoint_Errors(t *testing.T) {
	r := westerly(t, 2)

	_, err := r.SpeedDirectionAtPoint(site, 50, y2000)
	assert.ErrorIs(t, err, ErrInvalidHeight)

	_, err = r.SpeedDirectionAtPoint(Location{Lat: 60, Lon: 7.9}, 10, y2000)
	assert.ErrorIs(t, err, ErrOutOfGridBounds)

	_, err = r.SpeedDirectionAtPoint(site, 10, Period{StartYear: 2001, EndYear: 2000})
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSpeedDirectionAtPoint_Idempotent(t *testing.T) {
	r := westerly(t, 24)
	a, err := r.SpeedDirectionAtPoint(site, 100, y2000)
	require.NoError(t, err)
	b, err := r.SpeedDirectionAtPoint(site, 100, y2000)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestShearExponent(t *testing.T) {
	r := westerly(t, 2)
	alpha, err := r.ShearExponent(site, y2000)
	require.NoError(t, err)
	assert.InDelta(t, math.Log10(2), alpha, 0.01)
}

func TestShearExponent_Median(t *testing.T) {
	// Hourly 100 m speeds of 2, 3 and 4 m/s over a constant 1 m/s at 10 m.
	high := func(ti int, _, _ float64) float64 { return float64(ti + 2) }
	f := testField(t, hourly(tStart, 3), tLats, tLons,
		constant(1), constant(0), high, constant(0))
	alpha, err := NewResource(nil, f).ShearExponent(site, y2000)
	require.NoError(t, err)
	assert.InDelta(t, math.Log10(3), alpha, 1e-9)
}

func TestShearExponent_InsufficientData(t *testing.T) {
	f := testField(t, hourly(tStart, 2), tLats, tLons,
		constant(0), constant(0), constant(2), constant(0))
	_, err := NewResource(nil, f).ShearExponent(site, y2000)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = westerly(t, 2).ShearExponent(site, Period{StartYear: 2005, EndYear: 2005})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestExtrapolateSpeed(t *testing.T) {
	r := westerly(t, 2)

	speeds, err := r.ExtrapolateSpeed(site, 150, 100, y2000)
	require.NoError(t, err)
	require.Len(t, speeds, 2)
	alpha := math.Log10(2)
	for _, s := range speeds {
		assert.InDelta(t, 2*math.Pow(1.5, alpha), s, 0.05)
	}

	speeds, err = r.ExtrapolateSpeed(site, 100, 10, y2000)
	require.NoError(t, err)
	assert.InDelta(t, 2, speeds[0], 1e-9)

	_, err = r.ExtrapolateSpeed(site, 150, 80, y2000)
	assert.ErrorIs(t, err, ErrInvalidHeight)
}

func TestExtrapolateSpeedWithAlpha(t *testing.T) {
	r := westerly(t, 2)

	speeds, err := r.ExtrapolateSpeedWithAlpha(site, 120, 100, 1.0/7, y2000)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Pow(1.2, 1.0/7), speeds[0], 1e-12)

	speeds, err = r.ExtrapolateSpeedWithAlpha(site, 100, 100, 5, y2000)
	require.NoError(t, err)
	assert.InDelta(t, 2, speeds[0], 1e-12)

	_, err = r.ExtrapolateSpeedWithAlpha(site, 120, 0, 1.0/7, y2000)
	assert.ErrorIs(t, err, ErrInvalidHeight)
}

// spread is a field whose speeds vary hour by hour, with 100 m always twice
// the 10 m speed.
func spread(t *testing.T) *Resource {
	t.Helper()
	speeds := weibullQuantiles(2, 6, 200)
	low := func(ti int, _, _ float64) float64 { return speeds[ti] }
	high := func(ti int, _, _ float64) float64 { return 2 * speeds[ti] }
	f := testField(t, hourly(tStart, len(speeds)), tLats, tLons,
		low, constant(0), high, constant(0))
	return NewResource(nil, f)
}

func TestFitWeibullAtPoint(t *testing.T) {
	r := spread(t)

	low, err := r.FitWeibullAtPoint(site, 10, y2000, false)
	require.NoError(t, err)
	high, err := r.FitWeibullAtPoint(site, 100, y2000, false)
	require.NoError(t, err)
	assert.InDelta(t, low.K, high.K, 1e-6)
	assert.InDelta(t, 2*low.A, high.A, 1e-6)

	// The measured 100 m series and its power-law projection to 100 m agree.
	projected, err := r.FitWeibullAtPoint(site, 100, y2000, true)
	require.NoError(t, err)
	assert.InDelta(t, high.K, projected.K, 1e-6)
	assert.InDelta(t, high.A, projected.A, 1e-6)

	hub, err := r.FitWeibullAtPoint(site, 120, y2000, false)
	require.NoError(t, err)
	assert.InDelta(t, high.K, hub.K, 1e-6)
	assert.InDelta(t, high.A*math.Pow(1.2, math.Log10(2)), hub.A, 1e-6)
}

func TestFitWeibullAtPoint_Errors(t *testing.T) {
	r := westerly(t, 2)
	_, err := r.FitWeibullAtPoint(Location{Lat: 0, Lon: 0}, 100, y2000, false)
	assert.ErrorIs(t, err, ErrOutOfGridBounds)

	calm := testField(t, hourly(tStart, 2), tLats, tLons,
		constant(0), constant(0), constant(0), constant(0))
	_, err = NewResource(nil, calm).FitWeibullAtPoint(site, 10, y2000, false)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestAnnualEnergy(t *testing.T) {
	r := westerly(t, 2)
	pc := testPowerCurve(t)

	mwh, err := r.AnnualEnergy(site, 100, pc, 2000, 1)
	require.NoError(t, err)
	assert.Greater(t, mwh, 0.0)
	assert.InDelta(t, 0.4, mwh, 1e-9)

	half, err := r.AnnualEnergy(site, 100, pc, 2000, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, mwh/2, half, 1e-12)

	taller, err := r.AnnualEnergy(site, 150, pc, 2000, 1)
	require.NoError(t, err)
	assert.Greater(t, taller, mwh)

	_, err = r.AnnualEnergy(site, 100, pc, 2001, 1)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRecords(t *testing.T) {
	sd, err := westerly(t, 2).SpeedDirectionAtPoint(site, 100, y2000)
	require.NoError(t, err)
	recs := sd.Records(site, 100)
	require.Len(t, recs, 2)
	r := recs[1]
	assert.Equal(t, tStart.Add(time.Hour).UnixMilli(), r.Timestamp)
	assert.Equal(t, 55.6, r.Latitude)
	assert.Equal(t, 7.9, r.Longitude)
	assert.Equal(t, 100.0, r.Height)
	assert.InDelta(t, 2, r.Speed, 1e-9)
	assert.InDelta(t, 270, r.Direction, 1e-9)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean([]float64{1, math.NaN(), 3, math.Inf(-1)}))
	assert.True(t, math.IsNaN(Mean(nil)))
}
