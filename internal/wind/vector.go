package wind

import (
	"math"
	"time"
)

// SpeedDirection is a wind speed and direction series aligned with Times.
type SpeedDirection struct {
	Times     []time.Time
	Speed     []float64 // m/s
	Direction []float64 // degrees the wind blows from, 0 = north, 90 = east
}

// SpeedDirectionFromComponents converts eastward (u) and northward (v)
// components to speed and meteorological direction.
func SpeedDirectionFromComponents(u, v []float64) (speed, direction []float64) {
	n := min(len(u), len(v))
	speed = make([]float64, n)
	direction = make([]float64, n)
	for i := 0; i < n; i++ {
		speed[i], direction[i] = speedDirection(u[i], v[i])
	}
	return speed, direction
}

// speedDirection negates both components so that the angle points to where
// the wind comes from.
func speedDirection(u, v float64) (float64, float64) {
	spd := math.Sqrt(u*u + v*v)
	dir := math.Mod(radToDegree(math.Atan2(-u, -v))+360.0, 360.0)
	return spd, dir
}

func radToDegree(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
