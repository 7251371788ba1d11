package wind

// Record is a wind reading derived at a given geo location and height at a
// given time.
type Record struct {
	// Dimensions
	Timestamp int64 // unix milliseconds
	Latitude  float64
	Longitude float64
	Height    float64

	// Metrics
	Speed     float64
	Direction float64
}

// Records flattens the series into records for the given location and height.
func (sd *SpeedDirection) Records(loc Location, height float64) []Record {
	recs := make([]Record, len(sd.Speed))
	for i := range recs {
		recs[i] = Record{
			Timestamp: sd.Times[i].UnixMilli(),
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
			Height:    height,
			Speed:     sd.Speed[i],
			Direction: sd.Direction[i],
		}
	}
	return recs
}
