// Package geodist provides great-circle distance math and the distance
// tier classification used for guess markers.
package geodist

import (
	"math"

	"github.com/ozcodx/marcopolo/internal/model"
)

// earthRadiusKm is Earth's mean radius by convention.
const earthRadiusKm = 6371.0

// Tier thresholds (kilometers).
const (
	nearThreshold   = 500.0
	mediumThreshold = 1500.0
	farThreshold    = 3000.0
)

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// Haversine returns the great-circle distance in kilometers between two
// points given in decimal degrees. It is symmetric in its arguments and
// returns 0 for identical coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Between returns the distance in kilometers between two countries.
func Between(a, b model.Country) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// RoundKm rounds a distance to whole kilometers for display. The ledger
// keeps the unrounded value; rounding happens only at presentation time.
func RoundKm(km float64) int {
	return int(math.Round(km))
}

// Tier classifies a distance into the bucket used for marker coloring.
// Rules:
//   - near: distance < 500km
//   - medium: 500km <= distance < 1500km
//   - far: 1500km <= distance < 3000km
//   - very_far: distance >= 3000km
func Tier(km float64) model.Tier {
	switch {
	case km < nearThreshold:
		return model.TierNear
	case km < mediumThreshold:
		return model.TierMedium
	case km < farThreshold:
		return model.TierFar
	default:
		return model.TierVeryFar
	}
}
