// Package geo provides pure geometric and temporal derivations for trips.
package geo

import (
	"math"
	"time"
)

// earthRadiusKm is the IUGG mean Earth radius.
const earthRadiusKm = 6371.0088

// DistanceKm returns the great-circle distance in kilometers between two
// points given in decimal degrees, using the Haversine formula. It does no
// range checking; coordinate validation is the caller's job.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DurationMinutes returns dropoff minus pickup in minutes. The result is
// negative when dropoff precedes pickup; rejecting that is the validator's
// job, not this function's.
func DurationMinutes(pickup, dropoff time.Time) float64 {
	return dropoff.Sub(pickup).Minutes()
}

// rushHours are the weekday pickup hours treated as rush hour.
var rushHours = map[int]bool{
	7: true, 8: true, 9: true,
	16: true, 17: true, 18: true, 19: true,
}

// Features holds time-of-day attributes derived from a pickup timestamp.
// DayOfWeek is zero-based on Monday, so Saturday and Sunday are 5 and 6.
type Features struct {
	HourOfDay  int  `json:"hour_of_day"`
	DayOfWeek  int  `json:"day_of_week"`
	IsWeekend  bool `json:"is_weekend"`
	IsRushHour bool `json:"is_rush_hour"`
}

// TimeFeatures derives hour and day attributes from t.
func TimeFeatures(t time.Time) Features {
	hour := t.Hour()
	dow := (int(t.Weekday()) + 6) % 7 // Monday = 0
	weekend := dow >= 5
	return Features{
		HourOfDay:  hour,
		DayOfWeek:  dow,
		IsWeekend:  weekend,
		IsRushHour: rushHours[hour] && !weekend,
	}
}
