// Package validate classifies raw trips as accepted (enriched) or rejected.
package validate

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/mobility-cli/internal/geo"
	"github.com/sells-group/mobility-cli/internal/model"
)

// Thresholds holds the sanity limits applied to each raw trip. Values are
// injected at construction so validators with different limits can coexist;
// defaults live in the config package, not here.
type Thresholds struct {
	MinLat         float64 `yaml:"min_lat" mapstructure:"min_lat"`
	MaxLat         float64 `yaml:"max_lat" mapstructure:"max_lat"`
	MinLng         float64 `yaml:"min_lng" mapstructure:"min_lng"`
	MaxLng         float64 `yaml:"max_lng" mapstructure:"max_lng"`
	MaxDurationMin float64 `yaml:"max_duration_min" mapstructure:"max_duration_min"`
	MaxDistanceKm  float64 `yaml:"max_distance_km" mapstructure:"max_distance_km"`
	MaxSpeedKmh    float64 `yaml:"max_speed_kmh" mapstructure:"max_speed_kmh"`
	MaxPassengers  int     `yaml:"max_passengers" mapstructure:"max_passengers"`
}

// Validator applies the trip sanity predicates with a fixed threshold set.
type Validator struct {
	cfg    Thresholds
	bounds *geom.Bounds
}

// New creates a Validator for the given thresholds.
func New(cfg Thresholds) *Validator {
	bounds := geom.NewBounds(geom.XY)
	bounds.Set(cfg.MinLng, cfg.MinLat, cfg.MaxLng, cfg.MaxLat)
	return &Validator{cfg: cfg, bounds: bounds}
}

// timestampLayouts are the accepted pickup/dropoff formats, most common first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006 15:04:05",
	time.RFC3339,
}

// Validate applies the predicates in a fixed order and returns either an
// enriched trip or a rejection carrying the first failing reason. It is pure
// and never returns an error: malformed input is data, not a fault.
func (v *Validator) Validate(raw model.RawTrip) (*model.Trip, *model.Rejection) {
	reject := func(reason model.RejectReason) (*model.Trip, *model.Rejection) {
		return nil, &model.Rejection{Trip: raw, Reason: reason}
	}

	pickupAt, ok := parseTimestamp(raw.PickupAt)
	if !ok {
		return reject(model.ReasonMalformedField)
	}
	dropoffAt, ok := parseTimestamp(raw.DropoffAt)
	if !ok {
		return reject(model.ReasonMalformedField)
	}

	pickupLat, ok1 := parseFloat(raw.PickupLat)
	pickupLng, ok2 := parseFloat(raw.PickupLng)
	dropoffLat, ok3 := parseFloat(raw.DropoffLat)
	dropoffLng, ok4 := parseFloat(raw.DropoffLng)
	fare, ok5 := parseFloat(raw.FareAmount)
	tip, ok6 := parseFloat(raw.TipAmount)
	passengers, ok7 := parseInt(raw.PassengerCount)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 {
		return reject(model.ReasonMalformedField)
	}

	if !v.inBounds(pickupLat, pickupLng) || !v.inBounds(dropoffLat, dropoffLng) {
		return reject(model.ReasonOutOfBounds)
	}

	if !dropoffAt.After(pickupAt) {
		return reject(model.ReasonNonPositiveDuration)
	}

	durationMin := geo.DurationMinutes(pickupAt, dropoffAt)
	if durationMin <= 0 || durationMin > v.cfg.MaxDurationMin {
		return reject(model.ReasonDurationOutOfRange)
	}

	distanceKm := geo.DistanceKm(pickupLat, pickupLng, dropoffLat, dropoffLng)
	if distanceKm < 0 || distanceKm > v.cfg.MaxDistanceKm {
		return reject(model.ReasonDistanceOutOfRange)
	}

	if fare < 0 || tip < 0 {
		return reject(model.ReasonNegativeMonetaryValue)
	}

	speedKmh := distanceKm / durationMin * 60
	if speedKmh > v.cfg.MaxSpeedKmh {
		return reject(model.ReasonImplausibleSpeed)
	}

	if passengers < 1 || passengers > v.cfg.MaxPassengers {
		return reject(model.ReasonInvalidPassengerCount)
	}

	farePerKm := 0.0
	if distanceKm > 0 {
		farePerKm = fare / distanceKm
	}
	features := geo.TimeFeatures(pickupAt)

	return &model.Trip{
		VendorID:       strings.TrimSpace(raw.VendorID),
		PickupAt:       pickupAt,
		DropoffAt:      dropoffAt,
		PickupLat:      pickupLat,
		PickupLng:      pickupLng,
		DropoffLat:     dropoffLat,
		DropoffLng:     dropoffLng,
		PassengerCount: passengers,
		FareAmount:     fare,
		TipAmount:      tip,
		PaymentType:    strings.TrimSpace(raw.PaymentType),
		DistanceKm:     distanceKm,
		DurationMin:    durationMin,
		SpeedKmh:       speedKmh,
		FarePerKm:      farePerKm,
		HourOfDay:      features.HourOfDay,
		DayOfWeek:      features.DayOfWeek,
		IsRushHour:     features.IsRushHour,
		IsWeekend:      features.IsWeekend,
	}, nil
}

func (v *Validator) inBounds(lat, lng float64) bool {
	return v.bounds.OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
