// Package model defines the trip record types shared across the ETL pipeline.
package model

import "time"

// RawTrip is one untrusted input row as read from a source. Every field stays
// a string until the validator parses it; numeric fields may be missing,
// non-numeric, or out of physical range.
type RawTrip struct {
	Line           int    `json:"line"`
	VendorID       string `json:"vendor_id"`
	PickupAt       string `json:"pickup_datetime"`
	DropoffAt      string `json:"dropoff_datetime"`
	PickupLat      string `json:"pickup_lat"`
	PickupLng      string `json:"pickup_lng"`
	DropoffLat     string `json:"dropoff_lat"`
	DropoffLng     string `json:"dropoff_lng"`
	PassengerCount string `json:"passenger_count"`
	FareAmount     string `json:"fare_amount"`
	TipAmount      string `json:"tip_amount"`
	PaymentType    string `json:"payment_type"`
}

// Trip is a validated trip with derived fields attached.
// Invariants after validation: DurationMin > 0, DistanceKm >= 0, and
// FarePerKm is finite.
type Trip struct {
	VendorID       string    `json:"vendor_id"`
	PickupAt       time.Time `json:"pickup_datetime"`
	DropoffAt      time.Time `json:"dropoff_datetime"`
	PickupLat      float64   `json:"pickup_lat"`
	PickupLng      float64   `json:"pickup_lng"`
	DropoffLat     float64   `json:"dropoff_lat"`
	DropoffLng     float64   `json:"dropoff_lng"`
	PassengerCount int       `json:"passenger_count"`
	FareAmount     float64   `json:"fare_amount"`
	TipAmount      float64   `json:"tip_amount"`
	PaymentType    string    `json:"payment_type"`

	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	SpeedKmh    float64 `json:"speed_kmh"`
	FarePerKm   float64 `json:"fare_per_km"`
	HourOfDay   int     `json:"hour_of_day"`
	DayOfWeek   int     `json:"day_of_week"`
	IsRushHour  bool    `json:"is_rush_hour"`
	IsWeekend   bool    `json:"is_weekend"`
}

// RejectReason classifies why a raw trip failed validation.
type RejectReason string

const (
	ReasonMalformedField        RejectReason = "MALFORMED_FIELD"
	ReasonOutOfBounds           RejectReason = "OUT_OF_BOUNDS"
	ReasonNonPositiveDuration   RejectReason = "NON_POSITIVE_DURATION"
	ReasonDurationOutOfRange    RejectReason = "DURATION_OUT_OF_RANGE"
	ReasonDistanceOutOfRange    RejectReason = "DISTANCE_OUT_OF_RANGE"
	ReasonNegativeMonetaryValue RejectReason = "NEGATIVE_MONETARY_VALUE"
	ReasonImplausibleSpeed      RejectReason = "IMPLAUSIBLE_SPEED"
	ReasonInvalidPassengerCount RejectReason = "INVALID_PASSENGER_COUNT"
)

// Rejection pairs a raw trip with the first predicate that failed.
// A rejection carries exactly one reason.
type Rejection struct {
	Trip   RawTrip      `json:"trip"`
	Reason RejectReason `json:"reason"`
}
