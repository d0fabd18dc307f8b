// Package store persists enriched trips and answers analytical queries.
package store

import (
	"context"
	"time"

	"github.com/sells-group/mobility-cli/internal/etl"
	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/rank"
)

// Summary aggregates trips over an optional pickup-time window.
type Summary struct {
	Trips          int     `json:"trips"`
	AvgSpeedKmh    float64 `json:"avg_speed_kmh"`
	AvgFarePerKm   float64 `json:"avg_fare_per_km"`
	AvgDurationMin float64 `json:"avg_duration_min"`
}

// HourlyBucket is one hour of aggregated trips.
type HourlyBucket struct {
	Hour        string  `json:"hour"`
	Trips       int     `json:"trips"`
	AvgSpeedKmh float64 `json:"avg_speed_kmh"`
}

// Store defines the persistence interface for trips and ETL run audit rows.
// WriteBatch satisfies etl.BatchWriter, so a Store can be handed straight to
// the pipeline as its sink.
type Store interface {
	// Loading
	WriteBatch(ctx context.Context, trips []model.Trip) error
	RecordRun(ctx context.Context, report *etl.Report) error

	// Queries
	TopTipped(ctx context.Context, k int) ([]rank.Scored[model.Trip], error)
	Summary(ctx context.Context, from, to *time.Time) (*Summary, error)
	Hourly(ctx context.Context, from, to *time.Time) ([]HourlyBucket, error)
	ListTrips(ctx context.Context, limit, offset int) ([]model.Trip, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// tripColumns is the column order used by both backends for inserts and
// full-row scans.
var tripColumns = []string{
	"vendor_id", "pickup_datetime", "dropoff_datetime",
	"pickup_lat", "pickup_lng", "dropoff_lat", "dropoff_lng",
	"passenger_count", "fare_amount", "tip_amount", "payment_type",
	"distance_km", "duration_min", "speed_kmh", "fare_per_km",
	"hour_of_day", "day_of_week", "is_rush_hour", "is_weekend",
}

func tripRow(t model.Trip) []any {
	return []any{
		t.VendorID, t.PickupAt.UTC(), t.DropoffAt.UTC(),
		t.PickupLat, t.PickupLng, t.DropoffLat, t.DropoffLng,
		t.PassengerCount, t.FareAmount, t.TipAmount, t.PaymentType,
		t.DistanceKm, t.DurationMin, t.SpeedKmh, t.FarePerKm,
		t.HourOfDay, t.DayOfWeek, t.IsRushHour, t.IsWeekend,
	}
}
