package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-cli/internal/db"
	"github.com/sells-group/mobility-cli/internal/etl"
	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/rank"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS trips (
	id               BIGSERIAL PRIMARY KEY,
	vendor_id        TEXT,
	pickup_datetime  TIMESTAMPTZ NOT NULL,
	dropoff_datetime TIMESTAMPTZ NOT NULL,
	pickup_lat       DOUBLE PRECISION NOT NULL,
	pickup_lng       DOUBLE PRECISION NOT NULL,
	dropoff_lat      DOUBLE PRECISION NOT NULL,
	dropoff_lng      DOUBLE PRECISION NOT NULL,
	passenger_count  INTEGER NOT NULL,
	fare_amount      DOUBLE PRECISION NOT NULL,
	tip_amount       DOUBLE PRECISION NOT NULL,
	payment_type     TEXT,
	distance_km      DOUBLE PRECISION NOT NULL,
	duration_min     DOUBLE PRECISION NOT NULL,
	speed_kmh        DOUBLE PRECISION NOT NULL,
	fare_per_km      DOUBLE PRECISION NOT NULL,
	hour_of_day      INTEGER NOT NULL,
	day_of_week      INTEGER NOT NULL,
	is_rush_hour     BOOLEAN NOT NULL,
	is_weekend       BOOLEAN NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_trips_pickup_datetime ON trips(pickup_datetime);
CREATE INDEX IF NOT EXISTS idx_trips_hour_of_day ON trips(hour_of_day);

CREATE TABLE IF NOT EXISTS etl_runs (
	id          TEXT PRIMARY KEY,
	started_at  TIMESTAMPTZ NOT NULL,
	seen        INTEGER NOT NULL,
	accepted    INTEGER NOT NULL,
	rejected    INTEGER NOT NULL,
	reasons     JSONB NOT NULL,
	batches     INTEGER NOT NULL,
	committed   INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// WriteBatch loads one batch of enriched trips via COPY.
func (s *PostgresStore) WriteBatch(ctx context.Context, trips []model.Trip) error {
	rows := make([][]any, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, tripRow(t))
	}
	if _, err := db.CopyFrom(ctx, s.pool, "trips", tripColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: write trip batch")
	}
	return nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, report *etl.Report) error {
	reasons, err := json.Marshal(report.Reasons)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal reasons")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO etl_runs (id, started_at, seen, accepted, rejected, reasons, batches, committed, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		report.RunID, report.StartedAt, report.Seen, report.Accepted, report.Rejected,
		reasons, report.Batches, report.Committed, report.Duration.Milliseconds(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record run %s", report.RunID)
	}
	return nil
}

// TopTipped streams all trips through the bounded selector, so only k trips
// are held in memory regardless of table size.
func (s *PostgresStore) TopTipped(ctx context.Context, k int) ([]rank.Scored[model.Trip], error) {
	rows, err := s.pool.Query(ctx, `SELECT `+strings.Join(tripColumns, ", ")+` FROM trips`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query trips for top tipped")
	}
	defer rows.Close()

	var scanErr error
	results := rank.TopK(k, rank.TipRatio, func() (model.Trip, bool) {
		if !rows.Next() {
			return model.Trip{}, false
		}
		t, err := scanTripColumns(rows.Scan)
		if err != nil {
			scanErr = eris.Wrap(err, "postgres: scan trip row")
			return model.Trip{}, false
		}
		return t, true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate trip rows")
	}
	return results, nil
}

func (s *PostgresStore) Summary(ctx context.Context, from, to *time.Time) (*Summary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(speed_kmh), 0),
		       COALESCE(AVG(fare_per_km), 0),
		       COALESCE(AVG(duration_min), 0)
		FROM trips`
	where, args := pickupWindow(from, to)
	query += where

	var sum Summary
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&sum.Trips, &sum.AvgSpeedKmh, &sum.AvgFarePerKm, &sum.AvgDurationMin,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: summary")
	}
	return &sum, nil
}

func (s *PostgresStore) Hourly(ctx context.Context, from, to *time.Time) ([]HourlyBucket, error) {
	query := `
		SELECT to_char(date_trunc('hour', pickup_datetime), 'YYYY-MM-DD HH24:00:00'),
		       COUNT(*),
		       COALESCE(AVG(speed_kmh), 0)
		FROM trips`
	where, args := pickupWindow(from, to)
	query += where + `
		GROUP BY 1
		ORDER BY 1`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: hourly")
	}
	defer rows.Close()

	var buckets []HourlyBucket
	for rows.Next() {
		var b HourlyBucket
		if err := rows.Scan(&b.Hour, &b.Trips, &b.AvgSpeedKmh); err != nil {
			return nil, eris.Wrap(err, "postgres: scan hourly row")
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate hourly rows")
	}
	return buckets, nil
}

func (s *PostgresStore) ListTrips(ctx context.Context, limit, offset int) ([]model.Trip, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+strings.Join(tripColumns, ", ")+` FROM trips ORDER BY pickup_datetime DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list trips")
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		t, err := scanTripColumns(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan trip row")
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate trip rows")
	}
	return trips, nil
}

// pickupWindow builds an optional WHERE clause over pickup_datetime.
func pickupWindow(from, to *time.Time) (string, []any) {
	var clauses []string
	var args []any
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, `pickup_datetime >= $1`)
	}
	if to != nil {
		args = append(args, *to)
		if len(args) == 1 {
			clauses = append(clauses, `pickup_datetime <= $1`)
		} else {
			clauses = append(clauses, `pickup_datetime <= $2`)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return `
		WHERE ` + strings.Join(clauses, " AND "), args
}

// scanTripColumns scans one row in tripColumns order.
func scanTripColumns(scan func(dest ...any) error) (model.Trip, error) {
	var t model.Trip
	err := scan(
		&t.VendorID, &t.PickupAt, &t.DropoffAt,
		&t.PickupLat, &t.PickupLng, &t.DropoffLat, &t.DropoffLng,
		&t.PassengerCount, &t.FareAmount, &t.TipAmount, &t.PaymentType,
		&t.DistanceKm, &t.DurationMin, &t.SpeedKmh, &t.FarePerKm,
		&t.HourOfDay, &t.DayOfWeek, &t.IsRushHour, &t.IsWeekend,
	)
	return t, err
}
