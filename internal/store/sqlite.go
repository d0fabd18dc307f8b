package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/mobility-cli/internal/etl"
	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/rank"
)

// sqliteTimeLayout is how timestamps are stored; always UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// SQLiteStore implements Store using modernc.org/sqlite. It is the
// local/offline backend; Postgres is the default.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS trips (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	vendor_id        TEXT,
	pickup_datetime  TEXT NOT NULL,
	dropoff_datetime TEXT NOT NULL,
	pickup_lat       REAL NOT NULL,
	pickup_lng       REAL NOT NULL,
	dropoff_lat      REAL NOT NULL,
	dropoff_lng      REAL NOT NULL,
	passenger_count  INTEGER NOT NULL,
	fare_amount      REAL NOT NULL,
	tip_amount       REAL NOT NULL,
	payment_type     TEXT,
	distance_km      REAL NOT NULL,
	duration_min     REAL NOT NULL,
	speed_kmh        REAL NOT NULL,
	fare_per_km      REAL NOT NULL,
	hour_of_day      INTEGER NOT NULL,
	day_of_week      INTEGER NOT NULL,
	is_rush_hour     INTEGER NOT NULL,
	is_weekend       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trips_pickup_datetime ON trips(pickup_datetime);
CREATE INDEX IF NOT EXISTS idx_trips_hour_of_day ON trips(hour_of_day);

CREATE TABLE IF NOT EXISTS etl_runs (
	id          TEXT PRIMARY KEY,
	started_at  TEXT NOT NULL,
	seen        INTEGER NOT NULL,
	accepted    INTEGER NOT NULL,
	rejected    INTEGER NOT NULL,
	reasons     TEXT NOT NULL,
	batches     INTEGER NOT NULL,
	committed   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteBatch inserts one batch of enriched trips inside a single transaction,
// so a batch commits fully or not at all.
func (s *SQLiteStore) WriteBatch(ctx context.Context, trips []model.Trip) error {
	if len(trips) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin batch tx")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := "(" + strings.Repeat("?, ", len(tripColumns)-1) + "?)"
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trips (`+strings.Join(tripColumns, ", ")+`) VALUES `+placeholders,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare trip insert")
	}
	defer stmt.Close()

	for _, t := range trips {
		row := tripRow(t)
		// Timestamps are stored as text in a fixed layout.
		row[1] = t.PickupAt.UTC().Format(sqliteTimeLayout)
		row[2] = t.DropoffAt.UTC().Format(sqliteTimeLayout)
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrap(err, "sqlite: insert trip")
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit batch")
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, report *etl.Report) error {
	reasons, err := json.Marshal(report.Reasons)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal reasons")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO etl_runs (id, started_at, seen, accepted, rejected, reasons, batches, committed, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt.UTC().Format(sqliteTimeLayout),
		report.Seen, report.Accepted, report.Rejected,
		string(reasons), report.Batches, report.Committed, report.Duration.Milliseconds(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record run %s", report.RunID)
	}
	return nil
}

// TopTipped streams all trips through the bounded selector.
func (s *SQLiteStore) TopTipped(ctx context.Context, k int) ([]rank.Scored[model.Trip], error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+strings.Join(tripColumns, ", ")+` FROM trips`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query trips for top tipped")
	}
	defer rows.Close()

	var scanErr error
	results := rank.TopK(k, rank.TipRatio, func() (model.Trip, bool) {
		if !rows.Next() {
			return model.Trip{}, false
		}
		t, err := scanSQLiteTrip(rows)
		if err != nil {
			scanErr = err
			return model.Trip{}, false
		}
		return t, true
	})
	if scanErr != nil {
		return nil, scanErr
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate trip rows")
	}
	return results, nil
}

func (s *SQLiteStore) Summary(ctx context.Context, from, to *time.Time) (*Summary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(AVG(speed_kmh), 0),
		       COALESCE(AVG(fare_per_km), 0),
		       COALESCE(AVG(duration_min), 0)
		FROM trips`
	where, args := sqlitePickupWindow(from, to)
	query += where

	var sum Summary
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&sum.Trips, &sum.AvgSpeedKmh, &sum.AvgFarePerKm, &sum.AvgDurationMin,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: summary")
	}
	return &sum, nil
}

func (s *SQLiteStore) Hourly(ctx context.Context, from, to *time.Time) ([]HourlyBucket, error) {
	query := `
		SELECT strftime('%Y-%m-%d %H:00:00', pickup_datetime),
		       COUNT(*),
		       COALESCE(AVG(speed_kmh), 0)
		FROM trips`
	where, args := sqlitePickupWindow(from, to)
	query += where + `
		GROUP BY 1
		ORDER BY 1`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: hourly")
	}
	defer rows.Close()

	var buckets []HourlyBucket
	for rows.Next() {
		var b HourlyBucket
		if err := rows.Scan(&b.Hour, &b.Trips, &b.AvgSpeedKmh); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan hourly row")
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate hourly rows")
	}
	return buckets, nil
}

func (s *SQLiteStore) ListTrips(ctx context.Context, limit, offset int) ([]model.Trip, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+strings.Join(tripColumns, ", ")+` FROM trips ORDER BY pickup_datetime DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list trips")
	}
	defer rows.Close()

	var trips []model.Trip
	for rows.Next() {
		t, err := scanSQLiteTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate trip rows")
	}
	return trips, nil
}

func sqlitePickupWindow(from, to *time.Time) (string, []any) {
	var clauses []string
	var args []any
	if from != nil {
		clauses = append(clauses, `pickup_datetime >= ?`)
		args = append(args, from.UTC().Format(sqliteTimeLayout))
	}
	if to != nil {
		clauses = append(clauses, `pickup_datetime <= ?`)
		args = append(args, to.UTC().Format(sqliteTimeLayout))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return `
		WHERE ` + strings.Join(clauses, " AND "), args
}

func scanSQLiteTrip(rows *sql.Rows) (model.Trip, error) {
	var t model.Trip
	var pickup, dropoff string
	err := rows.Scan(
		&t.VendorID, &pickup, &dropoff,
		&t.PickupLat, &t.PickupLng, &t.DropoffLat, &t.DropoffLng,
		&t.PassengerCount, &t.FareAmount, &t.TipAmount, &t.PaymentType,
		&t.DistanceKm, &t.DurationMin, &t.SpeedKmh, &t.FarePerKm,
		&t.HourOfDay, &t.DayOfWeek, &t.IsRushHour, &t.IsWeekend,
	)
	if err != nil {
		return t, eris.Wrap(err, "sqlite: scan trip row")
	}
	if t.PickupAt, err = time.Parse(sqliteTimeLayout, pickup); err != nil {
		return t, eris.Wrap(err, "sqlite: parse pickup timestamp")
	}
	if t.DropoffAt, err = time.Parse(sqliteTimeLayout, dropoff); err != nil {
		return t, eris.Wrap(err, "sqlite: parse dropoff timestamp")
	}
	return t, nil
}
