package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mobility-cli/internal/etl"
	"github.com/sells-group/mobility-cli/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func tripRows(trips ...model.Trip) *pgxmock.Rows {
	rows := pgxmock.NewRows(tripColumns)
	for _, tr := range trips {
		rows.AddRow(tripRow(tr)...)
	}
	return rows
}

func TestPostgresWriteBatch(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	pickup := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	trips := []model.Trip{
		testTrip("V1", pickup, 10, 2),
		testTrip("V2", pickup.Add(time.Minute), 20, 4),
	}

	mock.ExpectCopyFrom(pgx.Identifier{"trips"}, tripColumns).WillReturnResult(2)

	require.NoError(t, st.WriteBatch(ctx, trips))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresWriteBatchEmpty(t *testing.T) {
	st, mock := newMockStore(t)

	// No COPY expected for an empty batch.
	require.NoError(t, st.WriteBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRecordRun(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	report := &etl.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
		Seen:      10,
		Accepted:  8,
		Rejected:  2,
		Reasons:   map[model.RejectReason]int{model.ReasonOutOfBounds: 2},
		Batches:   1,
		Committed: 8,
		Duration:  1500 * time.Millisecond,
	}

	mock.ExpectExec(`INSERT INTO etl_runs`).
		WithArgs(report.RunID, report.StartedAt, 10, 8, 2,
			[]byte(`{"OUT_OF_BOUNDS":2}`), 1, 8, int64(1500)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, st.RecordRun(ctx, report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTopTipped(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	pickup := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM trips`).
		WillReturnRows(tripRows(
			testTrip("A", pickup, 10, 5),
			testTrip("B", pickup, 20, 1),
			testTrip("C", pickup, 0, 9),
		))

	results, err := st.TopTipped(ctx, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "A", results[0].Record.VendorID)
	assert.Equal(t, 0.5, results[0].Score)
	assert.Equal(t, "B", results[1].Record.VendorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSummary(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	summaryCols := []string{"count", "avg_speed_kmh", "avg_fare_per_km", "avg_duration_min"}

	t.Run("Unwindowed", func(t *testing.T) {
		mock.ExpectQuery(`SELECT COUNT\(\*\)`).
			WillReturnRows(pgxmock.NewRows(summaryCols).AddRow(5, 30.5, 2.1, 12.0))

		sum, err := st.Summary(ctx, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 5, sum.Trips)
		assert.Equal(t, 30.5, sum.AvgSpeedKmh)
	})

	t.Run("Windowed", func(t *testing.T) {
		from := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		to := from.Add(24 * time.Hour)

		mock.ExpectQuery(`WHERE pickup_datetime >= \$1 AND pickup_datetime <= \$2`).
			WithArgs(from, to).
			WillReturnRows(pgxmock.NewRows(summaryCols).AddRow(2, 33.4, 2.2, 10.0))

		sum, err := st.Summary(ctx, &from, &to)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Trips)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresHourly(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT to_char\(date_trunc\('hour', pickup_datetime\)`).
		WillReturnRows(pgxmock.NewRows([]string{"hour", "trips", "avg_speed_kmh"}).
			AddRow("2024-03-04 08:00:00", 2, 33.4).
			AddRow("2024-03-04 09:00:00", 1, 28.0))

	buckets, err := st.Hourly(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	assert.Equal(t, "2024-03-04 08:00:00", buckets[0].Hour)
	assert.Equal(t, 2, buckets[0].Trips)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListTrips(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	pickup := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .+ FROM trips ORDER BY pickup_datetime DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(tripRows(testTrip("V1", pickup, 10, 2)))

	trips, err := st.ListTrips(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "V1", trips[0].VendorID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrate(t *testing.T) {
	ctx := context.Background()
	st, mock := newMockStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS trips`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
