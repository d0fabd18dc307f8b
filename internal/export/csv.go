// Package export writes cleaned trips and query results to files.
package export

import (
	"context"
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-cli/internal/model"
)

// csvHeader matches the cleaned-trip layout loaded into the store, so an
// exported file can be re-ingested or inspected directly.
var csvHeader = []string{
	"vendor_id", "pickup_datetime", "dropoff_datetime",
	"pickup_lat", "pickup_lng", "dropoff_lat", "dropoff_lng",
	"passenger_count", "fare_amount", "tip_amount", "payment_type",
	"distance_km", "duration_min", "speed_kmh", "fare_per_km",
	"hour_of_day", "day_of_week", "is_rush_hour", "is_weekend",
}

// CSVWriter is a BatchWriter that appends cleaned trips to a CSV file.
type CSVWriter struct {
	f *os.File
	w *csv.Writer
}

// NewCSVWriter creates path, truncating any existing file, and writes the
// header row.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: create %s", path)
	}
	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return nil, eris.Wrap(err, "export: write CSV header")
	}
	return &CSVWriter{f: f, w: w}, nil
}

func (c *CSVWriter) WriteBatch(_ context.Context, trips []model.Trip) error {
	for _, t := range trips {
		record := []string{
			t.VendorID,
			t.PickupAt.Format("2006-01-02 15:04:05"),
			t.DropoffAt.Format("2006-01-02 15:04:05"),
			formatFloat(t.PickupLat, 6),
			formatFloat(t.PickupLng, 6),
			formatFloat(t.DropoffLat, 6),
			formatFloat(t.DropoffLng, 6),
			strconv.Itoa(t.PassengerCount),
			formatFloat(t.FareAmount, 2),
			formatFloat(t.TipAmount, 2),
			t.PaymentType,
			formatFloat(t.DistanceKm, 3),
			formatFloat(t.DurationMin, 3),
			formatFloat(t.SpeedKmh, 3),
			formatFloat(t.FarePerKm, 3),
			strconv.Itoa(t.HourOfDay),
			strconv.Itoa(t.DayOfWeek),
			strconv.FormatBool(t.IsRushHour),
			strconv.FormatBool(t.IsWeekend),
		}
		if err := c.w.Write(record); err != nil {
			return eris.Wrap(err, "export: write CSV record")
		}
	}
	c.w.Flush()
	return eris.Wrap(c.w.Error(), "export: flush CSV")
}

// Close flushes buffered rows and closes the file.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return eris.Wrap(err, "export: flush CSV")
	}
	return eris.Wrap(c.f.Close(), "export: close CSV file")
}

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
