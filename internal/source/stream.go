package source

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mobility-cli/internal/model"
)

// columnAliases maps each raw trip field to the header names it may appear
// under. Exports from different vendors disagree on the long vs. short forms.
var columnAliases = map[string][]string{
	"vendor_id":        {"vendor_id", "vendorid"},
	"pickup_datetime":  {"pickup_datetime", "tpep_pickup_datetime"},
	"dropoff_datetime": {"dropoff_datetime", "tpep_dropoff_datetime"},
	"pickup_lat":       {"pickup_lat", "pickup_latitude"},
	"pickup_lng":       {"pickup_lng", "pickup_longitude"},
	"dropoff_lat":      {"dropoff_lat", "dropoff_latitude"},
	"dropoff_lng":      {"dropoff_lng", "dropoff_longitude"},
	"passenger_count":  {"passenger_count"},
	"fare_amount":      {"fare_amount"},
	"tip_amount":       {"tip_amount"},
	"payment_type":     {"payment_type"},
}

// stream reads one CSV stream with a header row.
type stream struct {
	name   string
	rc     io.ReadCloser
	reader *csv.Reader
	colIdx map[string]int
}

func newStream(rc io.ReadCloser, name string) (*stream, error) {
	reader := csv.NewReader(rc)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "source: read CSV header of %s", name)
	}

	return &stream{
		name:   name,
		rc:     rc,
		reader: reader,
		colIdx: mapColumns(header),
	}, nil
}

func (s *stream) next() (model.RawTrip, error) {
	record, err := s.reader.Read()
	if err == io.EOF {
		return model.RawTrip{}, io.EOF
	}
	if err != nil {
		return model.RawTrip{}, eris.Wrapf(err, "source: read CSV record from %s", s.name)
	}

	return model.RawTrip{
		VendorID:       s.col(record, "vendor_id"),
		PickupAt:       s.col(record, "pickup_datetime"),
		DropoffAt:      s.col(record, "dropoff_datetime"),
		PickupLat:      s.col(record, "pickup_lat"),
		PickupLng:      s.col(record, "pickup_lng"),
		DropoffLat:     s.col(record, "dropoff_lat"),
		DropoffLng:     s.col(record, "dropoff_lng"),
		PassengerCount: s.col(record, "passenger_count"),
		FareAmount:     s.col(record, "fare_amount"),
		TipAmount:      s.col(record, "tip_amount"),
		PaymentType:    s.col(record, "payment_type"),
	}, nil
}

func (s *stream) close() error { return s.rc.Close() }

// col returns the value for a field, trying each header alias in order.
func (s *stream) col(record []string, field string) string {
	for _, alias := range columnAliases[field] {
		if idx, ok := s.colIdx[alias]; ok && idx < len(record) {
			return record[idx]
		}
	}
	return ""
}

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return m
}
