package source

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mobility-cli/internal/model"
)

const tripHeader = "vendor_id,pickup_datetime,dropoff_datetime,pickup_lat,pickup_lng,dropoff_lat,dropoff_lng,passenger_count,fare_amount,tip_amount,payment_type\n"

func tripRowCSV(vendor string) string {
	return vendor + ",2024-03-04 08:00:00,2024-03-04 08:10:00,40.70,-74.00,40.75,-74.00,1,12.50,2.00,card\n"
}

func writeCSV(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func drain(t *testing.T, r Reader) []model.RawTrip {
	t.Helper()
	var trips []model.RawTrip
	for {
		raw, err := r.Next()
		if err == io.EOF {
			return trips
		}
		require.NoError(t, err)
		trips = append(trips, raw)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.csv")
	writeCSV(t, path, tripHeader+tripRowCSV("V1")+tripRowCSV("V2"))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	trips := drain(t, r)
	require.Len(t, trips, 2)
	assert.Equal(t, "V1", trips[0].VendorID)
	assert.Equal(t, "2024-03-04 08:00:00", trips[0].PickupAt)
	assert.Equal(t, "40.70", trips[0].PickupLat)
	assert.Equal(t, "card", trips[0].PaymentType)
	assert.Equal(t, 1, trips[0].Line)
	assert.Equal(t, 2, trips[1].Line)
}

func TestOpenMissingPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))

	// Lexical order across the tree: a.csv, then nested/c.csv, then z.csv.
	// The .txt file is skipped.
	writeCSV(t, filepath.Join(dir, "z.csv"), tripHeader+tripRowCSV("Z"))
	writeCSV(t, filepath.Join(dir, "a.csv"), tripHeader+tripRowCSV("A1")+tripRowCSV("A2"))
	writeCSV(t, filepath.Join(sub, "c.csv"), tripHeader+tripRowCSV("C"))
	writeCSV(t, filepath.Join(dir, "notes.txt"), "not a csv")

	r, err := Open(dir)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	trips := drain(t, r)
	require.Len(t, trips, 4)
	assert.Equal(t, "A1", trips[0].VendorID)
	assert.Equal(t, "A2", trips[1].VendorID)
	assert.Equal(t, "C", trips[2].VendorID)
	assert.Equal(t, "Z", trips[3].VendorID)

	// Line ordinals are global across files.
	for i, trip := range trips {
		assert.Equal(t, i+1, trip.Line)
	}
}

func TestOpenZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trips.zip")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, member := range []struct{ name, body string }{
		{"one.csv", tripHeader + tripRowCSV("Z1")},
		{"readme.md", "ignored"},
		{"two.csv", tripHeader + tripRowCSV("Z2") + tripRowCSV("Z3")},
	} {
		w, err := zw.Create(member.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(member.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)

	trips := drain(t, r)
	require.Len(t, trips, 3)
	assert.Equal(t, "Z1", trips[0].VendorID)
	assert.Equal(t, "Z2", trips[1].VendorID)
	assert.Equal(t, "Z3", trips[2].VendorID)
	assert.Equal(t, 3, trips[2].Line)

	assert.NoError(t, r.Close())
}

func TestHeaderAliases(t *testing.T) {
	// TLC-style export headers map onto the same fields.
	header := "VendorID,tpep_pickup_datetime,tpep_dropoff_datetime,pickup_latitude,pickup_longitude,dropoff_latitude,dropoff_longitude,passenger_count,fare_amount,tip_amount,payment_type\n"
	path := filepath.Join(t.TempDir(), "tlc.csv")
	writeCSV(t, path, header+tripRowCSV("V9"))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	trips := drain(t, r)
	require.Len(t, trips, 1)
	assert.Equal(t, "V9", trips[0].VendorID)
	assert.Equal(t, "2024-03-04 08:00:00", trips[0].PickupAt)
	assert.Equal(t, "40.70", trips[0].PickupLat)
	assert.Equal(t, "-74.00", trips[0].DropoffLng)
}

func TestMissingColumnsYieldEmptyFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.csv")
	writeCSV(t, path, "vendor_id,fare_amount\nV1,9.00\n")

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	trips := drain(t, r)
	require.Len(t, trips, 1)
	assert.Equal(t, "V1", trips[0].VendorID)
	assert.Equal(t, "9.00", trips[0].FareAmount)
	assert.Empty(t, trips[0].PickupAt)
	assert.Empty(t, trips[0].PickupLat)
}

func TestEmptyCSVAfterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeCSV(t, path, tripHeader)

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	assert.Empty(t, drain(t, r))
}
