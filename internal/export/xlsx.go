package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/mobility-cli/internal/model"
	"github.com/sells-group/mobility-cli/internal/rank"
)

// WriteTopTippedXLSX writes a top-tipped report to an xlsx workbook.
func WriteTopTippedXLSX(path string, results []rank.Scored[model.Trip]) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("top_tipped")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, name := range []string{
		"rank", "tip_pct", "fare_amount", "tip_amount",
		"pickup_datetime", "vendor_id", "distance_km",
	} {
		header.AddCell().Value = name
	}

	for i, r := range results {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)
		row.AddCell().SetFloat(r.Score * 100)
		row.AddCell().SetFloat(r.Record.FareAmount)
		row.AddCell().SetFloat(r.Record.TipAmount)
		row.AddCell().Value = r.Record.PickupAt.Format("2006-01-02 15:04:05")
		row.AddCell().Value = r.Record.VendorID
		row.AddCell().SetFloat(r.Record.DistanceKm)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
