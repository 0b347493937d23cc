package report

import (
	"fmt"
	"math"

	"github.com/livepeer/trip-analyzer/analysis"
	"github.com/livepeer/trip-analyzer/trips"
	"github.com/xuri/excelize/v2"
)

const (
	MeansSheet = "RollingMean"
	RunSheet   = "Run"
)

// SaveXLSX writes one row per window, with its bounds and mean, plus a sheet
// describing the run parameters.
func SaveXLSX(path string, res *analysis.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(MeansSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("error removing default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(MeansSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	header := []interface{}{"window", "start", "end", "mean_trip_distance"}
	if err := f.SetSheetRow(MeansSheet, "A1", &header); err != nil {
		return err
	}
	for i, start := range res.Starts {
		row := []interface{}{
			i,
			start.Format(trips.TimestampLayout),
			start.Add(res.Window.Size.Duration).Format(trips.TimestampLayout),
		}
		// empty windows are left without a mean
		if i < len(res.Means) && !math.IsNaN(res.Means[i]) {
			row = append(row, res.Means[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MeansSheet, cell, &row); err != nil {
			return fmt.Errorf("error writing row %d: %w", i, err)
		}
	}

	if _, err := f.NewSheet(RunSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	months := make([]string, len(res.Months))
	for i, ym := range res.Months {
		months[i] = ym.String()
	}
	params := [][]interface{}{
		{"run_id", res.RunID.String()},
		{"strategy", res.Strategy},
		{"anchor", res.Interval.Anchor.Format(trips.TimestampLayout)},
		{"min_offset", res.Interval.MinOffset.String()},
		{"max_offset", res.Interval.MaxOffset.String()},
		{"window", res.Window.Size.Duration.String()},
		{"step", res.Window.Step.Duration.String()},
		{"months", fmt.Sprint(months)},
		{"records", res.Records},
	}
	for i, param := range params {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RunSheet, cell, &param); err != nil {
			return fmt.Errorf("error writing run parameter %v: %w", param[0], err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving %s: %w", path, err)
	}
	return nil
}
