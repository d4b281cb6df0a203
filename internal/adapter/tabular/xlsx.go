package tabular

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/ghcn-climatology/internal/domain"
)

// XLSXPath returns where the Excel snapshot for the station is written.
func (w *Writer) XLSXPath(stationID string) string {
	return filepath.Join(w.dir, stationID+"_daily_latest.xlsx")
}

// WriteDailyXLSX writes the daily table as an Excel workbook snapshot.
// The snapshot is a convenience copy of the daily CSV; callers treat a
// failure here as non-fatal.
func (w *Writer) WriteDailyXLSX(stationID string, rows []domain.DailyRow) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook

	const sheet = "Daily"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, name := range dailyHeader {
		if err := setCell(f, sheet, col+1, 1, name); err != nil {
			return err
		}
	}

	for i, r := range rows {
		rowNum := i + 2
		flag := 0
		if r.ImputedTempFlag {
			flag = 1
		}
		cells := []any{
			r.Date.Format("2006-01-02"),
			r.Year,
			r.DOY366,
			cellValue(intPtrToAny(r.DOY365)),
			cellValue(floatPtrToAny(r.TMinC)),
			cellValue(floatPtrToAny(r.TMaxC)),
			cellValue(floatPtrToAny(r.TAvgC)),
			cellValue(floatPtrToAny(r.PrecipMM)),
			cellValue(floatPtrToAny(r.SnowfallMM)),
			cellValue(floatPtrToAny(r.SnowDepthMM)),
			flag,
		}
		for col, v := range cells {
			if err := setCell(f, sheet, col+1, rowNum, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(w.XLSXPath(stationID)); err != nil {
		return fmt.Errorf("save xlsx snapshot: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell coordinates: %w", err)
	}
	if err := f.SetCellValue(sheet, cell, v); err != nil {
		return fmt.Errorf("set cell %s: %w", cell, err)
	}
	return nil
}

// cellValue maps a missing value to an empty cell.
func cellValue(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func intPtrToAny(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtrToAny(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
