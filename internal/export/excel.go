// Package export renders the ledger as a spreadsheet for lab
// bookkeeping.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/ledger"
)

const sheetName = "Jobs"

// ExcelWriter converts job records into an XLSX workbook.
type ExcelWriter struct {
	logger *zap.Logger
}

func NewExcelWriter(logger *zap.Logger) *ExcelWriter {
	return &ExcelWriter{logger: logger}
}

// Write renders records (in the order given) into w, one row per job,
// headed by the ledger's column names. Numeric fields stay numeric so
// spreadsheet totals work.
func (e *ExcelWriter) Write(records []job.Record, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, name := range ledger.Columns() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, rec := range records {
		values := []interface{}{
			rec.Timestamp, rec.Operator, rec.Email, rec.GroupKind, rec.GroupName,
			rec.MachineID, rec.MachineName, rec.MachineUnit, rec.FileName,
			rec.MaterialType, rec.MaterialAmount, rec.MaterialSource,
			rec.Brand, rec.Color, rec.UnitSuffix, rec.CostRate, rec.Cost,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write row %d: %w", i+1, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Ledger exported to spreadsheet", zap.Int("jobs", len(records)))
	return nil
}
