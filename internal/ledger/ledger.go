// Package ledger persists job records to an append-only CSV file.
// The file layout (UTF-8, comma-separated, fixed header first) is an
// external contract consumed by spreadsheet tooling; columns may be
// appended in a later schema version but never reordered.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
)

var ErrNotFound = errors.New("job not found in ledger")

// columns is schema v1. The timestamp column is the lookup key for
// reprints.
var columns = []string{
	"timestamp", "operator", "email", "group_kind", "group_name",
	"machine_id", "machine_name", "machine_unit", "file_name",
	"material_type", "material_amount", "material_source",
	"filament_brand", "filament_color", "unit", "cost_rate", "cost",
}

// Ledger appends and scans the CSV file. The mutex serializes this
// process's writers; cross-process locking is out of scope.
type Ledger struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex
}

// New returns a Ledger backed by the file at path. The file is created
// lazily on first append.
func New(path string, logger *zap.Logger) *Ledger {
	return &Ledger{path: path, logger: logger}
}

// Append writes one record, preceded by the header row when the file
// is new or empty. A failed append means the job is not logged; the
// caller must surface the error instead of continuing to print.
func (l *Ledger) Append(rec job.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat ledger: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return fmt.Errorf("failed to write ledger header: %w", err)
		}
	}
	if err := w.Write(toRow(rec)); err != nil {
		return fmt.Errorf("failed to write ledger row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}

	l.logger.Info("Job appended to ledger",
		zap.String("timestamp", rec.Timestamp),
		zap.String("material", rec.MaterialType),
		zap.Float64("cost", rec.Cost))
	return nil
}

// ListAll returns every record, newest first. A missing ledger file is
// not an error: the lab simply has no jobs yet.
func (l *Ledger) ListAll() ([]job.Record, error) {
	records, err := l.scan()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// FindByID returns the first record whose timestamp equals id.
func (l *Ledger) FindByID(id string) (job.Record, error) {
	records, err := l.scan()
	if err != nil {
		return job.Record{}, err
	}
	for _, rec := range records {
		if rec.Timestamp == id {
			return rec, nil
		}
	}
	return job.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// scan reads the whole file in insertion order.
func (l *Ledger) scan() ([]job.Record, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("Ledger file does not exist yet", zap.String("path", l.path))
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	// header
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger header: %w", err)
	}

	var records []job.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger row: %w", err)
		}
		records = append(records, l.fromRow(row))
	}
	return records, nil
}

func toRow(rec job.Record) []string {
	return []string{
		rec.Timestamp, rec.Operator, rec.Email, rec.GroupKind, rec.GroupName,
		rec.MachineID, rec.MachineName, rec.MachineUnit, rec.FileName,
		rec.MaterialType, formatFloat(rec.MaterialAmount), rec.MaterialSource,
		rec.Brand, rec.Color, rec.UnitSuffix,
		formatFloat(rec.CostRate), formatFloat(rec.Cost),
	}
}

// fromRow rebuilds a record from a row. Rows written by older schema
// versions may be short; missing cells resolve to the N/A sentinel and
// unparsable numbers to 0 so listing never fails on historical data.
func (l *Ledger) fromRow(row []string) job.Record {
	cell := func(i int) string {
		if i < len(row) && row[i] != "" {
			return row[i]
		}
		return job.NotAvailable
	}
	num := func(i int) float64 {
		if i >= len(row) || row[i] == "" {
			return 0
		}
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			l.logger.Warn("Unparsable numeric cell in ledger",
				zap.Int("column", i), zap.String("value", row[i]))
			return 0
		}
		return v
	}

	return job.Record{
		Timestamp:      cell(0),
		Operator:       cell(1),
		Email:          cell(2),
		GroupKind:      cell(3),
		GroupName:      cell(4),
		MachineID:      cell(5),
		MachineName:    cell(6),
		MachineUnit:    cell(7),
		FileName:       cell(8),
		MaterialType:   cell(9),
		MaterialAmount: num(10),
		MaterialSource: cell(11),
		Brand:          cell(12),
		Color:          cell(13),
		UnitSuffix:     cell(14),
		CostRate:       num(15),
		Cost:           num(16),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Columns returns the schema v1 column order, for export tooling.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}
