// Package service orchestrates the submission, reprint, listing, and
// export flows. Persistence always completes before printing is
// attempted, so a printer outage can never lose a logged job.
package service

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/costing"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/export"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/ledger"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/receipt"
)

// User-visible warnings for the two recoverable printer states.
const (
	WarnPrinterNotConfigured = "Job logged, but no receipt printer is configured."
	WarnPrinterConnection    = "Job logged, but there was an error connecting to the printer."
)

// JobService wires the catalog, cost calculator, record builder,
// ledger, and receipt sink together.
type JobService struct {
	catalog     *catalog.Catalog
	catalogPath string
	builder     *job.Builder
	ledger      *ledger.Ledger
	sink        receipt.Sink
	exporter    *export.ExcelWriter
	logger      *zap.Logger
}

// NewJobService creates a JobService. sink may be receipt.NullSink
// when no printer is configured.
func NewJobService(
	cat *catalog.Catalog,
	catalogPath string,
	builder *job.Builder,
	led *ledger.Ledger,
	sink receipt.Sink,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		catalog:     cat,
		catalogPath: catalogPath,
		builder:     builder,
		ledger:      led,
		sink:        sink,
		exporter:    export.NewExcelWriter(logger),
		logger:      logger,
	}
}

// SubmitInput is one raw job submission. Numeric fields arrive as form
// strings; validation happens here, before anything is persisted.
type SubmitInput struct {
	MachineID     string
	Operator      string
	Email         string
	GroupKind     string
	GroupName     string
	MachineUnit   string
	Material      string
	OtherMaterial string
	AmountRaw     string
	Source        string
	CustomRateRaw string
	Brand         string
	Color         string
	FileName      string
}

// SubmitResult reports the persisted record plus a non-empty
// PrintWarning when the receipt could not be printed.
type SubmitResult struct {
	Record       job.Record
	PrintWarning string
}

// Submit validates, prices, builds, persists, and (best effort)
// prints one job.
func (s *JobService) Submit(in SubmitInput) (SubmitResult, error) {
	machine, err := s.catalog.Machine(in.MachineID)
	if err != nil {
		return SubmitResult{}, err
	}

	amount, err := costing.ParseAmount(in.AmountRaw)
	if err != nil {
		return SubmitResult{}, err
	}

	// Unknown material is not an error: the job is still logged, just
	// uncharged, so the ledger stays usable with an incomplete catalog.
	mat, err := s.catalog.Material(in.MachineID, in.Material)
	if err != nil {
		if !errors.Is(err, catalog.ErrMaterialNotFound) {
			return SubmitResult{}, err
		}
		s.logger.Warn("Material not in catalog, logging job uncharged",
			zap.String("machine", in.MachineID),
			zap.String("material", in.Material))
		mat = nil
	}

	rate, total := costing.Compute(in.Source, mat, amount, costing.ParseRate(in.CustomRateRaw))

	rec := s.builder.Build(job.Input{
		Operator:      in.Operator,
		Email:         in.Email,
		GroupKind:     in.GroupKind,
		GroupName:     in.GroupName,
		MachineUnit:   in.MachineUnit,
		Material:      in.Material,
		OtherMaterial: in.OtherMaterial,
		Amount:        amount,
		Source:        in.Source,
		Brand:         in.Brand,
		Color:         in.Color,
		FileName:      in.FileName,
	}, machine, rate, total)

	if err := s.ledger.Append(rec); err != nil {
		return SubmitResult{}, fmt.Errorf("job not logged: %w", err)
	}

	return SubmitResult{Record: rec, PrintWarning: s.printReceipt(rec)}, nil
}

// Reprint finds a logged job by its timestamp id and prints its
// receipt again.
func (s *JobService) Reprint(id string) error {
	rec, err := s.ledger.FindByID(id)
	if err != nil {
		return err
	}
	if warning := s.printReceipt(rec); warning != "" {
		return fmt.Errorf("%s", warning)
	}
	return nil
}

// List returns all logged jobs, newest first.
func (s *JobService) List() ([]job.Record, error) {
	return s.ledger.ListAll()
}

// Export writes the full ledger, newest first, as a spreadsheet.
func (s *JobService) Export(w io.Writer) error {
	records, err := s.ledger.ListAll()
	if err != nil {
		return err
	}
	return s.exporter.Write(records, w)
}

// ReplaceCatalog validates a new catalog document and persists it over
// the configured file. The running process keeps its loaded catalog; a
// restart picks up the new one.
func (s *JobService) ReplaceCatalog(raw []byte) error {
	if _, err := catalog.Parse(raw); err != nil {
		return err
	}
	if err := os.WriteFile(s.catalogPath, raw, 0644); err != nil {
		return fmt.Errorf("failed to persist catalog: %w", err)
	}
	s.logger.Info("Catalog file replaced, restart required to apply",
		zap.String("path", s.catalogPath))
	return nil
}

// printReceipt formats and prints, translating sink failures into the
// user-visible warning for the submission response. The job is already
// in the ledger; nothing here can fail the submission.
func (s *JobService) printReceipt(rec job.Record) string {
	doc := receipt.Format(rec)
	err := s.sink.Print(doc)
	if err == nil {
		return ""
	}

	s.logger.Warn("Receipt not printed",
		zap.String("job_id", rec.JobID()), zap.Error(err))
	if errors.Is(err, receipt.ErrNotConfigured) {
		return WarnPrinterNotConfigured
	}
	return WarnPrinterConnection
}
