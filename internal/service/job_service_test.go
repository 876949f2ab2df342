package service

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/costing"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/ledger"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/receipt"
)

const testCatalog = `{
  "machines": {
    "fdm": {
      "display_name": "FDM Printer",
      "unit_suffix": "g",
      "materials": [
        {"name": "PLA", "cost_per_unit": 0.08},
        {"name": "PETG", "cost_per_unit": 0.08},
        {"name": "Other", "cost_per_unit": 0, "custom_cost": true}
      ]
    }
  }
}`

// fakeSink records printed documents and can be told to fail.
type fakeSink struct {
	docs []*receipt.Document
	err  error
}

func (f *fakeSink) Print(doc *receipt.Document) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func newService(t *testing.T, sink receipt.Sink) (*JobService, *ledger.Ledger, string) {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "machines.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0644))

	cat, err := catalog.Load(catalogPath)
	require.NoError(t, err)

	logger, _ := zap.NewDevelopment()
	led := ledger.New(filepath.Join(dir, "receipts.csv"), logger)

	base := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	builder := job.NewBuilderAt(func() time.Time { return base })

	return NewJobService(cat, catalogPath, builder, led, sink, logger), led, catalogPath
}

func validInput() SubmitInput {
	return SubmitInput{
		MachineID: "fdm",
		Operator:  "Ada",
		Material:  "PLA",
		AmountRaw: "100",
		Source:    "Lab",
	}
}

func TestSubmit(t *testing.T) {
	t.Run("lab stock is charged and printed", func(t *testing.T) {
		sink := &fakeSink{}
		svc, led, _ := newService(t, sink)

		res, err := svc.Submit(validInput())
		require.NoError(t, err)

		assert.InDelta(t, 0.08, res.Record.CostRate, 1e-6)
		assert.InDelta(t, 8.00, res.Record.Cost, 1e-6)
		assert.Empty(t, res.PrintWarning)
		assert.Len(t, sink.docs, 1)

		stored, err := led.FindByID(res.Record.Timestamp)
		require.NoError(t, err)
		assert.InDelta(t, 8.00, stored.Cost, 1e-6)
	})

	t.Run("external material is free", func(t *testing.T) {
		svc, _, _ := newService(t, &fakeSink{})
		res, err := svc.Submit(SubmitInput{
			MachineID: "fdm", Operator: "Ada",
			Material: "PETG", AmountRaw: "50", Source: "External",
		})
		require.NoError(t, err)
		assert.Zero(t, res.Record.Cost)
		assert.Zero(t, res.Record.CostRate)
	})

	t.Run("custom material uses operator rate and free text name", func(t *testing.T) {
		svc, _, _ := newService(t, &fakeSink{})
		res, err := svc.Submit(SubmitInput{
			MachineID: "fdm", Operator: "Ada",
			Material: "Other", OtherMaterial: "Carbon-X",
			AmountRaw: "25", CustomRateRaw: "0.12", Source: "Lab",
		})
		require.NoError(t, err)
		assert.Equal(t, "Carbon-X", res.Record.MaterialType)
		assert.InDelta(t, 3.00, res.Record.Cost, 1e-6)
	})

	t.Run("unknown material logs uncharged", func(t *testing.T) {
		svc, _, _ := newService(t, &fakeSink{})
		res, err := svc.Submit(SubmitInput{
			MachineID: "fdm", Operator: "Ada",
			Material: "ABS", AmountRaw: "40", Source: "Lab",
		})
		require.NoError(t, err)
		assert.Zero(t, res.Record.Cost)
		assert.Equal(t, "ABS", res.Record.MaterialType)
	})

	t.Run("bad amount rejects before persistence", func(t *testing.T) {
		svc, led, _ := newService(t, &fakeSink{})
		in := validInput()
		in.AmountRaw = "lots"

		_, err := svc.Submit(in)
		assert.ErrorIs(t, err, costing.ErrInvalidAmount)

		records, err := led.ListAll()
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("unknown machine rejects", func(t *testing.T) {
		svc, _, _ := newService(t, &fakeSink{})
		in := validInput()
		in.MachineID = "cnc"
		_, err := svc.Submit(in)
		assert.ErrorIs(t, err, catalog.ErrMachineNotFound)
	})
}

func TestSubmit_PrinterFailures(t *testing.T) {
	t.Run("not configured still logs the job", func(t *testing.T) {
		svc, led, _ := newService(t, receipt.NullSink{})

		res, err := svc.Submit(validInput())
		require.NoError(t, err)
		assert.Equal(t, WarnPrinterNotConfigured, res.PrintWarning)

		records, err := led.ListAll()
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("connection failure still logs the job", func(t *testing.T) {
		sink := &fakeSink{err: receipt.ErrConnection}
		svc, _, _ := newService(t, sink)

		res, err := svc.Submit(validInput())
		require.NoError(t, err)
		assert.Equal(t, WarnPrinterConnection, res.PrintWarning)
	})
}

func TestReprint(t *testing.T) {
	sink := &fakeSink{}
	svc, _, _ := newService(t, sink)

	res, err := svc.Submit(validInput())
	require.NoError(t, err)

	t.Run("reprints an existing job identically", func(t *testing.T) {
		require.NoError(t, svc.Reprint(res.Record.Timestamp))
		require.Len(t, sink.docs, 2)
		assert.Equal(t, sink.docs[0], sink.docs[1])
	})

	t.Run("unknown id", func(t *testing.T) {
		err := svc.Reprint("2026-01-01 00:00:00")
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("printer failure surfaces as error", func(t *testing.T) {
		sink.err = receipt.ErrConnection
		defer func() { sink.err = nil }()
		err := svc.Reprint(res.Record.Timestamp)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connecting to the printer")
	})
}

func TestList_NewestFirst(t *testing.T) {
	svc, _, _ := newService(t, &fakeSink{})
	first, err := svc.Submit(validInput())
	require.NoError(t, err)
	second, err := svc.Submit(validInput())
	require.NoError(t, err)

	records, err := svc.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.Record.Timestamp, records[0].Timestamp)
	assert.Equal(t, first.Record.Timestamp, records[1].Timestamp)
}

func TestExport(t *testing.T) {
	svc, _, _ := newService(t, &fakeSink{})
	_, err := svc.Submit(validInput())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(&buf))
	assert.NotZero(t, buf.Len())
}

func TestReplaceCatalog(t *testing.T) {
	svc, _, catalogPath := newService(t, &fakeSink{})

	t.Run("valid catalog is persisted", func(t *testing.T) {
		doc := []byte(`{"machines": {"laser": {"unit_suffix": "min",
			"materials": [{"name": "Acrylic", "cost_per_unit": 0.5}]}}}`)
		require.NoError(t, svc.ReplaceCatalog(doc))

		onDisk, err := os.ReadFile(catalogPath)
		require.NoError(t, err)
		assert.Equal(t, doc, onDisk)
	})

	t.Run("invalid catalog is rejected and untouched", func(t *testing.T) {
		before, err := os.ReadFile(catalogPath)
		require.NoError(t, err)

		err = svc.ReplaceCatalog([]byte(`{"machines": {}}`))
		require.Error(t, err)

		after, err := os.ReadFile(catalogPath)
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("running catalog unchanged until restart", func(t *testing.T) {
		_, err := svc.Submit(validInput()) // fdm still resolvable
		assert.NoError(t, err)
	})
}
