package receipt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
)

func chargedRecord() job.Record {
	return job.Record{
		Timestamp:      "2026-03-14 15:09:26",
		Operator:       "Ada",
		Email:          "ada@example.edu",
		GroupKind:      "club",
		GroupName:      "Robotics",
		MachineID:      "fdm",
		MachineName:    "FDM Printer",
		MachineUnit:    "N/A",
		FileName:       "bracket.gcode",
		MaterialType:   "PLA",
		MaterialAmount: 100,
		MaterialSource: "Lab",
		Brand:          "Prusament",
		Color:          "Orange",
		UnitSuffix:     "g",
		CostRate:       0.08,
		Cost:           8,
	}
}

// rendered flattens the document's text commands for assertions.
func rendered(d *Document) string {
	var b strings.Builder
	for _, cmd := range d.Commands {
		if cmd.Type == CommandText {
			b.WriteString(cmd.Value)
		}
	}
	return b.String()
}

func TestFormat(t *testing.T) {
	doc := Format(chargedRecord())
	out := rendered(doc)

	t.Run("header and metadata", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(out, "3D Print Job\n"))
		assert.Contains(t, out, "Job ID: 20260314150926\n")
		assert.Contains(t, out, "Date: 03/14/2026 03:09 PM\n")
		assert.Contains(t, out, "Operator: Ada\n")
		assert.Contains(t, out, "Email: ada@example.edu\n")
		assert.Contains(t, out, "Group: Robotics (club)\n")
		assert.Contains(t, out, "Machine: FDM Printer\n")
		assert.Contains(t, out, "Brand: Prusament\n")
	})

	t.Run("details use padded labels", func(t *testing.T) {
		assert.Contains(t, out, "Material:          PLA\n")
		assert.Contains(t, out, "Amount:            100g\n")
	})

	t.Run("cost breakdown present when charged", func(t *testing.T) {
		assert.Contains(t, out, "Cost Breakdown\n")
		assert.Contains(t, out, "$0.0800/g")
		assert.Contains(t, out, "$8.00\n")
	})

	t.Run("footer and cut", func(t *testing.T) {
		assert.Contains(t, out, "Thank you for using the lab!\n")
		last := doc.Commands[len(doc.Commands)-1]
		assert.Equal(t, CommandCut, last.Type)
	})

	t.Run("barcode encodes first 12 id characters", func(t *testing.T) {
		var bc *Command
		for i := range doc.Commands {
			if doc.Commands[i].Type == CommandBarcode {
				bc = &doc.Commands[i]
			}
		}
		require.NotNil(t, bc)
		assert.Equal(t, "EAN13", bc.Format)
		assert.Equal(t, "202603141509", bc.Data)
	})

	t.Run("section order is fixed", func(t *testing.T) {
		idx := func(s string) int { return strings.Index(out, s) }
		assert.Less(t, idx("Job ID:"), idx("Job Details"))
		assert.Less(t, idx("Job Details"), idx("Cost Breakdown"))
		assert.Less(t, idx("Cost Breakdown"), idx("Thank you"))
	})
}

func TestFormat_Idempotent(t *testing.T) {
	rec := chargedRecord()
	first := Format(rec)
	second := Format(rec)
	assert.Equal(t, first, second)
}

func TestFormat_OptionalFields(t *testing.T) {
	t.Run("no cost section for free jobs", func(t *testing.T) {
		rec := chargedRecord()
		rec.Cost = 0
		rec.CostRate = 0
		out := rendered(Format(rec))
		assert.NotContains(t, out, "Cost Breakdown")
	})

	t.Run("missing group name renders N/A and does not fail", func(t *testing.T) {
		rec := chargedRecord()
		rec.GroupName = job.NotAvailable
		out := rendered(Format(rec))
		assert.Contains(t, out, "Group: N/A (club)\n")
	})

	t.Run("no group falls back to source line", func(t *testing.T) {
		rec := chargedRecord()
		rec.GroupKind = job.NotAvailable
		out := rendered(Format(rec))
		assert.Contains(t, out, "Source: Lab\n")
		assert.NotContains(t, out, "Group:")
	})

	t.Run("absent email line is omitted", func(t *testing.T) {
		rec := chargedRecord()
		rec.Email = job.NotAvailable
		out := rendered(Format(rec))
		assert.NotContains(t, out, "Email:")
	})

	t.Run("specific machine unit is printed when present", func(t *testing.T) {
		rec := chargedRecord()
		rec.MachineUnit = "Prusa #3"
		out := rendered(Format(rec))
		assert.Contains(t, out, "Unit: Prusa #3\n")
	})

	t.Run("unparsable timestamp prints as-is", func(t *testing.T) {
		rec := chargedRecord()
		rec.Timestamp = "N/A"
		out := rendered(Format(rec))
		assert.Contains(t, out, "Date: N/A\n")
	})
}

func TestEncode(t *testing.T) {
	doc := Format(chargedRecord())
	payload := Encode(doc)

	t.Run("starts with initialize", func(t *testing.T) {
		require.GreaterOrEqual(t, len(payload), 2)
		assert.Equal(t, []byte{0x1B, '@'}, payload[:2])
	})

	t.Run("contains barcode payload", func(t *testing.T) {
		assert.Contains(t, string(payload), "202603141509")
	})

	t.Run("ends with cut", func(t *testing.T) {
		assert.Equal(t, []byte{0x1D, 'V', 66, 0}, payload[len(payload)-4:])
	})

	t.Run("short barcode data is skipped", func(t *testing.T) {
		d := &Document{}
		d.barcode("123")
		d.cut()
		out := Encode(d)
		assert.NotContains(t, string(out), "123")
	})
}

func TestNullSink(t *testing.T) {
	err := NullSink{}.Print(Format(chargedRecord()))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
