package receipt

import (
	"fmt"
	"time"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
)

const divider = "----------------------------------------\n"

// Format renders a record into the fixed receipt layout. It never
// fails: optional fields arrive already normalized to "N/A", and any
// record that the builder accepted formats cleanly. Formatting is
// deterministic, so reprints are byte-identical to the original.
func Format(rec job.Record) *Document {
	d := &Document{}
	jobID := rec.JobID()

	// Header
	d.style("center", true, true)
	d.text("3D Print Job\n")
	d.style("center", false, false)
	d.text(divider)

	// Job metadata
	d.style("left", false, false)
	d.text(fmt.Sprintf("Job ID: %s\n", jobID))
	d.text(fmt.Sprintf("Date: %s\n", displayDate(rec.Timestamp)))
	d.text(fmt.Sprintf("Operator: %s\n", rec.Operator))
	if rec.Email != job.NotAvailable {
		d.text(fmt.Sprintf("Email: %s\n", rec.Email))
	}
	d.text(groupOrSourceLine(rec))
	d.text(fmt.Sprintf("Machine: %s\n", rec.MachineName))
	if rec.MachineUnit != job.NotAvailable {
		d.text(fmt.Sprintf("Unit: %s\n", rec.MachineUnit))
	}
	if rec.Brand != job.NotAvailable {
		d.text(fmt.Sprintf("Brand: %s\n", rec.Brand))
	}
	if rec.Color != job.NotAvailable {
		d.text(fmt.Sprintf("Color: %s\n", rec.Color))
	}
	d.style("center", false, false)
	d.text(divider + "\n")

	// Job details
	d.style("left", true, false)
	d.text("Job Details\n")
	d.style("left", false, false)
	d.text(fmt.Sprintf("%s %s\n", padLabel("Material:"), rec.MaterialType))
	d.text(fmt.Sprintf("%s %g%s\n", padLabel("Amount:"), rec.MaterialAmount, rec.UnitSuffix))

	// Cost breakdown, only when something was charged
	if rec.Cost > 0 {
		d.style("center", false, false)
		d.text(divider)
		d.style("left", true, false)
		d.text("Cost Breakdown\n")
		d.style("left", false, false)
		d.text(fmt.Sprintf("%s $%.4f/%s\n", padLabel("Cost per Unit:"), rec.CostRate, rec.UnitSuffix))
		d.text(fmt.Sprintf("%s $%.2f\n", padLabel("Total Cost:"), rec.Cost))
	}

	// Footer
	d.style("center", false, false)
	d.text("\n" + divider)
	d.text("Thank you for using the lab!\n")
	if jobID != "" {
		data := jobID
		if len(data) > 12 {
			data = data[:12]
		}
		d.barcode(data)
	}
	d.cut()

	return d
}

// groupOrSourceLine prints the operator's group when one was given,
// otherwise the material source.
func groupOrSourceLine(rec job.Record) string {
	if rec.GroupKind != job.NotAvailable {
		return fmt.Sprintf("Group: %s (%s)\n", rec.GroupName, rec.GroupKind)
	}
	return fmt.Sprintf("Source: %s\n", rec.MaterialSource)
}

// displayDate reformats the record timestamp for humans. A timestamp
// that does not parse (hand-edited ledger row) is printed as-is.
func displayDate(ts string) string {
	t, err := time.Parse(job.TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Format("01/02/2006 03:04 PM")
}

func padLabel(label string) string {
	return fmt.Sprintf("%-18s", label)
}
