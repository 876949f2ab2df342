// Package job defines the job record, the central entity of the
// ledger, and the builder that assembles one from submitted input.
package job

import "strings"

const (
	// NotAvailable is the sentinel stored for optional fields that were
	// not supplied, so every persisted row has the same column set.
	NotAvailable = "N/A"

	// MaterialOther is the form value that means "operator typed a
	// free-text material name".
	MaterialOther = "Other"

	// TimestampLayout is the record timestamp format. The timestamp
	// doubles as the job id and the ledger lookup key.
	TimestampLayout = "2006-01-02 15:04:05"
)

// Record is one logged unit of machine/material usage. Records are
// immutable once built; they are appended to the ledger and only read
// back for listing and reprinting.
type Record struct {
	Timestamp      string
	Operator       string
	Email          string
	GroupKind      string
	GroupName      string
	MachineID      string
	MachineName    string
	MachineUnit    string
	FileName       string
	MaterialType   string
	MaterialAmount float64
	MaterialSource string
	Brand          string
	Color          string
	UnitSuffix     string
	CostRate       float64
	Cost           float64
}

// JobID derives the compact identifier printed on receipts and encoded
// in the barcode: the timestamp with separators stripped.
func (r Record) JobID() string {
	id := r.Timestamp
	for _, sep := range []string{"-", ":", " "} {
		id = strings.ReplaceAll(id, sep, "")
	}
	return id
}

// orNA normalizes an optional field to the N/A sentinel.
func orNA(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NotAvailable
	}
	return s
}
