// Package costing derives the per-unit rate and total cost for a job.
package costing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
)

// SourceLab is the material source that draws from lab stock and is
// therefore charged. Any other source (e.g. "External") is free.
const SourceLab = "Lab"

var ErrInvalidAmount = errors.New("material amount must be a non-negative number")

// Chargeable reports whether material from the given source is billed.
func Chargeable(source string) bool {
	return strings.EqualFold(strings.TrimSpace(source), SourceLab)
}

// Compute derives (rate, total) for a job, rules in order:
// externally sourced material and materials missing from the catalog
// cost nothing; custom-cost materials use the operator-supplied rate;
// everything else uses the configured rate. total is always
// amount * rate.
func Compute(source string, mat *catalog.Material, amount, suppliedRate float64) (rate, total float64) {
	switch {
	case !Chargeable(source):
		rate = 0
	case mat == nil:
		rate = 0
	case mat.CustomCost:
		rate = suppliedRate
		if rate < 0 {
			rate = 0
		}
	default:
		rate = mat.CostPerUnit
	}
	return rate, amount * rate
}

// ParseAmount parses a material amount from form input. Empty,
// non-numeric, or negative input rejects the submission.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}

// ParseRate parses an operator-supplied custom rate. Costs degrade
// rather than block a job: missing, unparsable, or negative input
// yields 0.
func ParseRate(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
