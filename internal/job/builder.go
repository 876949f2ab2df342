package job

import (
	"strings"
	"sync"
	"time"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
)

// Input carries the raw, form-shaped fields of one submission. Cost
// fields are derived elsewhere and passed to Build separately.
type Input struct {
	Operator      string
	Email         string
	GroupKind     string // club, class, lab, or empty
	GroupName     string
	MachineUnit   string // specific device, e.g. "Prusa #3"
	Material      string // selected material name, possibly "Other"
	OtherMaterial string // free-text name when Material == "Other"
	Amount        float64
	Source        string // "Lab", "External", ...
	Brand         string
	Color         string
	FileName      string // stored upload name, if any
}

// Builder assembles immutable records. It owns the record clock: the
// one-second-resolution timestamp is also the job id, so the clock
// never hands out the same second twice within a process.
type Builder struct {
	now func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewBuilder returns a Builder using the wall clock.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderAt returns a Builder with an injected clock, for tests.
func NewBuilderAt(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Build assembles a record from input plus the derived cost fields.
// All optional fields normalize to the N/A sentinel, and the "Other"
// material selection resolves to the operator's free-text name here,
// exactly once; nothing downstream ever sees the sentinel.
func (b *Builder) Build(in Input, machine *catalog.Machine, rate, total float64) Record {
	return Record{
		Timestamp:      b.nextTimestamp().Format(TimestampLayout),
		Operator:       orNA(in.Operator),
		Email:          orNA(in.Email),
		GroupKind:      orNA(in.GroupKind),
		GroupName:      orNA(in.GroupName),
		MachineID:      machine.ID,
		MachineName:    machine.DisplayName,
		MachineUnit:    orNA(in.MachineUnit),
		FileName:       orNA(in.FileName),
		MaterialType:   resolveMaterial(in.Material, in.OtherMaterial),
		MaterialAmount: in.Amount,
		MaterialSource: orNA(in.Source),
		Brand:          orNA(in.Brand),
		Color:          orNA(in.Color),
		UnitSuffix:     machine.UnitSuffix,
		CostRate:       rate,
		Cost:           total,
	}
}

// nextTimestamp returns the current second, advanced past the last
// issued timestamp if two submissions land within the same second.
func (b *Builder) nextTimestamp() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now().Truncate(time.Second)
	if !ts.After(b.last) {
		ts = b.last.Add(time.Second)
	}
	b.last = ts
	return ts
}

func resolveMaterial(selected, freeText string) string {
	selected = strings.TrimSpace(selected)
	if selected == MaterialOther {
		return orNA(freeText)
	}
	return orNA(selected)
}
