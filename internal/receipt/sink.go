package receipt

import "errors"

var (
	// ErrNotConfigured means no printer is wired up at all.
	ErrNotConfigured = errors.New("printer not configured")

	// ErrConnection covers open and write failures on a configured
	// printer. Both failure classes are recoverable: the job is already
	// in the ledger by the time printing is attempted.
	ErrConnection = errors.New("printer connection error")
)

// Sink accepts a formatted receipt and prints it or fails. Callers
// must treat any failure as non-fatal to the submission.
type Sink interface {
	Print(doc *Document) error
}

// NullSink is the sink used when no printer is configured.
type NullSink struct{}

func (NullSink) Print(*Document) error { return ErrNotConfigured }
