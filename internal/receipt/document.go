// Package receipt turns job records into printable receipt documents
// and delivers them to a receipt printer.
package receipt

// CommandType discriminates receipt commands.
type CommandType string

const (
	CommandStyle   CommandType = "style"
	CommandText    CommandType = "text"
	CommandBarcode CommandType = "barcode"
	CommandCut     CommandType = "cut"
)

// Command is one step of a receipt document. Which fields are
// meaningful depends on Type.
type Command struct {
	Type CommandType

	// Text command
	Value string

	// Style command
	Align  string // "left" or "center"
	Bold   bool
	Double bool // double width/height

	// Barcode command
	Format string // "EAN13"
	Data   string
	Height int
	Width  int
}

// Document is an ordered sequence of print commands. It is a transient
// projection of a job record and is never persisted.
type Document struct {
	Commands []Command
}

func (d *Document) style(align string, bold, double bool) {
	d.Commands = append(d.Commands, Command{
		Type: CommandStyle, Align: align, Bold: bold, Double: double,
	})
}

func (d *Document) text(s string) {
	d.Commands = append(d.Commands, Command{Type: CommandText, Value: s})
}

func (d *Document) barcode(data string) {
	d.Commands = append(d.Commands, Command{
		Type: CommandBarcode, Format: "EAN13", Data: data, Height: 64, Width: 2,
	})
}

func (d *Document) cut() {
	d.Commands = append(d.Commands, Command{Type: CommandCut})
}
