package receipt

import "bytes"

// ESC/POS encoding of a receipt document. Only the small command
// subset the formatter emits is covered: init, alignment, emphasis,
// character size, text, EAN13 barcode, partial cut.

const (
	esc = 0x1B
	gs  = 0x1D
)

// Encode serializes a document to the ESC/POS byte stream understood
// by common thermal receipt printers.
func Encode(doc *Document) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{esc, '@'}) // initialize

	for _, cmd := range doc.Commands {
		switch cmd.Type {
		case CommandStyle:
			align := byte(0) // left
			if cmd.Align == "center" {
				align = 1
			}
			buf.Write([]byte{esc, 'a', align})
			bold := byte(0)
			if cmd.Bold {
				bold = 1
			}
			buf.Write([]byte{esc, 'E', bold})
			size := byte(0)
			if cmd.Double {
				size = 0x11 // double width and height
			}
			buf.Write([]byte{gs, '!', size})

		case CommandText:
			buf.WriteString(cmd.Value)

		case CommandBarcode:
			data := digitsOnly(cmd.Data)
			if len(data) < 12 {
				continue // EAN13 needs 12 digits plus check digit
			}
			data = data[:12]
			buf.Write([]byte{gs, 'H', 0})                   // no HRI text
			buf.Write([]byte{gs, 'h', byte(cmd.Height)})    // height in dots
			buf.Write([]byte{gs, 'w', byte(cmd.Width)})     // module width
			buf.Write([]byte{gs, 'k', 67, byte(len(data))}) // function B, EAN13
			buf.WriteString(data)

		case CommandCut:
			buf.Write([]byte{gs, 'V', 66, 0}) // feed and partial cut
		}
	}
	return buf.Bytes()
}

func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
