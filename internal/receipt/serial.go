package receipt

import (
	"fmt"

	"go.bug.st/serial"
	"go.uber.org/zap"
)

// SerialSink prints to an ESC/POS receipt printer on a serial port.
// The port is opened per print so a printer that comes online after
// startup still works without a restart.
type SerialSink struct {
	portName string
	baudRate int
	logger   *zap.Logger
}

// NewSerialSink returns a sink for the given port (e.g. "/dev/ttyUSB0"
// or "COM2").
func NewSerialSink(portName string, baudRate int, logger *zap.Logger) *SerialSink {
	if baudRate <= 0 {
		baudRate = 9600
	}
	return &SerialSink{portName: portName, baudRate: baudRate, logger: logger}
}

// Print encodes the document and writes it to the port. All failures
// map to ErrConnection; the caller has already persisted the job.
func (s *SerialSink) Print(doc *Document) error {
	port, err := serial.Open(s.portName, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		s.logger.Warn("Failed to open printer port",
			zap.String("port", s.portName), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer port.Close()

	payload := Encode(doc)
	if _, err := port.Write(payload); err != nil {
		s.logger.Warn("Failed to write to printer",
			zap.String("port", s.portName), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	s.logger.Info("Receipt printed",
		zap.String("port", s.portName), zap.Int("bytes", len(payload)))
	return nil
}
