package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/receipt"
)

func main() {
	port := flag.String("port", "", "Serial port of the receipt printer (or set PRINTER_PORT env var)")
	baud := flag.Int("baud", 9600, "Baud rate")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *port == "" {
		*port = os.Getenv("PRINTER_PORT")
	}
	if *port == "" {
		fmt.Fprintf(os.Stderr, "ERROR: PRINTER_PORT not set and no --port flag provided\n")
		fmt.Fprintf(os.Stderr, "Usage: test-printer --port /dev/ttyUSB0 [--baud 9600]\n")
		os.Exit(1)
	}

	fmt.Println("=== Receipt Printer Test ===")
	fmt.Printf("  Port: %s\n", *port)
	fmt.Printf("  Baud rate: %d\n\n", *baud)

	rec := job.Record{
		Timestamp:      time.Now().Format(job.TimestampLayout),
		Operator:       "Printer Test",
		Email:          job.NotAvailable,
		GroupKind:      job.NotAvailable,
		GroupName:      job.NotAvailable,
		MachineID:      "fdm",
		MachineName:    "Test Machine",
		MachineUnit:    job.NotAvailable,
		FileName:       job.NotAvailable,
		MaterialType:   "PLA",
		MaterialAmount: 1,
		MaterialSource: "Lab",
		Brand:          job.NotAvailable,
		Color:          job.NotAvailable,
		UnitSuffix:     "g",
		CostRate:       0.08,
		Cost:           0.08,
	}

	doc := receipt.Format(rec)
	fmt.Printf("Formatted test receipt: %d commands, %d bytes encoded\n",
		len(doc.Commands), len(receipt.Encode(doc)))

	sink := receipt.NewSerialSink(*port, *baud, logger)

	fmt.Println("Sending test receipt to printer...")
	start := time.Now()
	if err := sink.Print(doc); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: print failed: %v\n\n", err)
		fmt.Fprintf(os.Stderr, "Possible causes:\n")
		fmt.Fprintf(os.Stderr, "  1. Wrong serial port name\n")
		fmt.Fprintf(os.Stderr, "  2. Printer powered off or cable unplugged\n")
		fmt.Fprintf(os.Stderr, "  3. Baud rate mismatch\n")
		fmt.Fprintf(os.Stderr, "  4. Missing permissions on the serial device\n")
		os.Exit(1)
	}

	fmt.Printf("Receipt sent in %v\n", time.Since(start))
	fmt.Println("\nPrinter test PASSED")
}
